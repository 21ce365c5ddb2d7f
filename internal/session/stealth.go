package session

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-career-scraper/internal/config"
)

// stealthScript hides the usual automation giveaways before any page script
// runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
window.chrome = window.chrome || { runtime: {} };
const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
  parameters.name === 'notifications'
    ? Promise.resolve({ state: Notification.permission })
    : originalQuery(parameters)
);
`

var viewports = []playwright.Size{
	{Width: 1920, Height: 1080},
	{Width: 1536, Height: 864},
	{Width: 1440, Height: 900},
	{Width: 1366, Height: 768},
}

func newStealthContext(browser playwright.Browser, cfg *config.Config) (playwright.BrowserContext, error) {
	vp := viewports[rand.Intn(len(viewports))]

	//accept_language is a header value; the locale is its first tag
	locale, _, _ := strings.Cut(cfg.AcceptLanguage, ",")

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(cfg.UserAgent),
		Viewport:  &vp,
		Locale:    playwright.String(locale),
	})
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("add stealth script: %w", err)
	}

	return bctx, nil
}

// RandomDelay sleeps between min and max milliseconds to break up the rhythm
// of scripted actions.
func RandomDelay(minMs, maxMs int) {
	if maxMs <= minMs {
		time.Sleep(time.Duration(minMs) * time.Millisecond)
		return
	}
	time.Sleep(time.Duration(minMs+rand.Intn(maxMs-minMs)) * time.Millisecond)
}

// MouseJiggle moves the cursor through a few random points on the page.
func MouseJiggle(page playwright.Page) {
	for i := 0; i < 2+rand.Intn(3); i++ {
		x := float64(100 + rand.Intn(800))
		y := float64(100 + rand.Intn(500))
		if err := page.Mouse().Move(x, y); err != nil {
			return
		}
		RandomDelay(50, 200)
	}
}

// SmoothScroll wheels down the page in small random steps instead of one jump.
func SmoothScroll(page playwright.Page, totalPx int) {
	scrolled := 0
	for scrolled < totalPx {
		step := 120 + rand.Intn(240)
		if err := page.Mouse().Wheel(0, float64(step)); err != nil {
			return
		}
		scrolled += step
		RandomDelay(80, 250)
	}
}
