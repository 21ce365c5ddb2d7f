package obstacle

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-career-scraper/internal/profile"
	"go-career-scraper/internal/session"
)

// Pipeline walks a freshly loaded page through its obstacles in order: cookie
// banner, blocking modal, search form, then pagination. Every step is
// best-effort with a bounded wait; a failed step is logged and skipped, never
// fatal.
type Pipeline struct {
	// Humanize adds random delays and cursor movement between actions.
	Humanize bool
}

func NewPipeline(humanize bool) *Pipeline {
	return &Pipeline{Humanize: humanize}
}

// Prepare runs the pre-extraction steps for the page. Keyword is only used on
// search-first pages.
func (p *Pipeline) Prepare(page playwright.Page, prof *profile.Profile, keyword string) {
	p.pause(prof.Waits.Initial)

	p.step(page, "cookie-banner", func() bool { return p.dismissCookieBanner(page, prof) })
	p.step(page, "modal", func() bool { return p.dismissModal(page, prof) })

	if prof.PageType == profile.PageSearchFirst && keyword != "" {
		p.step(page, "search", func() bool { return p.runSearch(page, prof, keyword) })
	}

	//prime lazy-loaded listings with a short scroll down and back
	if _, err := page.Evaluate("window.scrollTo(0, 600)"); err == nil {
		p.pause(prof.Waits.Scroll / 2)
		_, _ = page.Evaluate("window.scrollTo(0, 0)")
	}
}

// Paginate loads more results according to the profile's pagination type and
// reports how many extra pages or scroll rounds it performed.
func (p *Pipeline) Paginate(page playwright.Page, prof *profile.Profile, onPage func()) int {
	switch prof.Pagination {
	case profile.PaginationNumbered:
		return p.clickThroughPages(page, prof, onPage)
	case profile.PaginationLoadMore:
		return p.clickLoadMore(page, prof, onPage)
	case profile.PaginationInfiniteScroll:
		return p.infiniteScroll(page, prof, onPage)
	default:
		return 0
	}
}

func (p *Pipeline) step(page playwright.Page, name string, run func() bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Obstacle step %s panicked: %v", name, r)
		}
	}()

	if page.IsClosed() {
		return
	}
	if run() {
		log.Printf("✓ Obstacle step %s applied", name)
		if p.Humanize {
			session.RandomDelay(300, 900)
		}
	} else {
		log.Printf("⚠️ Obstacle step %s skipped (nothing matched)", name)
	}
}

// cookieButtonTexts catch consent buttons the selector list misses.
var cookieButtonTexts = []string{"Accept all", "Accept All", "Accept", "I agree", "Agree", "Allow all", "Got it", "OK"}

func (p *Pipeline) dismissCookieBanner(page playwright.Page, prof *profile.Profile) bool {
	if clickFirstVisible(page, prof.CookieAcceptSelectors, prof.Waits.Element) {
		return true
	}
	//fall back to scanning button text
	for _, text := range cookieButtonTexts {
		sel := fmt.Sprintf(`button:has-text("%s")`, text)
		if clickFirstVisible(page, []string{sel}, prof.Waits.Element) {
			return true
		}
	}
	return false
}

// dismissModal clicks a close affordance, falling back to Escape when the
// modal has none.
func (p *Pipeline) dismissModal(page playwright.Page, prof *profile.Profile) bool {
	if clickFirstVisible(page, prof.ModalCloseSelectors, prof.Waits.Element) {
		return true
	}
	if visibleCount(page, prof.ModalSelectors) == 0 {
		return false
	}
	if err := page.Keyboard().Press("Escape"); err != nil {
		log.Printf("⚠️ Escape keypress failed: %v", err)
		return false
	}
	return true
}

// runSearch types the keyword into the first usable search input and submits
// with Enter, falling back to a submit button.
func (p *Pipeline) runSearch(page playwright.Page, prof *profile.Profile, keyword string) bool {
	for _, sel := range prof.SearchInputSelectors {
		input := page.Locator(sel).First()
		visible, err := input.IsVisible()
		if err != nil || !visible {
			continue
		}
		if err := input.Fill(keyword); err != nil {
			log.Printf("⚠️ Could not fill search input %q: %v", sel, err)
			continue
		}
		if p.Humanize {
			session.RandomDelay(200, 600)
		}
		if err := input.Press("Enter"); err == nil {
			p.pause(prof.Waits.Search)
			return true
		}
		if clickFirstVisible(page, prof.SearchButtonSelectors, prof.Waits.Element) {
			p.pause(prof.Waits.Search)
			return true
		}
	}
	return false
}

func (p *Pipeline) clickThroughPages(page playwright.Page, prof *profile.Profile, onPage func()) int {
	pages := 0
	for pages < prof.MaxPages-1 {
		if !clickFirstVisible(page, prof.NextPageSelectors, prof.Waits.Element) {
			break
		}
		pages++
		p.pause(prof.Waits.PageLoad)
		log.Printf("🔄 Advanced to results page %d", pages+1)
		if onPage != nil {
			onPage()
		}
	}
	return pages
}

func (p *Pipeline) clickLoadMore(page playwright.Page, prof *profile.Profile, onPage func()) int {
	clicks := 0
	for clicks < prof.MaxPages-1 {
		if !clickFirstVisible(page, prof.LoadMoreSelectors, prof.Waits.Element) {
			break
		}
		clicks++
		p.pause(prof.Waits.PageLoad)
		if onPage != nil {
			onPage()
		}
	}
	if clicks > 0 {
		log.Printf("🔄 Load-more clicked %d times", clicks)
	}
	return clicks
}

// infiniteScroll keeps scrolling until the document stops growing or the
// round cap is hit.
func (p *Pipeline) infiniteScroll(page playwright.Page, prof *profile.Profile, onPage func()) int {
	rounds := 0
	lastHeight := pageHeight(page)
	for rounds < prof.MaxScrolls {
		if p.Humanize {
			session.SmoothScroll(page, 1200)
		} else if _, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)"); err != nil {
			break
		}
		rounds++
		p.pause(prof.Waits.Scroll)
		if onPage != nil {
			onPage()
		}

		height := pageHeight(page)
		if height <= lastHeight {
			break
		}
		lastHeight = height
	}
	if rounds > 0 {
		log.Printf("🔄 Infinite scroll ran %d rounds", rounds)
	}
	return rounds
}

func (p *Pipeline) pause(ms int) {
	if ms <= 0 {
		return
	}
	if p.Humanize {
		session.RandomDelay(ms, ms+ms/2)
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// clickFirstVisible tries each selector, clicking the first visible match.
func clickFirstVisible(page playwright.Page, selectors []string, waitMs int) bool {
	for _, sel := range selectors {
		loc := page.Locator(sel).First()
		visible, err := loc.IsVisible()
		if err != nil || !visible {
			continue
		}
		_ = loc.ScrollIntoViewIfNeeded()
		err = loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(float64(waitMs))})
		if err != nil {
			if !strings.Contains(err.Error(), "Timeout") {
				log.Printf("⚠️ Click on %q failed: %v", sel, err)
			}
			continue
		}
		return true
	}
	return false
}

func visibleCount(page playwright.Page, selectors []string) int {
	total := 0
	for _, sel := range selectors {
		if visible, err := page.Locator(sel).First().IsVisible(); err == nil && visible {
			total++
		}
	}
	return total
}

func pageHeight(page playwright.Page) int {
	result, err := page.Evaluate("document.body.scrollHeight")
	if err != nil {
		return 0
	}
	return toInt(result)
}

// toInt handles the int/float64 ambiguity of Evaluate results.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
