package scraper

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// snapshot saves the page HTML and a screenshot under the log directory so a
// blocked or empty scrape can be inspected after the fact. Failures here only
// log; a missing snapshot never fails the scrape.
func (s *Scraper) snapshot(page playwright.Page, target, label string) {
	if s.cfg.LogDir == "" || page == nil {
		return
	}
	if err := os.MkdirAll(s.cfg.LogDir, 0o755); err != nil {
		log.Printf("⚠️ Could not create log dir %s: %v", s.cfg.LogDir, err)
		return
	}

	base := fmt.Sprintf("%s_%s_%s", label, slugForURL(target), time.Now().Format("20060102_150405"))

	if html, err := page.Content(); err == nil {
		htmlPath := filepath.Join(s.cfg.LogDir, base+".html")
		if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
			log.Printf("⚠️ Could not write snapshot %s: %v", htmlPath, err)
		} else {
			log.Printf("📦 Saved page snapshot to %s", htmlPath)
		}
	}

	shotPath := filepath.Join(s.cfg.LogDir, base+".png")
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(shotPath),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Printf("⚠️ Could not take screenshot: %v", err)
	}
}

func slugForURL(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return "page"
	}
	return strings.ReplaceAll(u.Hostname(), ".", "_")
}
