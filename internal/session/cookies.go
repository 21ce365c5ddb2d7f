package session

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// Cookie represents one browser cookie in the on-disk JSON format.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

func (c Cookie) toPlaywright() playwright.OptionalCookie {
	cookie := playwright.OptionalCookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(c.Path),
	}
	if c.Expires > 0 {
		cookie.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		cookie.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		cookie.Secure = playwright.Bool(true)
	}
	switch c.SameSite {
	case "Lax":
		cookie.SameSite = playwright.SameSiteAttributeLax
	case "Strict":
		cookie.SameSite = playwright.SameSiteAttributeStrict
	case "None":
		cookie.SameSite = playwright.SameSiteAttributeNone
	}
	return cookie
}

// loadCookieDir reads every *.json cookie jar in dir. A missing directory is
// not an error; warm-start cookies are optional.
func loadCookieDir(dir string) []playwright.OptionalCookie {
	if dir == "" {
		return nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(paths) == 0 {
		return nil
	}

	var all []playwright.OptionalCookie
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("⚠️ Could not read cookie jar %s: %v. Continuing.", path, err)
			continue
		}
		var cookies []Cookie
		if err := json.Unmarshal(data, &cookies); err != nil {
			log.Printf("⚠️ Could not parse cookie jar %s: %v. Continuing.", path, err)
			continue
		}
		for _, c := range cookies {
			all = append(all, c.toPlaywright())
		}
		log.Printf("🍪 Loaded %d cookies from %s", len(cookies), path)
	}
	return all
}
