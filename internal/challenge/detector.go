// Classifies a freshly navigated page as blocked/challenged vs usable.
// Runs before the obstacle pipeline and extraction are trusted.

package challenge

import (
	"strings"
)

// PageState is what the session layer captured right after navigation.
type PageState struct {
	Title      string
	HTML       string
	StatusCode int //0 when the response was not observable
}

// Detector classifies challenge pages by marker text, response status and a
// minimum plausible document size for a real content page.
type Detector struct {
	minContentBytes int
}

func NewDetector() *Detector {
	return &Detector{minContentBytes: 1024}
}

// titleMarkers are strings that only appear on interstitial/block pages.
var titleMarkers = []string{
	"just a moment",
	"attention required",
	"access denied",
	"cloudflare",
	"security check",
	"verify you are human",
}

var bodyMarkers = []string{
	"checking your browser",
	"enable javascript and cookies to continue",
	"challenge-platform",
	"cf-turnstile",
	"g-recaptcha",
	"h-captcha",
	"px-captcha",
	"ddos protection by",
	"request unsuccessful. incapsula",
}

// contentMarkers indicate real listing content. A page carrying both challenge
// and content markers is treated as usable: some boards embed turnstile hooks
// on every page.
var contentMarkers = []string{
	"job",
	"position",
	"career",
	"opening",
	"vacanc",
	"apply",
}

// Classify reports whether the page is a challenge and a short reason for the
// log line.
func (d *Detector) Classify(state PageState) (bool, string) {
	title := strings.ToLower(state.Title)
	body := strings.ToLower(state.HTML)

	hasContent := false
	for _, m := range contentMarkers {
		if strings.Contains(body, m) {
			hasContent = true
			break
		}
	}

	for _, m := range titleMarkers {
		if strings.Contains(title, m) && !hasContent {
			return true, "challenge title: " + m
		}
	}
	for _, m := range bodyMarkers {
		if strings.Contains(body, m) && !hasContent {
			return true, "challenge marker: " + m
		}
	}

	switch state.StatusCode {
	case 403, 429, 503:
		if !hasContent {
			return true, "blocking status"
		}
	}

	//an implausibly small DOM is an interstitial even without known markers
	if len(strings.TrimSpace(state.HTML)) < d.minContentBytes && !hasContent {
		return true, "implausibly small document"
	}

	return false, ""
}
