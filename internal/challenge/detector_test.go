package challenge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func listingHTML() string {
	rows := strings.Repeat(`<li class="job-item"><a href="/jobs/1">Backend Engineer</a><span class="location">Austin, TX</span></li>`, 20)
	return `<html><head><title>Careers at Acme</title></head><body><ul class="job-list">` + rows + `</ul></body></html>`
}

func TestClassify(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name    string
		state   PageState
		blocked bool
	}{
		{
			name: "cloudflare interstitial title",
			state: PageState{
				Title: "Just a moment...",
				HTML:  `<html><body><div id="challenge-platform">Checking your browser before accessing</div></body></html>`,
			},
			blocked: true,
		},
		{
			name: "enable javascript block",
			state: PageState{
				Title: "",
				HTML:  `<html><body>Enable JavaScript and cookies to continue</body></html>`,
			},
			blocked: true,
		},
		{
			name:    "blocking status with empty body",
			state:   PageState{StatusCode: 403, HTML: "<html><body>Forbidden</body></html>"},
			blocked: true,
		},
		{
			name:    "tiny document without markers",
			state:   PageState{StatusCode: 200, HTML: "<html><body></body></html>"},
			blocked: true,
		},
		{
			name:    "normal listing page",
			state:   PageState{Title: "Careers at Acme", StatusCode: 200, HTML: listingHTML()},
			blocked: false,
		},
		{
			name: "turnstile hook embedded in a real listing page",
			state: PageState{
				Title:      "Careers at Acme",
				StatusCode: 200,
				HTML:       strings.Replace(listingHTML(), "<body>", `<body><div class="cf-turnstile"></div>`, 1),
			},
			blocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, reason := d.Classify(tt.state)
			assert.Equal(t, tt.blocked, blocked, "reason: %s", reason)
			if blocked {
				assert.NotEmpty(t, reason)
			}
		})
	}
}
