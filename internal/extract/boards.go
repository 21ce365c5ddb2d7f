package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boardSignatures identify hosted ATS job boards that a careers page commonly
// links or redirects to instead of listing jobs itself.
var boardSignatures = []string{
	"boards.greenhouse.io",
	"greenhouse.io/embed",
	"jobs.lever.co",
	"myworkdayjobs.com",
	"dayforcehcm.com",
	"recruiting.ultipro.com",
	"bamboohr.com/careers",
	"bamboohr.com/jobs",
	"applicantstack.com",
	"jobs.jobvite.com",
	"taleo.net",
	"icims.com",
	"jobs.smartrecruiters.com",
	"applytojob.com",
	"jazz.co",
	"recruiterbox.com",
	"jobs.ashbyhq.com",
	"workable.com",
}

// findBoardLink returns the first anchor or iframe pointing at a known ATS
// board, or "" when the page has none.
func findBoardLink(doc *goquery.Document, base *url.URL) string {
	found := ""

	doc.Find("a[href], iframe[src]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		ref, ok := el.Attr("href")
		if !ok {
			ref, ok = el.Attr("src")
		}
		if !ok || ref == "" {
			return true
		}

		abs := absolutize(ref, base)
		lower := strings.ToLower(abs)
		for _, sig := range boardSignatures {
			if strings.Contains(lower, sig) {
				//never loop back onto the page we came from
				if base != nil && strings.Contains(lower, strings.ToLower(base.Hostname())) && base.Hostname() != "" {
					host, err := url.Parse(abs)
					if err == nil && strings.EqualFold(host.Hostname(), base.Hostname()) {
						return true
					}
				}
				found = abs
				return false
			}
		}
		return true
	})

	return found
}
