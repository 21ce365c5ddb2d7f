package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-career-scraper/internal/models"
)

var (
	salaryPattern     = regexp.MustCompile(`(?i)(?:[$€£]\s?\d{2,3}(?:,\d{3})?(?:k)?(?:\s?[-–—to]+\s?[$€£]?\s?\d{2,3}(?:,\d{3})?(?:k)?)?(?:\s*(?:per|/)\s*(?:year|yr|annum|hour|hr|month))?)|(?:\d{2,3}k\s?[-–—]\s?\d{2,3}k)`)
	employmentPattern = regexp.MustCompile(`(?i)\b(full[- ]?time|part[- ]?time|contract|temporary|internship|freelance|permanent)\b`)
	remotePattern     = regexp.MustCompile(`(?i)\b(fully remote|remote[- ]first|remote|hybrid|on[- ]?site|in[- ]?office)\b`)
	postedPattern     = regexp.MustCompile(`(?i)(?:posted\s+)?(\d+\+?\s+(?:minute|hour|day|week|month)s?\s+ago|today|yesterday|just posted)`)
	jobIDPattern      = regexp.MustCompile(`(?i)(?:gh_jid=|jobid=|job_id=|jid=|/jobs?/)(\d{3,})`)
)

var skillKeywords = []string{
	"python", "golang", "go", "java", "javascript", "typescript", "react",
	"node", "kubernetes", "docker", "aws", "gcp", "azure", "sql", "postgres",
	"mysql", "redis", "kafka", "terraform", "figma", "photoshop", "excel",
	"c++", "rust", "ruby", "php", "swift", "kotlin", "linux", "git",
}

var benefitKeywords = []string{
	"health insurance", "dental", "vision", "401k", "401(k)", "pension",
	"equity", "stock options", "pto", "paid time off", "unlimited vacation",
	"parental leave", "gym", "wellness", "bonus",
}

// enrich backfills metadata fields from text near the job and from the page
// body, leaving existing values alone.
func enrich(job *models.Job, doc *goquery.Document) {
	row := rowFor(job, doc)
	rowText := ""
	if row != nil {
		rowText = row.Text()
	}

	if job.SalaryRange == "" {
		job.SalaryRange = strings.TrimSpace(salaryPattern.FindString(rowText))
	}
	if job.EmploymentType == "" {
		job.EmploymentType = strings.ToLower(employmentPattern.FindString(rowText))
	}
	if job.RemoteType == "" {
		job.RemoteType = normalizeRemote(remotePattern.FindString(rowText + " " + job.Title + " " + job.Location))
	}
	if job.PostedDate == "" {
		job.PostedDate = strings.ToLower(strings.TrimSpace(postedPattern.FindString(rowText)))
	}
	if job.JobID == "" {
		if m := jobIDPattern.FindStringSubmatch(job.URL); len(m) == 2 {
			job.JobID = m[1]
		}
	}
	//the card text itself is the best description the listing page offers
	if job.Description == "" {
		job.Description = snippet(rowText, 280)
	}

	lower := strings.ToLower(rowText)
	if len(job.Skills) == 0 && rowText != "" {
		for _, kw := range skillKeywords {
			if containsWord(lower, kw) {
				job.Skills = append(job.Skills, kw)
			}
		}
	}
	if len(job.Benefits) == 0 && rowText != "" {
		for _, kw := range benefitKeywords {
			if strings.Contains(lower, kw) {
				job.Benefits = append(job.Benefits, kw)
			}
		}
	}
}

// rowFor finds the element containing the job's link so enrichment reads the
// job's own row instead of the whole page.
func rowFor(job *models.Job, doc *goquery.Document) *goquery.Selection {
	if job.URL == "" {
		return nil
	}
	var row *goquery.Selection
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		//a bare "/" trims to nothing and would match every job URL
		needle := strings.TrimPrefix(href, "/")
		if needle != "" && strings.Contains(job.URL, needle) {
			row = a.ParentsFiltered("li, tr, div, article").First()
			if row.Length() == 0 {
				row = a
			}
			return false
		}
		return true
	})
	return row
}

// snippet collapses whitespace and caps the text at max runes.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > max {
		text = strings.TrimSpace(string(runes[:max]))
	}
	return text
}

func normalizeRemote(raw string) string {
	switch lower := strings.ToLower(raw); {
	case strings.Contains(lower, "remote"):
		return "remote"
	case strings.Contains(lower, "hybrid"):
		return "hybrid"
	case lower != "":
		return "onsite"
	default:
		return ""
	}
}

// containsWord avoids "go" matching inside "category".
func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordByte(haystack[i-1])
		after := i+len(word) == len(haystack) || !isWordByte(haystack[i+len(word)])
		if before && after {
			return true
		}
		idx = i + len(word)
		if idx >= len(haystack) {
			return false
		}
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '+' || b == '#'
}
