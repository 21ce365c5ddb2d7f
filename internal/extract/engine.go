package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"

	"go-career-scraper/internal/models"
	"go-career-scraper/internal/profile"
)

// ErrExtractionEmpty is returned when every strategy in the cascade came back
// with zero valid jobs.
var ErrExtractionEmpty = errors.New("extraction produced no jobs")

// FollowFunc fetches the HTML of a linked page, used to chase embedded job
// board redirects one level deep.
type FollowFunc func(ctx context.Context, target string) (string, error)

// Engine runs the extraction cascade over captured page HTML.
type Engine struct {
	// Follow chases job board links found in the page. Nil disables the
	// board redirect strategy.
	Follow FollowFunc
}

func NewEngine(follow FollowFunc) *Engine {
	return &Engine{Follow: follow}
}

// Extract runs the strategies in order and returns the first non-empty set of
// deduplicated, validated jobs: profile selectors, board redirect, link
// heuristics, then text patterns.
func (e *Engine) Extract(ctx context.Context, html, pageURL string, prof *profile.Profile) ([]models.Job, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	base, _ := url.Parse(pageURL)

	strategies := []struct {
		name string
		run  func() []models.Job
	}{
		{"selectors", func() []models.Job { return e.fromSelectors(doc, base, prof) }},
		{"board-redirect", func() []models.Job { return e.fromBoardRedirect(ctx, doc, base) }},
		{"link-heuristics", func() []models.Job { return e.fromLinkHeuristics(doc, base) }},
		{"text-patterns", func() []models.Job { return e.fromTextPatterns(doc, base) }},
	}

	for _, s := range strategies {
		jobs := dedupe(validate(s.run()))
		if len(jobs) > 0 {
			log.Printf("✓ Strategy %s extracted %d jobs from %s", s.name, len(jobs), pageURL)
			for i := range jobs {
				enrich(&jobs[i], doc)
				jobs[i].Source = hostOf(base)
			}
			return jobs, nil
		}
		log.Printf("⚠️ Strategy %s found nothing on %s, falling through", s.name, pageURL)
	}

	return nil, ErrExtractionEmpty
}

// fromSelectors reads jobs out of the profile's declared container/field
// selectors, trying each container selector until one yields rows.
func (e *Engine) fromSelectors(doc *goquery.Document, base *url.URL, prof *profile.Profile) []models.Job {
	if prof == nil {
		return nil
	}

	var jobs []models.Job
	for _, container := range prof.JobSelectors {
		doc.Find(container).Each(func(_ int, row *goquery.Selection) {
			job := models.Job{
				Title:       firstText(row, prof.TitleSelectors),
				Company:     firstText(row, prof.CompanySelectors),
				Location:    firstText(row, prof.LocationSelectors),
				Description: firstText(row, prof.DescriptionSelectors),
				URL:         firstHref(row, prof.LinkSelectors, base),
			}
			if job.URL == "" {
				if href, ok := row.Attr("href"); ok {
					job.URL = absolutize(href, base)
				}
			}
			jobs = append(jobs, job)
		})
		if len(jobs) > 0 {
			break
		}
	}
	return jobs
}

// fromBoardRedirect looks for links pointing at a known ATS job board, follows
// the first one and extracts from the embedded board instead. Depth is capped
// at one hop.
func (e *Engine) fromBoardRedirect(ctx context.Context, doc *goquery.Document, base *url.URL) []models.Job {
	if e.Follow == nil {
		return nil
	}

	target := findBoardLink(doc, base)
	if target == "" {
		return nil
	}

	log.Printf("🔄 Following job board link %s", target)
	html, err := e.Follow(ctx, target)
	if err != nil {
		log.Printf("⚠️ Board follow failed for %s: %v", target, err)
		return nil
	}

	boardDoc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	boardBase, _ := url.Parse(target)

	jobs := e.fromLinkHeuristics(boardDoc, boardBase)
	if len(jobs) == 0 {
		jobs = e.fromTextPatterns(boardDoc, boardBase)
	}
	return jobs
}

// navKeywords mark links that are site chrome rather than job postings.
var navKeywords = []string{
	"login", "sign in", "sign up", "register", "privacy", "cookie",
	"terms", "about us", "contact", "blog", "news", "press", "faq",
	"home", "back to", "learn more", "read more", "view all", "see all",
	"benefits", "culture", "our team", "twitter", "linkedin", "facebook",
}

var jobPathHints = []string{
	"/job/", "/jobs/", "/career", "/careers/", "/position", "/opening",
	"/vacanc", "/opportunit", "gh_jid=", "jobid=", "job_id=", "/posting",
}

// fromLinkHeuristics scans every anchor and keeps the ones whose href or text
// look like a job posting.
func (e *Engine) fromLinkHeuristics(doc *goquery.Document, base *url.URL) []models.Job {
	var jobs []models.Job
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.TrimSpace(a.Text())
		if len(text) < 5 || len(text) > 150 {
			return
		}

		lower := strings.ToLower(text)
		for _, kw := range navKeywords {
			if strings.Contains(lower, kw) {
				return
			}
		}

		hrefLower := strings.ToLower(href)
		pathHit := false
		for _, hint := range jobPathHints {
			if strings.Contains(hrefLower, hint) {
				pathHit = true
				break
			}
		}
		if !pathHit && !titlePattern.MatchString(text) {
			return
		}

		jobs = append(jobs, models.Job{
			Title:    text,
			URL:      absolutize(href, base),
			Location: siblingLocation(a),
		})
	})
	return jobs
}

// titlePattern recognizes text that reads like a job title.
var titlePattern = regexp.MustCompile(`(?i)\b(engineer|developer|designer|manager|analyst|scientist|architect|lead|director|specialist|consultant|coordinator|administrator|intern|recruiter|writer|accountant|marketer)\b`)

// fromTextPatterns is the last resort: scan heading/list elements for strings
// that look like job titles and pair them with the nearest link.
func (e *Engine) fromTextPatterns(doc *goquery.Document, base *url.URL) []models.Job {
	var jobs []models.Job
	doc.Find("h2, h3, h4, li, td").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if len(text) < 5 || len(text) > 120 {
			return
		}
		if !titlePattern.MatchString(text) {
			return
		}
		//a title element should not be a paragraph of prose
		if strings.Count(text, " ") > 10 {
			return
		}

		href := ""
		if h, ok := el.Find("a[href]").First().Attr("href"); ok {
			href = h
		} else if h, ok := el.Closest("a[href]").Attr("href"); ok {
			href = h
		}
		if href == "" {
			return
		}

		jobs = append(jobs, models.Job{
			Title: text,
			URL:   absolutize(href, base),
		})
	})
	return jobs
}

// validate drops jobs missing a title or an absolute http(s) URL.
func validate(jobs []models.Job) []models.Job {
	out := jobs[:0]
	for _, job := range jobs {
		job.Title = strings.TrimSpace(job.Title)
		if job.Title == "" {
			log.Printf("⚠️ Dropping job with empty title (url=%s)", job.URL)
			continue
		}
		u, err := url.Parse(job.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			log.Printf("⚠️ Dropping job %q with invalid url %q", job.Title, job.URL)
			continue
		}
		out = append(out, job)
	}
	return out
}

// dedupe removes duplicates by the (normalized title, canonical URL) pair,
// storing the canonical URL on the kept job.
func dedupe(jobs []models.Job) []models.Job {
	seen := mapset.NewSet[string]()

	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		titleKey := strings.ToLower(strings.TrimSpace(job.Title))
		urlKey := canonicalURL(job.URL)
		if !seen.Add(titleKey + "|" + urlKey) {
			continue
		}
		if urlKey != "" {
			job.URL = urlKey
		}
		out = append(out, job)
	}
	return out
}

// trackingParams are stripped before URLs are compared.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"gclid", "fbclid", "ref", "src", "source",
}

func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}

func firstText(row *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(row.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstHref(row *goquery.Selection, selectors []string, base *url.URL) string {
	for _, sel := range selectors {
		if href, ok := row.Find(sel).First().Attr("href"); ok && href != "" {
			return absolutize(href, base)
		}
	}
	return ""
}

func absolutize(href string, base *url.URL) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}

// siblingLocation grabs location-looking text living next to a job link.
func siblingLocation(a *goquery.Selection) string {
	for _, sel := range []string{".location", "[class*='location']", "[data-location]"} {
		if text := strings.TrimSpace(a.Parent().Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func hostOf(u *url.URL) string {
	if u == nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
