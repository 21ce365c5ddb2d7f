package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/time/rate"

	"go-career-scraper/internal/challenge"
	"go-career-scraper/internal/config"
	"go-career-scraper/internal/extract"
	"go-career-scraper/internal/filter"
	"go-career-scraper/internal/models"
	"go-career-scraper/internal/obstacle"
	"go-career-scraper/internal/profile"
	"go-career-scraper/internal/proxy"
	"go-career-scraper/internal/session"
)

// sessionPool is the slice of the session controller the scraper needs.
type sessionPool interface {
	Acquire(ctx context.Context, entry *proxy.Entry) (*session.Handle, error)
	Release(h *session.Handle, terminal bool)
}

// Scraper drives one scrape end to end: proxy choice, session, navigation,
// obstacles, challenge detection, extraction and filtering.
type Scraper struct {
	cfg      *config.Config
	proxies  *proxy.Manager
	sessions sessionPool
	profiles *profile.Registry
	detector *challenge.Detector
	pipeline *obstacle.Pipeline

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter

	// attempt performs one navigation and extraction on a live session.
	attempt func(ctx context.Context, h *session.Handle, req models.ScrapeRequest, prof *profile.Profile) ([]models.Job, error)
}

func New(cfg *config.Config, proxies *proxy.Manager, sessions sessionPool, profiles *profile.Registry) *Scraper {
	s := &Scraper{
		cfg:      cfg,
		proxies:  proxies,
		sessions: sessions,
		profiles: profiles,
		detector: challenge.NewDetector(),
		pipeline: obstacle.NewPipeline(cfg.Humanize),
		limiters: make(map[string]*rate.Limiter),
	}
	s.attempt = s.runAttempt
	return s
}

// Scrape fetches, filters and caps the jobs for one request. A challenge
// burns the current proxy and retries on the next one, up to the retry
// budget; navigation timeouts get one in-session retry first.
func (s *Scraper) Scrape(ctx context.Context, req models.ScrapeRequest) ([]models.Job, error) {
	req = req.WithDefaults()

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.RequestTimeout)*time.Second)
		defer cancel()
	}

	prof := s.profiles.Resolve(req.URL)
	log.Printf("🔄 Scraping %s with profile %s", req.URL, prof.Name)

	if err := s.waitForHost(ctx, req.URL); err != nil {
		return nil, err
	}

	//the budget counts total attempts: one per proxy rotation
	var lastErr error
	for try := 0; try < s.cfg.MaxChallengeRetries; try++ {
		if try > 0 {
			log.Printf("🔄 Attempt %d/%d for %s on a fresh proxy", try+1, s.cfg.MaxChallengeRetries, req.URL)
		}

		jobs, err := s.scrapeOnce(ctx, req, prof)
		if err == nil {
			return s.finish(jobs, req), nil
		}
		lastErr = err

		switch {
		case errors.Is(err, ErrChallengeDetected), errors.Is(err, ErrNavigationTimeout), errors.Is(err, session.ErrSessionCreation):
			//rotate and try the next proxy
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w for %s: %v", ErrProxyPoolExhausted, req.URL, lastErr)
}

// scrapeOnce runs a single attempt on the current proxy. The session is
// always released exactly once before returning; a challenge or timeout
// marks the proxy failed and forces rotation.
func (s *Scraper) scrapeOnce(ctx context.Context, req models.ScrapeRequest, prof *profile.Profile) (jobs []models.Job, err error) {
	entry := s.proxies.Current()

	h, err := s.sessions.Acquire(ctx, entry)
	if err != nil {
		if errors.Is(err, session.ErrSessionCreation) && entry != nil {
			s.proxies.RecordFailure(entry)
			s.proxies.Rotate(true)
		}
		return nil, err
	}

	terminal := false
	defer func() {
		s.sessions.Release(h, terminal)
	}()

	jobs, err = s.attempt(ctx, h, req, prof)
	if err != nil {
		//a page that loaded and passed the challenge check but listed no
		//jobs is a usable outcome: the proxy worked, the result is empty
		if errors.Is(err, extract.ErrExtractionEmpty) {
			log.Printf("⚠️ No jobs extracted from %s; returning empty result", req.URL)
			if entry != nil {
				s.proxies.RecordSuccess(entry)
			}
			return []models.Job{}, nil
		}
		if errors.Is(err, ErrChallengeDetected) || errors.Is(err, ErrNavigationTimeout) {
			terminal = true
			if entry != nil {
				s.proxies.RecordFailure(entry)
				s.proxies.Rotate(true)
			}
		}
		return nil, err
	}

	if entry != nil {
		s.proxies.RecordSuccess(entry)
	}
	return jobs, nil
}

// runAttempt is the real navigation path: load, pass obstacles, check for a
// challenge, then extract across every results page.
func (s *Scraper) runAttempt(ctx context.Context, h *session.Handle, req models.ScrapeRequest, prof *profile.Profile) ([]models.Job, error) {
	page := h.Page

	resp, err := s.navigate(page, req.URL)
	if err != nil {
		return nil, err
	}

	status := 0
	if resp != nil {
		status = resp.Status()
	}

	title, _ := page.Title()
	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}

	if blocked, reason := s.detector.Classify(challenge.PageState{Title: title, HTML: html, StatusCode: status}); blocked {
		s.snapshot(page, req.URL, "challenge")
		return nil, fmt.Errorf("%w: %s", ErrChallengeDetected, reason)
	}

	if s.cfg.Humanize {
		session.MouseJiggle(page)
	}

	s.pipeline.Prepare(page, prof, req.Keyword)

	htmls := []string{}
	capture := func() {
		if content, err := page.Content(); err == nil {
			htmls = append(htmls, content)
		}
	}
	capture()
	s.pipeline.Paginate(page, prof, capture)

	engine := extract.NewEngine(s.followFunc(h))

	var all []models.Job
	seen := mapset.NewSet[string]()
	for _, content := range htmls {
		pageJobs, err := engine.Extract(ctx, content, req.URL, prof)
		if err != nil {
			if errors.Is(err, extract.ErrExtractionEmpty) {
				continue
			}
			return nil, err
		}
		for _, job := range pageJobs {
			if !seen.Add(job.URL + "|" + strings.ToLower(job.Title)) {
				continue
			}
			all = append(all, job)
		}
	}

	if len(all) == 0 {
		s.snapshot(page, req.URL, "empty")
		return nil, extract.ErrExtractionEmpty
	}
	return all, nil
}

// navigate loads the URL, retrying once in the same session when the first
// load times out.
func (s *Scraper) navigate(page playwright.Page, target string) (playwright.Response, error) {
	opts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.cfg.NavigationTimeout) * 1000),
	}

	resp, err := page.Goto(target, opts)
	if err != nil && isTimeout(err) {
		log.Printf("⏰ Navigation to %s timed out, retrying once in-session", target)
		resp, err = page.Goto(target, opts)
	}
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrNavigationTimeout, target)
		}
		return nil, fmt.Errorf("navigate to %s: %w", target, err)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Timeout")
}

// followFunc loads a linked job board in a throwaway page of the same
// session, so the board sees the same proxy and fingerprint.
func (s *Scraper) followFunc(h *session.Handle) extract.FollowFunc {
	return func(ctx context.Context, target string) (string, error) {
		if h.Context == nil {
			return "", errors.New("no browser context")
		}
		boardPage, err := h.Context.NewPage()
		if err != nil {
			return "", fmt.Errorf("open board page: %w", err)
		}
		defer boardPage.Close()

		if _, err := boardPage.Goto(target, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(s.cfg.NavigationTimeout) * 1000),
		}); err != nil {
			return "", err
		}
		return boardPage.Content()
	}
}

// finish filters and caps the merged result set.
func (s *Scraper) finish(jobs []models.Job, req models.ScrapeRequest) []models.Job {
	filtered := filter.Apply(jobs, req)
	log.Printf("✓ %d jobs extracted, %d after filters for %s", len(jobs), len(filtered), req.URL)

	if req.MaxResults > 0 && len(filtered) > req.MaxResults {
		filtered = filtered[:req.MaxResults]
	}
	return filtered
}

// waitForHost applies the per-host rate limit before touching a site.
func (s *Scraper) waitForHost(ctx context.Context, target string) error {
	if s.cfg.RequestsPerSecond <= 0 {
		return nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	host := u.Hostname()

	s.limitMu.Lock()
	lim, ok := s.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), 1)
		s.limiters[host] = lim
	}
	s.limitMu.Unlock()

	return lim.Wait(ctx)
}
