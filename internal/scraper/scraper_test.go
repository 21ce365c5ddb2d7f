package scraper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-career-scraper/internal/config"
	"go-career-scraper/internal/extract"
	"go-career-scraper/internal/models"
	"go-career-scraper/internal/profile"
	"go-career-scraper/internal/proxy"
	"go-career-scraper/internal/session"
)

type fakePool struct {
	acquireErr error
	acquired   int
	terminals  []bool
}

func (f *fakePool) Acquire(_ context.Context, entry *proxy.Entry) (*session.Handle, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return &session.Handle{ID: fmt.Sprintf("s%d", f.acquired), Proxy: entry}, nil
}

func (f *fakePool) Release(_ *session.Handle, terminal bool) {
	f.terminals = append(f.terminals, terminal)
}

func testConfig() *config.Config {
	return &config.Config{
		MaxChallengeRetries:   3,
		ProxyFailureThreshold: 3,
	}
}

func newTestScraper(t *testing.T, pool sessionPool, proxies []string) (*Scraper, *proxy.Manager) {
	t.Helper()
	mgr, err := proxy.NewManager(proxies, time.Hour, 3)
	require.NoError(t, err)
	return New(testConfig(), mgr, pool, profile.NewRegistry()), mgr
}

func twoProxies() []string {
	return []string{"http://user1:pw@10.0.0.1:8080", "http://user2:pw@10.0.0.2:8080"}
}

func TestChallengeRotatesProxyAndRecovers(t *testing.T) {
	pool := &fakePool{}
	s, _ := newTestScraper(t, pool, twoProxies())

	var usedHosts []string
	s.attempt = func(_ context.Context, h *session.Handle, _ models.ScrapeRequest, _ *profile.Profile) ([]models.Job, error) {
		usedHosts = append(usedHosts, h.Proxy.Host)
		if h.Proxy.Host == "10.0.0.1" {
			return nil, fmt.Errorf("%w: cloudflare interstitial", ErrChallengeDetected)
		}
		return []models.Job{{Title: "Backend Engineer", URL: "https://acme.example/jobs/1"}}, nil
	}

	jobs, err := s.Scrape(context.Background(), models.ScrapeRequest{URL: "https://acme.example/careers"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	//first attempt burned the challenged proxy, second ran on the next one
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, usedHosts)
	assert.Equal(t, []bool{true, false}, pool.terminals)
}

func TestAllProxiesChallengedExhaustsPool(t *testing.T) {
	pool := &fakePool{}
	s, _ := newTestScraper(t, pool, twoProxies())

	attempts := 0
	s.attempt = func(_ context.Context, _ *session.Handle, _ models.ScrapeRequest, _ *profile.Profile) ([]models.Job, error) {
		attempts++
		return nil, fmt.Errorf("%w: access denied", ErrChallengeDetected)
	}

	jobs, err := s.Scrape(context.Background(), models.ScrapeRequest{URL: "https://acme.example/careers"})
	assert.Nil(t, jobs)
	assert.ErrorIs(t, err, ErrProxyPoolExhausted)
	//the budget bounds total attempts, one per proxy rotation
	assert.Equal(t, 3, attempts)
	for _, terminal := range pool.terminals {
		assert.True(t, terminal)
	}
}

func TestNavigationTimeoutTreatedLikeChallenge(t *testing.T) {
	pool := &fakePool{}
	s, _ := newTestScraper(t, pool, twoProxies())

	var usedHosts []string
	s.attempt = func(_ context.Context, h *session.Handle, _ models.ScrapeRequest, _ *profile.Profile) ([]models.Job, error) {
		usedHosts = append(usedHosts, h.Proxy.Host)
		if len(usedHosts) == 1 {
			return nil, fmt.Errorf("%w: https://acme.example/careers", ErrNavigationTimeout)
		}
		return []models.Job{{Title: "Data Engineer", URL: "https://acme.example/jobs/2"}}, nil
	}

	jobs, err := s.Scrape(context.Background(), models.ScrapeRequest{URL: "https://acme.example/careers"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, usedHosts)
}

func TestSessionCreationFailureRotates(t *testing.T) {
	pool := &fakePool{acquireErr: fmt.Errorf("%w after 3 attempts", session.ErrSessionCreation)}
	s, mgr := newTestScraper(t, pool, twoProxies())

	jobs, err := s.Scrape(context.Background(), models.ScrapeRequest{URL: "https://acme.example/careers"})
	assert.Nil(t, jobs)
	assert.ErrorIs(t, err, ErrProxyPoolExhausted)
	//nothing was acquired, so nothing must be released
	assert.Empty(t, pool.terminals)
	assert.Equal(t, 2, mgr.Size())
}

func TestEmptyExtractionIsSuccessfulEmptyResult(t *testing.T) {
	pool := &fakePool{}
	s, mgr := newTestScraper(t, pool, twoProxies())

	//a stale failure from an earlier scrape must be wiped by the success
	burned := mgr.Current()
	mgr.RecordFailure(burned)

	attempts := 0
	s.attempt = func(_ context.Context, _ *session.Handle, _ models.ScrapeRequest, _ *profile.Profile) ([]models.Job, error) {
		attempts++
		return nil, extract.ErrExtractionEmpty
	}

	jobs, err := s.Scrape(context.Background(), models.ScrapeRequest{URL: "https://acme.example/careers"})
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
	assert.Equal(t, 1, attempts)
	//an empty page is a usable outcome: proxy success, session reusable
	assert.Equal(t, []bool{false}, pool.terminals)
	assert.Zero(t, mgr.Stats()[burned.Masked()].FailureCount)
}

func TestFilterAndCapApplied(t *testing.T) {
	pool := &fakePool{}
	s, _ := newTestScraper(t, pool, twoProxies())

	s.attempt = func(_ context.Context, _ *session.Handle, _ models.ScrapeRequest, _ *profile.Profile) ([]models.Job, error) {
		var jobs []models.Job
		for i := 0; i < 10; i++ {
			jobs = append(jobs, models.Job{Title: fmt.Sprintf("Software Engineer %d", i), URL: fmt.Sprintf("https://acme.example/jobs/%d", i)})
		}
		jobs = append(jobs, models.Job{Title: "Office Manager", URL: "https://acme.example/jobs/99"})
		return jobs, nil
	}

	jobs, err := s.Scrape(context.Background(), models.ScrapeRequest{
		URL:        "https://acme.example/careers",
		Keyword:    "engineer",
		MaxResults: 5,
	})
	require.NoError(t, err)
	assert.Len(t, jobs, 5)
	for _, job := range jobs {
		assert.Contains(t, job.Title, "Engineer")
	}
}

func TestSuccessMarksProxyHealthy(t *testing.T) {
	pool := &fakePool{}
	s, mgr := newTestScraper(t, pool, []string{"http://user1:pw@10.0.0.1:8080"})

	s.attempt = func(_ context.Context, h *session.Handle, _ models.ScrapeRequest, _ *profile.Profile) ([]models.Job, error) {
		return []models.Job{{Title: "Platform Engineer", URL: "https://acme.example/jobs/7"}}, nil
	}

	_, err := s.Scrape(context.Background(), models.ScrapeRequest{URL: "https://acme.example/careers"})
	require.NoError(t, err)

	for _, st := range mgr.Stats() {
		assert.Zero(t, st.FailureCount)
		assert.True(t, st.Healthy)
	}
}
