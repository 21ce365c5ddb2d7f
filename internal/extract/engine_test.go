package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-career-scraper/internal/profile"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		JobSelectors:         []string{".opening"},
		TitleSelectors:       []string{".title"},
		CompanySelectors:     []string{".company"},
		LocationSelectors:    []string{".loc"},
		DescriptionSelectors: []string{".desc"},
		LinkSelectors:        []string{"a"},
	}
}

const selectorHTML = `<html><body>
<nav><a href="/">Home</a><span>$999,999 per year</span></nav>
<div class="opening">
  <a href="/jobs/101"><span class="title">Backend Engineer</span></a>
  <span class="company">Acme</span><span class="loc">Berlin, Germany</span>
  <span class="desc">Build and ship backend services.</span>
  <span>Full-time · $90,000 - $120,000 per year · hybrid</span>
</div>
<div class="opening">
  <a href="/jobs/102"><span class="title">Product Designer</span></a>
  <span class="company">Acme</span><span class="loc">Remote</span>
</div>
</body></html>`

func TestExtractFromProfileSelectors(t *testing.T) {
	eng := NewEngine(nil)

	jobs, err := eng.Extract(context.Background(), selectorHTML, "https://acme.example/careers", testProfile())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "Berlin, Germany", jobs[0].Location)
	assert.Equal(t, "https://acme.example/jobs/101", jobs[0].URL)
	assert.Equal(t, "acme.example", jobs[0].Source)
}

func TestExtractFallsThroughToLinkHeuristics(t *testing.T) {
	html := `<html><body>
	<a href="/about">About us</a>
	<a href="/careers/openings/301">Senior Data Scientist</a>
	<a href="/careers/openings/302">Marketing Manager</a>
	<a href="/privacy">Privacy policy</a>
	</body></html>`

	eng := NewEngine(nil)
	jobs, err := eng.Extract(context.Background(), html, "https://beta.example/careers", testProfile())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	titles := []string{jobs[0].Title, jobs[1].Title}
	assert.Contains(t, titles, "Senior Data Scientist")
	assert.Contains(t, titles, "Marketing Manager")
}

func TestExtractFollowsBoardRedirect(t *testing.T) {
	careersHTML := `<html><body>
	<p>We are hiring!</p>
	<a href="https://boards.greenhouse.io/acme">See open roles</a>
	</body></html>`
	boardHTML := `<html><body>
	<a href="/acme/jobs/4001">Staff Engineer</a>
	<a href="/acme/jobs/4002">Engineering Manager</a>
	</body></html>`

	var followed string
	eng := NewEngine(func(_ context.Context, target string) (string, error) {
		followed = target
		return boardHTML, nil
	})

	jobs, err := eng.Extract(context.Background(), careersHTML, "https://acme.example/careers", testProfile())
	require.NoError(t, err)
	assert.Equal(t, "https://boards.greenhouse.io/acme", followed)
	require.Len(t, jobs, 2)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4001", jobs[0].URL)
}

func TestExtractEmptyPage(t *testing.T) {
	eng := NewEngine(nil)

	jobs, err := eng.Extract(context.Background(), "<html><body><p>Nothing here.</p></body></html>", "https://acme.example/careers", testProfile())
	assert.ErrorIs(t, err, ErrExtractionEmpty)
	assert.Empty(t, jobs)
}

func TestDedupeByCanonicalURLAndTitle(t *testing.T) {
	html := `<html><body>
	<a href="/jobs/500?utm_source=feed">Platform Engineer</a>
	<a href="/jobs/500?utm_source=newsletter">Platform Engineer</a>
	<a href="/jobs/501">Platform Engineer II</a>
	<a href="/jobs/502">Payroll Analyst</a>
	<a href="/jobs/502">Senior Payroll Analyst</a>
	</body></html>`

	eng := NewEngine(nil)
	jobs, err := eng.Extract(context.Background(), html, "https://acme.example/careers", testProfile())
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	assert.Equal(t, "https://acme.example/jobs/500", jobs[0].URL)

	//dedup keys on the (title, url) pair: same link under two distinct
	//titles is two postings
	titles := []string{jobs[2].Title, jobs[3].Title}
	assert.Contains(t, titles, "Payroll Analyst")
	assert.Contains(t, titles, "Senior Payroll Analyst")
}

func TestValidateDropsBrokenJobs(t *testing.T) {
	html := `<html><body>
	<div class="opening"><a href="/jobs/601"><span class="title">  </span></a></div>
	<div class="opening"><a href="/jobs/602"><span class="title">QA Engineer</span></a></div>
	</body></html>`

	eng := NewEngine(nil)
	jobs, err := eng.Extract(context.Background(), html, "https://acme.example/careers", testProfile())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "QA Engineer", jobs[0].Title)
}

func TestEnrichmentFromRowText(t *testing.T) {
	eng := NewEngine(nil)

	jobs, err := eng.Extract(context.Background(), selectorHTML, "https://acme.example/careers", testProfile())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "full-time", jobs[0].EmploymentType)
	assert.Contains(t, jobs[0].SalaryRange, "$90,000")
	assert.Equal(t, "hybrid", jobs[0].RemoteType)
	assert.Equal(t, "101", jobs[0].JobID)
	assert.Equal(t, "Build and ship backend services.", jobs[0].Description)

	assert.Equal(t, "remote", jobs[1].RemoteType)
	//no description selector hit: the card text becomes the snippet
	assert.Contains(t, jobs[1].Description, "Product Designer")
	//the bare "/" nav link must not be mistaken for this job's row
	assert.NotContains(t, jobs[1].SalaryRange, "$999,999")
}
