package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrecedence(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"exact domain", "https://greenhouse.io/acme", "greenhouse"},
		{"subdomain suffix", "https://boards.greenhouse.io/acme", "greenhouse"},
		{"deep subdomain suffix", "https://acme.wd5.myworkdayjobs.com/careers", "workday"},
		{"www stripped", "https://www.lever.co/jobs", "lever"},
		{"unknown domain falls back", "https://careers.example.com/jobs", "generic"},
		{"unparseable falls back", "::not-a-url", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.Resolve(tt.url)
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.Name)
		})
	}
}

func TestResolveFillsDefaults(t *testing.T) {
	r := NewRegistry()

	//builtin entries only declare what differs from generic
	p := r.Resolve("https://boards.greenhouse.io/acme")
	assert.Equal(t, PageDirectListing, p.PageType)
	assert.Equal(t, PaginationNumbered, p.Pagination)
	assert.NotEmpty(t, p.CookieAcceptSelectors)
	assert.Greater(t, p.MaxPages, 0)
	assert.Greater(t, p.Waits.Element, 0)

	//workday overrides only the initial wait
	wd := r.Resolve("https://acme.myworkdayjobs.com/en-US/careers")
	assert.Equal(t, 5000, wd.Waits.Initial)
	assert.Equal(t, 3000, wd.Waits.Search)
}

func TestYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	overlay := `profiles:
  - name: acme-careers
    domains: ["careers.acme.io"]
    page_type: search-first
    pagination: load-more
    job_selectors: [".acme-job-row"]
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0644))

	r, err := NewRegistryFromFile(path)
	require.NoError(t, err)

	p := r.Resolve("https://careers.acme.io/openings")
	assert.Equal(t, "acme-careers", p.Name)
	assert.Equal(t, PageSearchFirst, p.PageType)
	assert.Equal(t, PaginationLoadMore, p.Pagination)
	assert.Equal(t, []string{".acme-job-row"}, p.JobSelectors)
	//waits come from the generic defaults
	assert.Equal(t, 2000, p.Waits.Scroll)

	//builtins still present
	assert.Equal(t, "lever", r.Resolve("https://jobs.lever.co/acme").Name)
}

func TestResolveIsPure(t *testing.T) {
	r := NewRegistry()
	a := r.Resolve("https://careers.example.com")
	a.MaxPages = 99

	b := r.Resolve("https://careers.example.com")
	assert.Equal(t, 5, b.MaxPages, "generic profile must not be mutated by callers")
}
