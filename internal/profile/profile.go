package profile

// PageType describes how a career page surfaces its listings.
type PageType string

const (
	PageDirectListing PageType = "direct-listing"
	PageSearchFirst   PageType = "search-first"
	PageModalFirst    PageType = "modal-first"
)

// PaginationType describes how additional results are loaded.
type PaginationType string

const (
	PaginationNone           PaginationType = "none"
	PaginationNumbered       PaginationType = "numbered"
	PaginationLoadMore       PaginationType = "load-more"
	PaginationInfiniteScroll PaginationType = "infinite-scroll"
)

// Waits holds per-profile wait budgets in milliseconds.
type Waits struct {
	Initial  int `yaml:"initial"`
	Search   int `yaml:"search"`
	Scroll   int `yaml:"scroll"`
	PageLoad int `yaml:"page_load"`
	Element  int `yaml:"element"`
}

// Profile is a declarative description of how to scrape one class of site.
// Profiles are data: supporting a new platform is a new entry here or in the
// YAML overlay, never new engine code.
type Profile struct {
	Name       string         `yaml:"name"`
	Domains    []string       `yaml:"domains"` //matched exact first, then as suffix
	PageType   PageType       `yaml:"page_type"`
	Pagination PaginationType `yaml:"pagination"`

	//JobSelectors locate one listing row each; tried most-specific first.
	JobSelectors []string `yaml:"job_selectors"`

	//field selectors are evaluated relative to a listing row
	TitleSelectors       []string `yaml:"title_selectors,omitempty"`
	CompanySelectors     []string `yaml:"company_selectors,omitempty"`
	LocationSelectors    []string `yaml:"location_selectors,omitempty"`
	DescriptionSelectors []string `yaml:"description_selectors,omitempty"`
	LinkSelectors        []string `yaml:"link_selectors,omitempty"`

	CookieAcceptSelectors []string `yaml:"cookie_accept_selectors,omitempty"`
	ModalSelectors        []string `yaml:"modal_selectors,omitempty"`
	ModalCloseSelectors   []string `yaml:"modal_close_selectors,omitempty"`
	SearchInputSelectors  []string `yaml:"search_input_selectors,omitempty"`
	SearchButtonSelectors []string `yaml:"search_button_selectors,omitempty"`
	NextPageSelectors     []string `yaml:"next_page_selectors,omitempty"`
	LoadMoreSelectors     []string `yaml:"load_more_selectors,omitempty"`

	MaxPages   int   `yaml:"max_pages"`
	MaxScrolls int   `yaml:"max_scrolls"`
	Waits      Waits `yaml:"waits"`
}

// withDefaults backfills zero-valued fields from the generic profile so YAML
// overlays only need to state what differs.
func (p Profile) withDefaults() Profile {
	d := genericProfile
	if p.PageType == "" {
		p.PageType = d.PageType
	}
	if p.Pagination == "" {
		p.Pagination = d.Pagination
	}
	if len(p.JobSelectors) == 0 {
		p.JobSelectors = d.JobSelectors
	}
	if len(p.TitleSelectors) == 0 {
		p.TitleSelectors = d.TitleSelectors
	}
	if len(p.CompanySelectors) == 0 {
		p.CompanySelectors = d.CompanySelectors
	}
	if len(p.LocationSelectors) == 0 {
		p.LocationSelectors = d.LocationSelectors
	}
	if len(p.DescriptionSelectors) == 0 {
		p.DescriptionSelectors = d.DescriptionSelectors
	}
	if len(p.LinkSelectors) == 0 {
		p.LinkSelectors = d.LinkSelectors
	}
	if len(p.CookieAcceptSelectors) == 0 {
		p.CookieAcceptSelectors = d.CookieAcceptSelectors
	}
	if len(p.ModalSelectors) == 0 {
		p.ModalSelectors = d.ModalSelectors
	}
	if len(p.ModalCloseSelectors) == 0 {
		p.ModalCloseSelectors = d.ModalCloseSelectors
	}
	if len(p.SearchInputSelectors) == 0 {
		p.SearchInputSelectors = d.SearchInputSelectors
	}
	if len(p.SearchButtonSelectors) == 0 {
		p.SearchButtonSelectors = d.SearchButtonSelectors
	}
	if len(p.NextPageSelectors) == 0 {
		p.NextPageSelectors = d.NextPageSelectors
	}
	if len(p.LoadMoreSelectors) == 0 {
		p.LoadMoreSelectors = d.LoadMoreSelectors
	}
	if p.MaxPages <= 0 {
		p.MaxPages = d.MaxPages
	}
	if p.MaxScrolls <= 0 {
		p.MaxScrolls = d.MaxScrolls
	}
	if p.Waits.Initial <= 0 {
		p.Waits.Initial = d.Waits.Initial
	}
	if p.Waits.Search <= 0 {
		p.Waits.Search = d.Waits.Search
	}
	if p.Waits.Scroll <= 0 {
		p.Waits.Scroll = d.Waits.Scroll
	}
	if p.Waits.PageLoad <= 0 {
		p.Waits.PageLoad = d.Waits.PageLoad
	}
	if p.Waits.Element <= 0 {
		p.Waits.Element = d.Waits.Element
	}
	return p
}

// genericProfile is the fallback for unknown domains.
var genericProfile = Profile{
	Name:       "generic",
	PageType:   PageDirectListing,
	Pagination: PaginationNone,
	JobSelectors: []string{
		`[class*="job-list"]`,
		`[class*="job-item"]`,
		`[class*="job-post"]`,
		`[class*="job-card"]`,
		`[class*="position-list"]`,
		`[class*="opening-list"]`,
		`[class*="vacancy"]`,
		`[data-job-id]`,
		`article[class*="job"]`,
		`li[class*="job"]`,
		`tr[class*="job"]`,
		`.opening`,
		`.position`,
		`.job-listing`,
		`.career-listing`,
	},
	TitleSelectors: []string{
		`[class*="job-title"]`,
		`[class*="title"]`,
		`h2`,
		`h3`,
		`a`,
	},
	CompanySelectors: []string{
		`[class*="company"]`,
		`[class*="employer"]`,
	},
	LocationSelectors: []string{
		`[class*="location"]`,
		`[class*="city"]`,
		`[data-location]`,
	},
	DescriptionSelectors: []string{
		`[class*="description"]`,
		`[class*="summary"]`,
		`[class*="excerpt"]`,
	},
	LinkSelectors: []string{
		`a[href]`,
	},
	CookieAcceptSelectors: []string{
		`button[id*="accept"]`,
		`button[class*="accept"]`,
		`[id*="cookie-accept"]`,
		`[class*="cookie-accept"]`,
		`#onetrust-accept-btn-handler`,
	},
	ModalSelectors: []string{
		`[role="dialog"]`,
		`.modal.show`,
		`[class*="overlay"][class*="open"]`,
	},
	ModalCloseSelectors: []string{
		`[aria-label*="close"]`,
		`button[class*="close"]`,
		`button[class*="dismiss"]`,
		`.modal-close`,
		`[data-dismiss="modal"]`,
		`button.close`,
	},
	SearchInputSelectors: []string{
		`input[type="search"]`,
		`input[placeholder*="search"]`,
		`input[placeholder*="job"]`,
		`input[name*="search"]`,
		`input[id*="search"]`,
		`input[name*="keyword"]`,
	},
	SearchButtonSelectors: []string{
		`button[type="submit"]`,
		`button[class*="search"]`,
		`input[type="submit"]`,
	},
	NextPageSelectors: []string{
		`a[rel="next"]`,
		`[aria-label*="next"]`,
		`button[class*="next"]`,
		`a[class*="next"]`,
		`.pagination-next`,
	},
	LoadMoreSelectors: []string{
		`button[class*="load-more"]`,
		`button[class*="show-more"]`,
		`a[class*="load-more"]`,
		`[data-load-more]`,
	},
	MaxPages:   5,
	MaxScrolls: 10,
	Waits: Waits{
		Initial:  3000,
		Search:   3000,
		Scroll:   2000,
		PageLoad: 2000,
		Element:  10000,
	},
}

// builtinProfiles covers the major ATS platforms. Selector lists come before
// the generic fallbacks in extraction order.
var builtinProfiles = []Profile{
	{
		Name:         "greenhouse",
		Domains:      []string{"greenhouse.io", "boards.greenhouse.io"},
		PageType:     PageDirectListing,
		Pagination:   PaginationNumbered,
		JobSelectors: []string{`[data-qa="opening"]`, `.opening`},
	},
	{
		Name:         "lever",
		Domains:      []string{"lever.co", "jobs.lever.co"},
		PageType:     PageDirectListing,
		Pagination:   PaginationInfiniteScroll,
		JobSelectors: []string{`.posting`, `.postings-group .posting`},
	},
	{
		Name:         "workday",
		Domains:      []string{"myworkdayjobs.com"},
		PageType:     PageSearchFirst,
		Pagination:   PaginationNumbered,
		JobSelectors: []string{`[data-automation-id="jobTitle"]`, `li[class*="css"] a[data-automation-id]`},
		Waits:        Waits{Initial: 5000},
	},
	{
		Name:         "bamboohr",
		Domains:      []string{"bamboohr.com"},
		PageType:     PageDirectListing,
		Pagination:   PaginationNone,
		JobSelectors: []string{`.BambooHR-ATS-Jobs-Item`, `[class*="BambooHR"] li`},
	},
	{
		Name:         "smartrecruiters",
		Domains:      []string{"smartrecruiters.com", "careers.smartrecruiters.com"},
		PageType:     PageSearchFirst,
		Pagination:   PaginationInfiniteScroll,
		JobSelectors: []string{`.opening-job`, `li.opening-job`},
	},
	{
		Name:         "jobvite",
		Domains:      []string{"jobvite.com", "jobs.jobvite.com"},
		PageType:     PageDirectListing,
		Pagination:   PaginationLoadMore,
		JobSelectors: []string{`.jv-job-list-item`, `table.jv-job-list tr`},
	},
	{
		Name:         "ashby",
		Domains:      []string{"ashbyhq.com", "jobs.ashbyhq.com"},
		PageType:     PageDirectListing,
		Pagination:   PaginationNone,
		JobSelectors: []string{`[class*="JobsList"] a`, `[class*="job-posting"]`},
	},
	{
		Name:         "ultipro",
		Domains:      []string{"ultipro.com", "recruiting.ultipro.com"},
		PageType:     PageDirectListing,
		Pagination:   PaginationInfiniteScroll,
		JobSelectors: []string{`[data-automation="opportunity"]`, `div[class*="job"]`},
		Waits:        Waits{Initial: 5000},
	},
	{
		Name:         "dayforce",
		Domains:      []string{"dayforcehcm.com"},
		PageType:     PageDirectListing,
		Pagination:   PaginationLoadMore,
		JobSelectors: []string{`[class*="job"]`, `[class*="position"]`},
		Waits:        Waits{Initial: 5000},
	},
	{
		Name:         "icims",
		Domains:      []string{"icims.com"},
		PageType:     PageSearchFirst,
		Pagination:   PaginationNumbered,
		JobSelectors: []string{`.iCIMS_JobsTable .row`, `[class*="iCIMS_Job"]`},
	},
}
