package models

// Job is a single extracted job posting. Fields beyond Title/URL are
// best-effort and may be empty depending on what the page exposes.
type Job struct {
	Title          string   `json:"title"`
	Company        string   `json:"company,omitempty"`
	Location       string   `json:"location,omitempty"`
	URL            string   `json:"url"`
	Description    string   `json:"description,omitempty"`
	SalaryRange    string   `json:"salary_range,omitempty"`
	EmploymentType string   `json:"employment_type,omitempty"` //Full-time, Part-time, Contract, Internship
	RemoteType     string   `json:"remote_type,omitempty"`     //Remote, Hybrid, On-site
	PostedDate     string   `json:"posted_date,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Benefits       []string `json:"benefits,omitempty"`
	JobID          string   `json:"job_id,omitempty"`
	Source         string   `json:"source,omitempty"`
}

// ScrapeRequest describes one scrape of a career page. Only URL is required.
type ScrapeRequest struct {
	URL        string `json:"url"`
	MaxResults int    `json:"max_results"`
	Keyword    string `json:"keyword,omitempty"`
	Location   string `json:"location,omitempty"`
	JobType    string `json:"job_type,omitempty"` //remote, hybrid, onsite
}

// WithDefaults fills in the default result cap.
func (r ScrapeRequest) WithDefaults() ScrapeRequest {
	if r.MaxResults <= 0 {
		r.MaxResults = 20
	}
	return r
}
