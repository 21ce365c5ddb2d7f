package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-career-scraper/internal/models"
)

// Apply runs the search, location and job-type filters over a job list with
// AND semantics between them. An empty result is a valid outcome.
func Apply(jobs []models.Job, req models.ScrapeRequest) []models.Job {
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if !MatchesSearch(job, req.Keyword) {
			continue
		}
		if !MatchesLocation(job, req.Location) {
			continue
		}
		if !MatchesJobType(job, req.JobType) {
			continue
		}
		out = append(out, job)
	}
	return out
}

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(strings.TrimSpace(result))
}

// MatchesSearch matches the keyword case-insensitively against any of title,
// description, location, employment type or remote type. Empty fields are
// skipped; an empty keyword matches everything.
func MatchesSearch(job models.Job, keyword string) bool {
	keyword = normalizeText(keyword)
	if keyword == "" {
		return true
	}

	fields := []string{job.Title, job.Description, job.Location, job.EmploymentType, job.RemoteType}
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(normalizeText(f), keyword) {
			return true
		}
	}
	return false
}

// remoteAliases collapse to a single remote marker before matching.
var remoteAliases = []string{"remote", "work from home", "wfh", "telecommute", "telework"}

// countryAliases maps a normalized filter term to location tokens that count
// as a hit. US state codes are appended for the US entries below.
var countryAliases = map[string][]string{
	"usa":            {"united states", "usa", "us"},
	"us":             {"united states", "usa", "us"},
	"united states":  {"united states", "usa", "us"},
	"uk":             {"united kingdom", "uk", "england", "scotland", "wales"},
	"united kingdom": {"united kingdom", "uk", "england", "scotland", "wales"},
	"canada":         {"canada"},
	"pakistan":       {"pakistan", "pk"},
	"india":          {"india"},
	"germany":        {"germany", "deutschland"},
	"australia":      {"australia"},
}

var usStateCodes = []string{
	"al", "ak", "az", "ar", "ca", "co", "ct", "de", "fl", "ga",
	"hi", "id", "il", "in", "ia", "ks", "ky", "la", "me", "md",
	"ma", "mi", "mn", "ms", "mo", "mt", "ne", "nv", "nh", "nj",
	"nm", "ny", "nc", "nd", "oh", "ok", "or", "pa", "ri", "sc",
	"sd", "tn", "tx", "ut", "vt", "va", "wa", "wv", "wi", "wy",
}

var cityAliases = map[string][]string{
	"new york":      {"new york", "nyc"},
	"nyc":           {"new york", "nyc"},
	"san francisco": {"san francisco", "sf"},
	"los angeles":   {"los angeles"},
	"london":        {"london"},
	"toronto":       {"toronto"},
	"berlin":        {"berlin"},
	"bangalore":     {"bangalore", "bengaluru"},
	"lahore":        {"lahore"},
	"karachi":       {"karachi"},
}

func isRemoteAlias(s string) bool {
	for _, a := range remoteAliases {
		if s == a {
			return true
		}
	}
	return false
}

// locationTokens splits a job location into comparable lowercase tokens:
// "Santa Monica, CA US" -> [santa monica ca us].
func locationTokens(loc string) []string {
	loc = normalizeText(loc)
	return strings.FieldsFunc(loc, func(r rune) bool {
		return r == ',' || r == '/' || r == '|' || r == '·' || unicode.IsSpace(r)
	})
}

// MatchesLocation matches a caller-supplied location string against the job's
// location after alias expansion. Jobs without a location pass; remote jobs
// pass any non-remote location filter.
func MatchesLocation(job models.Job, location string) bool {
	location = normalizeText(location)
	if location == "" {
		return true
	}
	if job.Location == "" {
		return true
	}

	jobLoc := normalizeText(job.Location)
	jobIsRemote := strings.Contains(normalizeText(job.RemoteType), "remote")
	for _, a := range remoteAliases {
		if strings.Contains(jobLoc, a) {
			jobIsRemote = true
			break
		}
	}

	//remote filter only matches remote jobs
	if isRemoteAlias(location) {
		return jobIsRemote
	}

	//remote jobs can be done from anywhere
	if jobIsRemote {
		return true
	}

	tokens := locationTokens(job.Location)

	if aliases, ok := countryAliases[location]; ok {
		needles := aliases
		if location == "usa" || location == "us" || location == "united states" {
			needles = append(append([]string{}, aliases...), usStateCodes...)
		}
		for _, needle := range needles {
			if strings.Contains(jobLoc, needle) && len(needle) > 3 {
				return true
			}
			for _, tok := range tokens {
				if tok == needle {
					return true
				}
			}
		}
		return false
	}

	if keywords, ok := cityAliases[location]; ok {
		for _, kw := range keywords {
			if strings.Contains(jobLoc, kw) {
				return true
			}
		}
		return false
	}

	//plain substring fallback for everything else
	return strings.Contains(jobLoc, location)
}

// jobTypeAliases normalize the caller's filter to the remote/hybrid/onsite enum.
var jobTypeAliases = map[string]string{
	"remote":           "remote",
	"work from home":   "remote",
	"wfh":              "remote",
	"telecommute":      "remote",
	"telework":         "remote",
	"hybrid":           "hybrid",
	"partially remote": "hybrid",
	"flexible":         "hybrid",
	"onsite":           "onsite",
	"on-site":          "onsite",
	"on site":          "onsite",
	"office":           "onsite",
	"in-person":        "onsite",
	"in person":        "onsite",
}

var jobTypeKeywords = map[string][]string{
	"remote": {"remote", "work from home", "wfh", "telecommute"},
	"hybrid": {"hybrid", "partially remote", "flexible"},
	"onsite": {"onsite", "on-site", "on site", "in-person", "office"},
}

// MatchesJobType normalizes the filter to remote|hybrid|onsite and matches it
// against the job's remote type, falling back to title/description keywords.
// Unknown filter values do not exclude anything.
func MatchesJobType(job models.Job, jobType string) bool {
	jobType = normalizeText(jobType)
	if jobType == "" {
		return true
	}

	canonical, ok := jobTypeAliases[jobType]
	if !ok {
		return true
	}

	remote := normalizeText(job.RemoteType)
	title := normalizeText(job.Title)
	desc := normalizeText(job.Description)

	for _, kw := range jobTypeKeywords[canonical] {
		if strings.Contains(remote, kw) || strings.Contains(title, kw) || strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
