package profile

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry maps target URLs to scraping profiles. It is immutable after
// construction and safe for concurrent lookups.
type Registry struct {
	exact   map[string]*Profile //full hostname match
	suffix  []*suffixRule       //subdomain/suffix match, longest pattern wins
	generic Profile
}

type suffixRule struct {
	pattern string
	profile *Profile
}

// NewRegistry builds a registry from the builtin platform catalog.
func NewRegistry() *Registry {
	r := &Registry{
		exact:   make(map[string]*Profile),
		generic: genericProfile,
	}
	for _, p := range builtinProfiles {
		r.add(p)
	}
	return r
}

// NewRegistryFromFile layers YAML overlay profiles on top of the builtins.
// Overlay entries with the same name replace builtin ones.
func NewRegistryFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var overlay struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	r := NewRegistry()
	for _, p := range overlay.Profiles {
		if p.Name == "" || len(p.Domains) == 0 {
			return nil, fmt.Errorf("profile entries need a name and at least one domain")
		}
		r.add(p)
	}
	return r, nil
}

func (r *Registry) add(p Profile) {
	filled := p.withDefaults()
	for _, d := range p.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		r.exact[d] = &filled
		r.suffix = append(r.suffix, &suffixRule{pattern: d, profile: &filled})
	}
}

// Resolve returns the profile for a target URL. Precedence: exact hostname
// match, then longest domain-suffix match, then the generic default. Resolve
// never fails; unparseable URLs get the generic profile.
func (r *Registry) Resolve(target string) *Profile {
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		p := r.generic
		return &p
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if p, ok := r.exact[host]; ok {
		return p
	}

	var best *suffixRule
	for _, rule := range r.suffix {
		if host == rule.pattern || strings.HasSuffix(host, "."+rule.pattern) {
			if best == nil || len(rule.pattern) > len(best.pattern) {
				best = rule
			}
		}
	}
	if best != nil {
		return best.profile
	}

	p := r.generic
	return &p
}
