// Package registry holds the static catalog of agencies the pipeline
// crawls: identifier, display name, county, and per-agency extractor
// configuration. The registry is loaded once per run and passed
// explicitly — it is immutable and never an ambient global.
package registry

import (
	"os"
	"sort"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/opencivic/meetingfeed/pkg/errors"
)

// Agency is the metadata for one crawl target.
type Agency struct {
	// ID is the stable agency identifier used in identity keys.
	ID string `yaml:"id" json:"id"`

	// Name is the full display name.
	Name string `yaml:"name" json:"name"`

	County string `yaml:"county,omitempty" json:"county,omitempty"`
	State  string `yaml:"state,omitempty" json:"state,omitempty"`

	// Timezone overrides the regional default for this agency.
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`

	// BaseURL is the root of the agency's site.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// StartURLs are the pages the extractor should fetch.
	StartURLs []string `yaml:"start_urls,omitempty" json:"start_urls,omitempty"`

	// Settings carries arbitrary per-agency extractor configuration
	// (CSS selectors, calendar filter IDs, keywords).
	Settings map[string]string `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// Validate checks the agency carries the required metadata.
func (a *Agency) Validate() error {
	if a.ID == "" {
		return errors.NewValidationError("id", "", "agency has no identifier")
	}
	if a.Name == "" {
		return errors.NewValidationError("name", a.ID, "agency has no display name")
	}
	if a.Timezone != "" {
		if _, err := time.LoadLocation(a.Timezone); err != nil {
			return errors.NewValidationError("timezone", a.Timezone, "unknown IANA zone name")
		}
	}
	return nil
}

// Location resolves the agency's timezone override, or returns nil when
// the agency uses the regional default. The zone name was validated at
// registry construction.
func (a *Agency) Location() *time.Location {
	if a.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil
	}
	return loc
}

// Setting returns a per-agency setting, or the given default.
func (a *Agency) Setting(key, def string) string {
	if v, ok := a.Settings[key]; ok {
		return v
	}
	return def
}

// Registry is an immutable set of agencies keyed by ID.
type Registry struct {
	agencies map[string]Agency
}

// New builds a registry from a list of agencies, rejecting duplicates
// and invalid entries.
func New(agencies []Agency) (*Registry, error) {
	r := &Registry{agencies: make(map[string]Agency, len(agencies))}
	for _, a := range agencies {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.agencies[a.ID]; exists {
			return nil, errors.NewValidationError("id", a.ID, "duplicate agency identifier")
		}
		r.agencies[a.ID] = a
	}
	return r, nil
}

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var file struct {
		Agencies []Agency `yaml:"agencies"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("yaml", "registry", err)
	}
	return New(file.Agencies)
}

// Get returns an agency by ID.
func (r *Registry) Get(id string) (Agency, bool) {
	a, ok := r.agencies[id]
	return a, ok
}

// List returns all agencies ordered by ID.
func (r *Registry) List() []Agency {
	out := make([]Agency, 0, len(r.agencies))
	for _, a := range r.agencies {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns all agency IDs, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.agencies))
	for id := range r.agencies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subset returns a registry holding only the named agencies.
func (r *Registry) Subset(ids []string) (*Registry, error) {
	out := make([]Agency, 0, len(ids))
	for _, id := range ids {
		a, ok := r.agencies[id]
		if !ok {
			return nil, errors.NewNotFoundError("agency", id)
		}
		out = append(out, a)
	}
	return New(out)
}

// Len returns the number of agencies.
func (r *Registry) Len() int {
	return len(r.agencies)
}
