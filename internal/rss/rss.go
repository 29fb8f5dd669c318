package rss

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_sources.yaml
var defaultSources []byte

// HandlePlaceholder is replaced with an account handle in bridge templates.
const HandlePlaceholder = "{handle}"

// Source is one polled news feed.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// Account is a social account read through a bridge.
type Account struct {
	Handle string `yaml:"handle"`
	Name   string `yaml:"name"`
}

// Community is a discussion feed (Reddit, HN).
type Community struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Registry is the full list of places a run reads from.
//
//	feeds:
//	  - {name: ..., url: https://..., category: ...}
//	accounts:
//	  - {handle: ..., name: ...}
//	bridges:
//	  - https://bridge.example/{handle}/rss
type Registry struct {
	Feeds         []Source    `yaml:"feeds"`
	Accounts      []Account   `yaml:"accounts"`
	Bridges       []string    `yaml:"bridges"`
	ProbeHandle   string      `yaml:"probe_handle"`
	Community     []Community `yaml:"community"`
	SearchQueries []string    `yaml:"search_queries"`
}

// DefaultRegistry returns the built-in source list.
func DefaultRegistry() (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(defaultSources, &reg); err != nil {
		return nil, fmt.Errorf("decode built-in sources: %w", err)
	}
	return &reg, nil
}

// LoadRegistry reads a YAML registry from path. Sections the file leaves out
// keep their built-in values. An empty path returns the defaults.
func LoadRegistry(path string) (*Registry, error) {
	reg, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return reg, reg.Validate()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer f.Close()

	var override Registry
	if err := yaml.NewDecoder(f).Decode(&override); err != nil {
		return nil, fmt.Errorf("decode sources file %s: %w", path, err)
	}
	reg.merge(override)
	return reg, reg.Validate()
}

func (r *Registry) merge(o Registry) {
	if o.Feeds != nil {
		r.Feeds = o.Feeds
	}
	if o.Accounts != nil {
		r.Accounts = o.Accounts
	}
	if o.Bridges != nil {
		r.Bridges = o.Bridges
	}
	if o.ProbeHandle != "" {
		r.ProbeHandle = o.ProbeHandle
	}
	if o.Community != nil {
		r.Community = o.Community
	}
	if o.SearchQueries != nil {
		r.SearchQueries = o.SearchQueries
	}
}

// Validate checks every entry has what the fetchers need.
func (r *Registry) Validate() error {
	for i, s := range r.Feeds {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("feed %d: name is required", i)
		}
		if !isHTTP(s.URL) {
			return fmt.Errorf("feed %q: url must be http(s), got %q", s.Name, s.URL)
		}
	}
	for i, a := range r.Accounts {
		if strings.TrimSpace(a.Handle) == "" {
			return fmt.Errorf("account %d: handle is required", i)
		}
	}
	for _, b := range r.Bridges {
		if !isHTTP(b) || !strings.Contains(b, HandlePlaceholder) {
			return fmt.Errorf("bridge %q must be an http(s) url containing %s", b, HandlePlaceholder)
		}
	}
	if len(r.Bridges) > 0 && strings.TrimSpace(r.ProbeHandle) == "" {
		return fmt.Errorf("probe_handle is required when bridges are configured")
	}
	for i, c := range r.Community {
		if strings.TrimSpace(c.Name) == "" || !isHTTP(c.URL) {
			return fmt.Errorf("community feed %d: name and http(s) url are required", i)
		}
	}
	return nil
}

// BridgeURL fills template with handle.
func BridgeURL(template, handle string) string {
	return strings.ReplaceAll(template, HandlePlaceholder, handle)
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
