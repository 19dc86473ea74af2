package guard

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Paths that establish or clear the session. They skip every check.
const (
	AuthCallbackPath = "/auth/callback"
	ResetCookiesPath = "/auth/reset-cookies"
)

// Rule classifies every path that starts with Prefix.
type Rule struct {
	Prefix             string `yaml:"prefix"`
	RequiresAuth       bool   `yaml:"requires_auth"`
	RequiresOnboarding bool   `yaml:"requires_onboarding"`
}

// Classification is the result of matching a path against the table.
type Classification struct {
	Bypass             bool
	RequiresAuth       bool
	RequiresOnboarding bool
	// Prefix is the matched rule or bypass prefix, empty for unlisted paths.
	Prefix string
}

// Table is the immutable route classification table. Build it once with NewTable,
// DefaultTable or LoadTable and hand it to the guard.
type Table struct {
	rules  []Rule // longest prefix first
	bypass []string
}

// DefaultRules is the route table the application ships with.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/founder-matching", RequiresAuth: true, RequiresOnboarding: true},
		{Prefix: "/academy", RequiresAuth: true, RequiresOnboarding: true},
		{Prefix: "/ai-consultant", RequiresAuth: true, RequiresOnboarding: true},
		{Prefix: "/profile", RequiresAuth: true, RequiresOnboarding: true},
		{Prefix: "/onboarding", RequiresAuth: true},
		{Prefix: "/jobs", RequiresAuth: true},
		{Prefix: "/api/onboarding", RequiresAuth: true},
		{Prefix: "/api/ai-consultant", RequiresAuth: true},
		{Prefix: "/api/chat", RequiresAuth: true},
	}
}

// DefaultBypass lists the prefixes that are never checked.
func DefaultBypass() []string {
	return []string{AuthCallbackPath, ResetCookiesPath}
}

// DefaultTable returns the table built from DefaultRules and DefaultBypass.
func DefaultTable() *Table {
	t, err := NewTable(DefaultRules(), DefaultBypass())
	if err != nil {
		panic(err) // static input
	}
	return t
}

// NewTable validates the rules and builds a table. The auth callback and cookie
// reset prefixes are always bypassed, whatever bypass contains.
func NewTable(rules []Rule, bypass []string) (*Table, error) {
	t := &Table{}

	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if err := validatePrefix(r.Prefix); err != nil {
			return nil, err
		}
		if _, ok := seen[r.Prefix]; ok {
			return nil, fmt.Errorf("duplicate route prefix %q", r.Prefix)
		}
		if r.RequiresOnboarding && !r.RequiresAuth {
			return nil, fmt.Errorf("route %q requires onboarding but not auth", r.Prefix)
		}
		seen[r.Prefix] = struct{}{}
		t.rules = append(t.rules, r)
	}

	bypassSeen := map[string]struct{}{}
	for _, p := range append(DefaultBypass(), bypass...) {
		if err := validatePrefix(p); err != nil {
			return nil, err
		}
		if _, ok := bypassSeen[p]; ok {
			continue
		}
		bypassSeen[p] = struct{}{}
		t.bypass = append(t.bypass, p)
	}

	sort.SliceStable(t.rules, func(i, j int) bool {
		return len(t.rules[i].Prefix) > len(t.rules[j].Prefix)
	})
	sort.SliceStable(t.bypass, func(i, j int) bool {
		return len(t.bypass[i]) > len(t.bypass[j])
	})

	return t, nil
}

func validatePrefix(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("route prefix %q must start with /", p)
	}
	return nil
}

// Classify matches path by plain string prefix. Bypass prefixes win over rules;
// among rules the longest matching prefix wins. Unlisted paths are public.
func (t *Table) Classify(path string) Classification {
	for _, p := range t.bypass {
		if strings.HasPrefix(path, p) {
			return Classification{Bypass: true, Prefix: p}
		}
	}
	for _, r := range t.rules {
		if strings.HasPrefix(path, r.Prefix) {
			return Classification{
				RequiresAuth:       r.RequiresAuth,
				RequiresOnboarding: r.RequiresOnboarding,
				Prefix:             r.Prefix,
			}
		}
	}
	return Classification{}
}

// Rules returns a copy of the rules, longest prefix first.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Bypass returns a copy of the bypass prefixes.
func (t *Table) Bypass() []string {
	return append([]string(nil), t.bypass...)
}

type tableFile struct {
	Bypass []string `yaml:"bypass"`
	Rules  []Rule   `yaml:"rules"`
}

// LoadTable reads a YAML route table. An empty path returns DefaultTable.
//
//	bypass:
//	  - /auth/callback
//	rules:
//	  - prefix: /academy
//	    requires_auth: true
//	    requires_onboarding: true
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	defer file.Close()

	var f tableFile
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse route table %s: %w", path, err)
	}

	t, err := NewTable(f.Rules, f.Bypass)
	if err != nil {
		return nil, fmt.Errorf("route table %s: %w", path, err)
	}
	return t, nil
}
