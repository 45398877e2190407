// Package keywords loads the per-document-type search term configuration.
//
// The keywords file is a JSON object keyed by document type. Each type maps
// either to a plain list of terms or to an object of term -> regex list:
//
//	{
//	  "facturas": ["nit", "total"],
//	  "recibos": {"folio": ["(?i)folio[:\\s-]*(\\S+)"]}
//	}
//
// List entries are normalized into a basic capture regex per term. A "serial"
// entry provides patterns for serial-number search.
package keywords

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultFileName is looked up next to the executable and in the working
// directory when no explicit path is given.
const DefaultFileName = "keywords.json"

// Profile holds the search configuration for one document type.
// Terms preserves the order terms should be searched in.
type Profile struct {
	Terms    []string
	Patterns map[string][]string
}

// Set maps document-type tags to their profiles.
type Set map[string]Profile

// Load reads and normalizes a keywords file.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	return Parse(data)
}

// Parse normalizes raw keywords JSON into a Set.
func Parse(data []byte) (Set, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keywords json: %w", err)
	}

	set := make(Set, len(raw))
	for docType, msg := range raw {
		profile, err := parseProfile(msg)
		if err != nil {
			return nil, fmt.Errorf("doc type %q: %w", docType, err)
		}
		set[docType] = profile
	}
	return set, nil
}

func parseProfile(msg json.RawMessage) (Profile, error) {
	// List form: terms get a generated capture regex.
	var terms []string
	if err := json.Unmarshal(msg, &terms); err == nil {
		p := Profile{Patterns: make(map[string][]string, len(terms))}
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			p.Terms = append(p.Terms, term)
			p.Patterns[term] = []string{`(?i)` + regexp.QuoteMeta(term) + `[:\s-]*(\S+)`}
		}
		return p, nil
	}

	// Object form: explicit regex lists per term.
	var patterns map[string][]string
	if err := json.Unmarshal(msg, &patterns); err != nil {
		return Profile{}, fmt.Errorf("expected term list or term->regex object: %w", err)
	}
	p := Profile{Patterns: make(map[string][]string, len(patterns))}
	for term, regexes := range patterns {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		for _, r := range regexes {
			if _, err := regexp.Compile(r); err != nil {
				return Profile{}, fmt.Errorf("term %q: invalid pattern %q: %w", term, r, err)
			}
		}
		p.Terms = append(p.Terms, term)
		p.Patterns[term] = regexes
	}
	// Object keys arrive in map order; sort so runs are deterministic.
	sort.Strings(p.Terms)
	return p, nil
}

// DocTypes returns the configured document types in sorted order.
func (s Set) DocTypes() []string {
	types := make([]string, 0, len(s))
	for t := range s {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// SearchTerms builds the term list for a run: the profile's terms (minus the
// reserved "serial" entry) followed by any comma-separated extras.
func SearchTerms(p Profile, extraTerms string) []string {
	terms := make([]string, 0, len(p.Terms))
	for _, t := range p.Terms {
		if t == "serial" {
			continue
		}
		terms = append(terms, t)
	}
	for _, t := range strings.Split(extraTerms, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Locate resolves the keywords file path: an explicit path wins, then a file
// next to the executable, then the working directory.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("keywords file: %w", err)
		}
		return explicit, nil
	}
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), DefaultFileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName, nil
	}
	return "", fmt.Errorf("keywords file %s not found next to the executable or in the working directory", DefaultFileName)
}
