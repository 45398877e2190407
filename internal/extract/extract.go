// Package extract pulls keyed field values out of processed pages: plain
// text search first, table reconstruction as the fallback.
package extract

import (
	"strings"

	"github.com/dgallion1/docscan/internal/docmodel"
	"github.com/dgallion1/docscan/internal/search"
	"github.com/dgallion1/docscan/internal/tables"
)

// Options configures per-page extraction.
type Options struct {
	// Terms are the keys to search for, in order.
	Terms []string
	// Patterns holds explicit regexes per term (from the keywords file).
	Patterns map[string][]string
	// ContextTerms is the chained-search hop count (0 = direct search).
	ContextTerms int
	// SearchSerials enables serial-number extraction per page.
	SearchSerials bool
	// Trace records the chain of hops on each record.
	Trace bool
	// Tables configures the fallback table detector.
	Tables tables.Config
}

// FromPage extracts records from one page. Text search runs per term; on a
// miss the page's tables are reconstructed and searched instead. Records are
// deduplicated within the page by (key, value).
func FromPage(page docmodel.Page, opts Options) []docmodel.Record {
	var serial string
	if opts.SearchSerials {
		serial = search.Serial(page.Text, opts.Patterns)
	}

	var records []docmodel.Record
	seen := make(map[string]bool)
	add := func(key, value, trace string) bool {
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return false
		}
		sig := key + "\x00" + value
		if seen[sig] {
			return false
		}
		seen[sig] = true
		records = append(records, docmodel.Record{
			Source: page.Label,
			Serial: serial,
			Key:    key,
			Value:  value,
			Trace:  trace,
		})
		return true
	}

	// Tables are reconstructed lazily: only the first term that misses in
	// plain text pays for detection.
	var pageTables []tables.Table
	tablesBuilt := false

	for _, term := range opts.Terms {
		key, value, chain := search.Chained(term, page.Text, opts.ContextTerms, opts.Patterns)
		if key != "" && value != "" {
			add(term, value, formatChain(chain, opts.Trace))
			continue
		}

		if !tablesBuilt {
			pageTables = tables.Extract(page.Fragments, page.Rules, opts.Tables)
			tablesBuilt = true
		}
		for _, t := range pageTables {
			values := matchTerm(t, term)
			found := false
			for _, v := range values {
				if add(term, v, "") {
					found = true
				}
			}
			if found {
				break
			}
		}
	}
	return records
}

func formatChain(chain []search.Pair, trace bool) string {
	if !trace || len(chain) == 0 {
		return ""
	}
	parts := make([]string, len(chain))
	for i, p := range chain {
		parts[i] = p.Key + ":" + p.Value
	}
	return strings.Join(parts, " -> ")
}

// matchTerm searches one table for a term. A header hit returns that
// column's values; otherwise the first cell containing the term is returned
// as-is.
func matchTerm(t tables.Table, term string) []string {
	if len(t.Cells) == 0 {
		return nil
	}
	folded := search.Fold(term)

	header := t.Cells[0]
	for j, h := range header {
		if !strings.Contains(search.Fold(h), folded) {
			continue
		}
		var values []string
		for _, row := range t.Cells[1:] {
			if j < len(row) && strings.TrimSpace(row[j]) != "" {
				values = append(values, strings.TrimSpace(row[j]))
			}
		}
		if len(values) > 0 {
			return values
		}
	}

	for _, row := range t.Cells {
		for _, cell := range row {
			if cell != "" && strings.Contains(search.Fold(cell), folded) {
				return []string{strings.TrimSpace(cell)}
			}
		}
	}
	return nil
}
