// Package tables recovers tabular structure from positioned text fragments.
//
// Two flavors run per page, mirroring the lattice/stream split of the usual
// PDF table parsers: lattice builds the grid from detected ruling lines,
// stream infers columns from whitespace alignment alone. Duplicate tables
// across flavors are removed by a normalized content signature.
package tables

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docscan/internal/docmodel"
)

// Flavor names, in the order they are attempted.
const (
	FlavorLattice = "lattice"
	FlavorStream  = "stream"
)

// Table is one detected table.
type Table struct {
	Flavor string
	Cells  [][]string
}

// Config holds detection parameters.
type Config struct {
	// MinRows and MinCols are the smallest dimensions worth reporting.
	MinRows int
	MinCols int
	// RowToleranceFactor scales the median fragment height into the vertical
	// tolerance used to group fragments into rows.
	RowToleranceFactor float64
	// ColGapFactor scales the median fragment height into the minimum
	// horizontal whitespace treated as a column separator (stream flavor).
	ColGapFactor float64
}

// DefaultConfig returns default detection parameters.
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		RowToleranceFactor: 0.6,
		ColGapFactor:       1.5,
	}
}

// Extract runs both flavors over a page and returns the deduplicated tables.
func Extract(frags []docmodel.Fragment, rules []docmodel.Rule, cfg Config) []Table {
	var out []Table
	if t := lattice(frags, rules, cfg); t != nil {
		out = append(out, *t)
	}
	if t := stream(frags, cfg); t != nil {
		out = append(out, *t)
	}
	return Dedupe(out)
}

// lattice builds a grid from ruling lines and drops fragments into cells by
// their center point. Needs enough lines in both directions to form a grid.
func lattice(frags []docmodel.Fragment, rules []docmodel.Rule, cfg Config) *Table {
	var hs, vs []float64
	var minX, maxX, minY, maxY float64
	first := true
	for _, r := range rules {
		if r.Horizontal {
			hs = append(hs, r.Y1)
		} else {
			vs = append(vs, r.X1)
		}
		if first {
			minX, maxX, minY, maxY = r.X1, r.X2, r.Y1, r.Y2
			first = false
		}
		minX = min(minX, r.X1)
		maxX = max(maxX, r.X2)
		minY = min(minY, r.Y1)
		maxY = max(maxY, r.Y2)
	}
	if len(hs) < cfg.MinRows+1 || len(vs) < cfg.MinCols+1 {
		return nil
	}
	sort.Float64s(hs)
	sort.Float64s(vs)

	rows := len(hs) - 1
	cols := len(vs) - 1
	cells := make([][][]docmodel.Fragment, rows)
	for i := range cells {
		cells[i] = make([][]docmodel.Fragment, cols)
	}

	for _, f := range frags {
		cx := f.X + f.W/2
		cy := f.Y + f.H/2
		if cx < minX || cx > maxX || cy < minY || cy > maxY {
			continue
		}
		ri := band(hs, cy)
		ci := band(vs, cx)
		if ri < 0 || ci < 0 {
			continue
		}
		cells[ri][ci] = append(cells[ri][ci], f)
	}

	t := &Table{Flavor: FlavorLattice, Cells: make([][]string, rows)}
	occupied := 0
	for i := range cells {
		t.Cells[i] = make([]string, cols)
		for j := range cells[i] {
			t.Cells[i][j] = joinFragments(cells[i][j])
			if t.Cells[i][j] != "" {
				occupied++
			}
		}
	}
	if occupied < cfg.MinRows*cfg.MinCols {
		return nil
	}
	return t
}

// band returns the index of the interval of sorted bounds containing v,
// or -1 when v falls outside.
func band(bounds []float64, v float64) int {
	for i := 0; i < len(bounds)-1; i++ {
		if v >= bounds[i] && v < bounds[i+1] {
			return i
		}
	}
	return -1
}

// stream groups fragments into rows by vertical proximity, then splits rows
// into columns along whitespace gaps shared across the page.
func stream(frags []docmodel.Fragment, cfg Config) *Table {
	if len(frags) < cfg.MinRows*cfg.MinCols {
		return nil
	}

	medianH := medianHeight(frags)
	if medianH <= 0 {
		return nil
	}
	rowTol := medianH * cfg.RowToleranceFactor
	minGap := medianH * cfg.ColGapFactor

	rows := groupRows(frags, rowTol)
	if len(rows) < cfg.MinRows {
		return nil
	}

	seps := columnSeparators(rows, minGap)
	if len(seps) < cfg.MinCols-1 {
		return nil
	}

	t := &Table{Flavor: FlavorStream}
	for _, row := range rows {
		cells := make([][]docmodel.Fragment, len(seps)+1)
		for _, f := range row {
			ci := 0
			cx := f.X + f.W/2
			for _, s := range seps {
				if cx > s {
					ci++
				}
			}
			cells[ci] = append(cells[ci], f)
		}
		line := make([]string, len(cells))
		for j := range cells {
			line[j] = joinFragments(cells[j])
		}
		t.Cells = append(t.Cells, line)
	}
	return t
}

// groupRows clusters fragments whose vertical centers are within tol of the
// running row center, top to bottom.
func groupRows(frags []docmodel.Fragment, tol float64) [][]docmodel.Fragment {
	sorted := make([]docmodel.Fragment, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool {
		ci := sorted[i].Y + sorted[i].H/2
		cj := sorted[j].Y + sorted[j].H/2
		if ci != cj {
			return ci < cj
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]docmodel.Fragment
	var current []docmodel.Fragment
	var rowCenter float64
	for _, f := range sorted {
		c := f.Y + f.H/2
		if current == nil {
			current = []docmodel.Fragment{f}
			rowCenter = c
			continue
		}
		if c-rowCenter <= tol {
			current = append(current, f)
			rowCenter = (rowCenter*float64(len(current)-1) + c) / float64(len(current))
		} else {
			rows = append(rows, sortRow(current))
			current = []docmodel.Fragment{f}
			rowCenter = c
		}
	}
	if current != nil {
		rows = append(rows, sortRow(current))
	}
	return rows
}

func sortRow(row []docmodel.Fragment) []docmodel.Fragment {
	sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })
	return row
}

// columnSeparators finds x positions where no row has ink, wide enough to
// count as a column gap. Gaps are computed against the merged horizontal
// coverage of all rows.
func columnSeparators(rows [][]docmodel.Fragment, minGap float64) []float64 {
	type span struct{ lo, hi float64 }
	var spans []span
	for _, row := range rows {
		for _, f := range row {
			spans = append(spans, span{f.X, f.X + f.W})
		}
	}
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })

	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.lo <= last.hi {
			if s.hi > last.hi {
				last.hi = s.hi
			}
		} else {
			merged = append(merged, s)
		}
	}

	var seps []float64
	for i := 0; i < len(merged)-1; i++ {
		gap := merged[i+1].lo - merged[i].hi
		if gap >= minGap {
			seps = append(seps, merged[i].hi+gap/2)
		}
	}
	return seps
}

func medianHeight(frags []docmodel.Fragment) float64 {
	hs := make([]float64, 0, len(frags))
	for _, f := range frags {
		if f.H > 0 {
			hs = append(hs, f.H)
		}
	}
	if len(hs) == 0 {
		return 0
	}
	sort.Float64s(hs)
	return hs[len(hs)/2]
}

func joinFragments(frags []docmodel.Fragment) string {
	if len(frags) == 0 {
		return ""
	}
	sorted := sortRow(append([]docmodel.Fragment(nil), frags...))
	parts := make([]string, 0, len(sorted))
	for _, f := range sorted {
		if s := strings.TrimSpace(f.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// signatureRows caps how much of a table feeds its dedup signature.
const signatureRows = 8

var sigSpaceRe = regexp.MustCompile(`\s+`)

// Signature returns a content hash of the table's first rows, normalized so
// the same table found by both flavors hashes identically.
func Signature(t Table) string {
	h := sha256.New()
	n := min(len(t.Cells), signatureRows)
	for _, row := range t.Cells[:n] {
		for _, cell := range row {
			norm := strings.ToLower(strings.TrimSpace(sigSpaceRe.ReplaceAllString(cell, " ")))
			fmt.Fprintf(h, "%s|", norm)
		}
		fmt.Fprint(h, "\n")
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Dedupe drops tables whose signature was already seen, preserving order.
func Dedupe(ts []Table) []Table {
	seen := make(map[string]bool, len(ts))
	out := ts[:0]
	for _, t := range ts {
		sig := Signature(t)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, t)
	}
	return out
}
