// Package search implements keyword-based value extraction over OCR text.
package search

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	numberRe = regexp.MustCompile(`[-+]?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d+)?`)
	alnumRe  = regexp.MustCompile(`\b[A-Za-z0-9]+\b`)
	wordRe   = regexp.MustCompile(`[a-zA-Z]+`)

	spaceRe = regexp.MustCompile(`\s+`)
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips combining marks, so "Número" matches "numero"
// however the OCR pass rendered the accents.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// NormalizeText lowercases, folds accents, and collapses runs of whitespace.
func NormalizeText(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(Fold(s)), " ")
}

// Find looks a term up in text. Explicit patterns for the term are tried
// first; otherwise the first occurrence of the term is located and the value
// is picked out of the following snippet, preferring numbers, then
// alphanumeric tokens, then plain words. Returns empty strings on a miss.
func Find(term, text string, patterns map[string][]string) (key, value string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", ""
	}

	if regexes, ok := patterns[term]; ok {
		for _, r := range regexes {
			re, err := regexp.Compile(`(?is)` + r)
			if err != nil {
				continue
			}
			if m := re.FindStringSubmatch(text); m != nil {
				if len(m) > 1 {
					return term, strings.TrimSpace(m[1])
				}
				return term, strings.TrimSpace(m[0])
			}
		}
	}

	// Fallback search runs over folded text so accents and case never block
	// a match; extracted values come back folded as well.
	folded := Fold(text)
	matched := Fold(term)
	idx := strings.Index(folded, matched)
	if idx < 0 {
		return "", ""
	}

	// Date labels get a date pattern shot before the generic token hunt.
	if looksLikeDateLabel(term) {
		window := folded[idx:]
		if len(window) > 150 {
			window = window[:150]
		}
		if d := dateValueRe.FindString(window); d != "" {
			return matched, d
		}
	}

	snippetRe, err := regexp.Compile(`(?is)` + regexp.QuoteMeta(matched) + `[\s:=-]*(.{0,100})`)
	if err != nil {
		return matched, ""
	}
	m := snippetRe.FindStringSubmatch(folded)
	if m == nil {
		return matched, ""
	}
	snippet := m[1]

	for _, re := range []*regexp.Regexp{numberRe, alnumRe, wordRe} {
		if v := re.FindString(snippet); v != "" {
			return matched, v
		}
	}
	return matched, ""
}

func looksLikeDateLabel(term string) bool {
	t := Fold(term)
	return strings.Contains(t, "fecha") || strings.Contains(t, "date")
}

// Pair is one hop of a chained search.
type Pair struct {
	Key   string
	Value string
}

// Chained performs up to n search hops: the value found for the current term
// becomes the term of the next hop. With n == 0 it is a single Find. The
// chain of hops taken is returned alongside the final result.
func Chained(term, text string, n int, patterns map[string][]string) (key, value string, chain []Pair) {
	if n <= 0 {
		k, v := Find(term, text, patterns)
		if k != "" && v != "" {
			chain = append(chain, Pair{Key: k, Value: v})
		}
		return k, v, chain
	}

	current := term
	var lastValue string
	for range n {
		k, v := Find(current, text, patterns)
		if k == "" || v == "" {
			break
		}
		chain = append(chain, Pair{Key: k, Value: v})
		current = v
		lastValue = v
	}
	if lastValue == "" {
		return "", "", chain
	}
	return term, lastValue, chain
}

// serialLabels are field labels commonly preceding a document's serial,
// folio, invoice, or reference number, in Spanish and English.
var serialLabels = []string{
	"numero de serie", "nº de serie", "no. de serie", "num. de serie",
	"serie", "serial number", "serial", "codigo", "folio", "factura",
	"ticket", "recibo", "orden", "pedido", "documento", "contrato",
	"expediente", "registro", "unique id", "reference", "id",
}

// Serial extracts a serial-like identifier from text. User-supplied "serial"
// patterns take precedence over the built-in label list.
func Serial(text string, patterns map[string][]string) string {
	if regexes, ok := patterns["serial"]; ok {
		for _, r := range regexes {
			re, err := regexp.Compile(`(?i)` + r)
			if err != nil {
				continue
			}
			if m := re.FindStringSubmatch(text); m != nil {
				if len(m) > 1 {
					return strings.TrimSpace(m[1])
				}
				return strings.TrimSpace(m[0])
			}
		}
	}

	folded := Fold(text)
	for _, label := range serialLabels {
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(label) + `\s*[:\-#]?\s*([A-Za-z0-9\-\/]+)`)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(folded); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

var dateValueRe = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}`)

// DateNear finds a date value following the given term in text.
// Supports dd/mm/yyyy, yyyy-mm-dd and short-year variants.
func DateNear(text, term string) string {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term) + `[\s:=-]*(` + dateValueRe.String() + `)`)
	if err != nil {
		return ""
	}
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// NormalizeNumber parses a numeric string that may use either comma or dot
// as the decimal separator. "1.234,56" becomes 1234.56 and "1,5" becomes 1.5.
// ok is false when the string is not numeric.
func NormalizeNumber(s string) (f float64, ok bool) {
	s = strings.ReplaceAll(s, " ", "")
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// Mixed separators: whichever comes last is the decimal point.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
