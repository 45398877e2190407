package extract

import (
	"sort"

	"github.com/dgallion1/docscan/internal/docmodel"
	"github.com/dgallion1/docscan/internal/search"
)

// Aggregate folds records into the summary sheets: numeric values are summed
// per key, everything else is collected as sorted unique strings per key.
func Aggregate(records []docmodel.Record) (summed map[string]float64, strung map[string][]string) {
	summed = make(map[string]float64)
	sets := make(map[string]map[string]bool)

	for _, r := range records {
		if r.Key == "" || r.Value == "" {
			continue
		}
		if n, ok := search.NormalizeNumber(r.Value); ok {
			summed[r.Key] += n
			continue
		}
		if sets[r.Key] == nil {
			sets[r.Key] = make(map[string]bool)
		}
		sets[r.Key][r.Value] = true
	}

	strung = make(map[string][]string, len(sets))
	for key, values := range sets {
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		strung[key] = list
	}
	return summed, strung
}
