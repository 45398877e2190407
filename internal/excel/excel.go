// Package excel writes extraction results to an .xlsx workbook with three
// sheets: Results (one row per record), Summed (numeric totals per key), and
// Strings (unique non-numeric values per key).
package excel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/docscan/internal/docmodel"
)

// Sheet names in the output workbook.
const (
	SheetResults = "Results"
	SheetSummed  = "Summed"
	SheetStrings = "Strings"
)

// EnsureExtension appends .xlsx when the base name lacks it.
func EnsureExtension(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return name
	}
	return name + ".xlsx"
}

// Write saves the workbook to path. Header rows are always written, so a run
// with no records still produces a valid workbook with zero data rows.
func Write(path string, records []docmodel.Record, summed map[string]float64, strung map[string][]string, trace bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return fmt.Errorf("rename results sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummed); err != nil {
		return fmt.Errorf("create summed sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetStrings); err != nil {
		return fmt.Errorf("create strings sheet: %w", err)
	}

	if err := writeResults(f, records, trace); err != nil {
		return err
	}
	if err := writeSummed(f, summed); err != nil {
		return err
	}
	if err := writeStrings(f, strung); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeResults(f *excelize.File, records []docmodel.Record, trace bool) error {
	header := []any{"Document", "Serial", "Key", "Value"}
	if trace {
		header = append(header, "Trace")
	}
	if err := f.SetSheetRow(SheetResults, "A1", &header); err != nil {
		return fmt.Errorf("write results header: %w", err)
	}

	for i, r := range records {
		row := []any{r.Source, r.Serial, r.Key, r.Value}
		if trace {
			row = append(row, r.Trace)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("results row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetResults, cell, &row); err != nil {
			return fmt.Errorf("write results row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeSummed(f *excelize.File, summed map[string]float64) error {
	header := []any{"Key", "Total"}
	if err := f.SetSheetRow(SheetSummed, "A1", &header); err != nil {
		return fmt.Errorf("write summed header: %w", err)
	}
	for i, key := range sortedKeys(summed) {
		row := []any{key, summed[key]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("summed row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetSummed, cell, &row); err != nil {
			return fmt.Errorf("write summed row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeStrings(f *excelize.File, strung map[string][]string) error {
	header := []any{"Key", "Values"}
	if err := f.SetSheetRow(SheetStrings, "A1", &header); err != nil {
		return fmt.Errorf("write strings header: %w", err)
	}
	for i, key := range sortedKeys(strung) {
		row := []any{key, strings.Join(strung[key], ", ")}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("strings row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetStrings, cell, &row); err != nil {
			return fmt.Errorf("write strings row %d: %w", i+2, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
