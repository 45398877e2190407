package excel

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/docscan/internal/docmodel"
)

func TestEnsureExtension(t *testing.T) {
	cases := map[string]string{
		"results":      "results.xlsx",
		"results.xlsx": "results.xlsx",
		"RESULTS.XLSX": "RESULTS.XLSX",
	}
	for in, want := range cases {
		if got := EnsureExtension(in); got != want {
			t.Errorf("EnsureExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	records := []docmodel.Record{
		{Source: "a_page_1", Serial: "SN1", Key: "total", Value: "100"},
		{Source: "b_page_1", Serial: "", Key: "cliente", Value: "acme"},
	}
	summed := map[string]float64{"total": 100}
	strung := map[string][]string{"cliente": {"acme"}}

	if err := Write(path, records, summed, strung, false); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{SheetResults, SheetSummed, SheetStrings} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("missing sheet %s", sheet)
		}
	}

	rows, err := f.GetRows(SheetResults)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Document" || rows[0][3] != "Value" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "a_page_1" || rows[1][1] != "SN1" || rows[1][2] != "total" || rows[1][3] != "100" {
		t.Errorf("unexpected record row %v", rows[1])
	}

	summedRows, err := f.GetRows(SheetSummed)
	if err != nil {
		t.Fatalf("read summed: %v", err)
	}
	if len(summedRows) != 2 || summedRows[1][0] != "total" || summedRows[1][1] != "100" {
		t.Errorf("unexpected summed rows %v", summedRows)
	}

	strungRows, err := f.GetRows(SheetStrings)
	if err != nil {
		t.Fatalf("read strings: %v", err)
	}
	if len(strungRows) != 2 || strungRows[1][0] != "cliente" || strungRows[1][1] != "acme" {
		t.Errorf("unexpected strings rows %v", strungRows)
	}
}

func TestWrite_TraceColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	records := []docmodel.Record{
		{Source: "a_page_1", Key: "orden", Value: "5500", Trace: "orden:alfa -> alfa:5500"},
	}
	if err := Write(path, records, nil, nil, true); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetResults)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	if rows[0][4] != "Trace" {
		t.Errorf("expected Trace header, got %v", rows[0])
	}
	if rows[1][4] != "orden:alfa -> alfa:5500" {
		t.Errorf("expected trace cell, got %v", rows[1])
	}
}

func TestWrite_NoRecordsStillValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := Write(path, nil, nil, nil, false); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetResults)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
	if rows[0][2] != "Key" {
		t.Errorf("unexpected header %v", rows[0])
	}
}
