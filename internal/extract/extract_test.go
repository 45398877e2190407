package extract

import (
	"math"
	"testing"

	"github.com/dgallion1/docscan/internal/docmodel"
	"github.com/dgallion1/docscan/internal/tables"
)

func defaultOptions(terms ...string) Options {
	return Options{
		Terms:  terms,
		Tables: tables.DefaultConfig(),
	}
}

func TestFromPage_TextHit(t *testing.T) {
	page := docmodel.Page{Label: "doc_page_1", Text: "total: 1500 gracias"}
	records := FromPage(page, defaultOptions("total"))
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Source != "doc_page_1" || r.Key != "total" || r.Value != "1500" {
		t.Errorf("unexpected record %+v", r)
	}
	if r.Serial != "" {
		t.Errorf("serial search was off, got %q", r.Serial)
	}
}

func TestFromPage_SerialAttachedToEveryRecord(t *testing.T) {
	page := docmodel.Page{
		Label: "doc_page_1",
		Text:  "folio: f-12 total: 900 numero de serie: ab999",
	}
	opts := defaultOptions("folio", "total")
	opts.SearchSerials = true
	records := FromPage(page, opts)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		if r.Serial != "AB999" {
			t.Errorf("record %s missing serial, got %q", r.Key, r.Serial)
		}
	}
}

func TestFromPage_SerialSearchNeverDropsRecords(t *testing.T) {
	page := docmodel.Page{Label: "p", Text: "folio: f-12 total: 900"}
	without := FromPage(page, defaultOptions("folio", "total"))

	opts := defaultOptions("folio", "total")
	opts.SearchSerials = true
	with := FromPage(page, opts)

	if len(with) != len(without) {
		t.Errorf("serial search changed record count: %d vs %d", len(with), len(without))
	}
}

func TestFromPage_TableFallback(t *testing.T) {
	// "cantidad" never appears in the plain text, only as a table header.
	frags := []docmodel.Fragment{
		{Text: "articulo", X: 0, Y: 0, W: 40, H: 10},
		{Text: "cantidad", X: 100, Y: 0, W: 40, H: 10},
		{Text: "tornillo", X: 0, Y: 20, W: 40, H: 10},
		{Text: "7", X: 100, Y: 20, W: 40, H: 10},
		{Text: "tuerca", X: 0, Y: 40, W: 40, H: 10},
		{Text: "9", X: 100, Y: 40, W: 40, H: 10},
	}
	page := docmodel.Page{Label: "p", Text: "texto sin columnas", Fragments: frags}
	records := FromPage(page, defaultOptions("cantidad"))
	if len(records) != 2 {
		t.Fatalf("expected 2 column values, got %d: %v", len(records), records)
	}
	if records[0].Value != "7" || records[1].Value != "9" {
		t.Errorf("unexpected values %q, %q", records[0].Value, records[1].Value)
	}
}

func TestFromPage_DedupesByKeyValue(t *testing.T) {
	page := docmodel.Page{Label: "p", Text: "total: 10 y total: 10"}
	records := FromPage(page, defaultOptions("total", "total"))
	if len(records) != 1 {
		t.Errorf("expected 1 record after dedup, got %d", len(records))
	}
}

func TestFromPage_TraceFormatsChain(t *testing.T) {
	page := docmodel.Page{Label: "p", Text: "orden: alfa\nalfa total 5500"}
	opts := Options{
		Terms:        []string{"orden"},
		Patterns:     map[string][]string{"orden": {`orden[:\s-]*(\S+)`}},
		ContextTerms: 2,
		Trace:        true,
		Tables:       tables.DefaultConfig(),
	}
	records := FromPage(page, opts)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	// The Key column carries the configured term; hop keys live in the trace.
	if records[0].Key != "orden" {
		t.Errorf("got key %q", records[0].Key)
	}
	if records[0].Value != "5500" {
		t.Errorf("got value %q", records[0].Value)
	}
	if records[0].Trace != "orden:alfa -> alfa:5500" {
		t.Errorf("got trace %q", records[0].Trace)
	}
}

func TestFromPage_NoTraceWhenDisabled(t *testing.T) {
	page := docmodel.Page{Label: "p", Text: "total: 10"}
	records := FromPage(page, defaultOptions("total"))
	if len(records) != 1 || records[0].Trace != "" {
		t.Errorf("expected empty trace, got %+v", records)
	}
}

func TestMatchTerm_HeaderColumn(t *testing.T) {
	tb := tables.Table{Cells: [][]string{
		{"Artículo", "Precio"},
		{"tornillo", "100"},
		{"tuerca", ""},
	}}
	values := matchTerm(tb, "precio")
	if len(values) != 1 || values[0] != "100" {
		t.Errorf("got %v", values)
	}
}

func TestMatchTerm_CellFallback(t *testing.T) {
	tb := tables.Table{Cells: [][]string{
		{"a", "b"},
		{"total 55", "c"},
	}}
	values := matchTerm(tb, "total")
	if len(values) != 1 || values[0] != "total 55" {
		t.Errorf("got %v", values)
	}
}

func TestAggregate_SumsNumericsAndCollectsStrings(t *testing.T) {
	records := []docmodel.Record{
		{Key: "total", Value: "1.234,56"},
		{Key: "total", Value: "765,44"},
		{Key: "cliente", Value: "acme"},
		{Key: "cliente", Value: "acme"},
		{Key: "cliente", Value: "zeta"},
		{Key: "", Value: "ignored"},
	}
	summed, strung := Aggregate(records)

	if got := summed["total"]; math.Abs(got-2000.0) > 1e-9 {
		t.Errorf("summed total = %v, want 2000", got)
	}
	clients := strung["cliente"]
	if len(clients) != 2 || clients[0] != "acme" || clients[1] != "zeta" {
		t.Errorf("strung cliente = %v", clients)
	}
	if _, ok := summed["cliente"]; ok {
		t.Error("string key leaked into summed map")
	}
}

func TestAggregate_Empty(t *testing.T) {
	summed, strung := Aggregate(nil)
	if len(summed) != 0 || len(strung) != 0 {
		t.Errorf("expected empty maps, got %v %v", summed, strung)
	}
}
