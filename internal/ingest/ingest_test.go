package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestForFile_Routing(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"scan.png", "*ingest.ImageReader"},
		{"scan.JPG", "*ingest.ImageReader"},
		{"doc.pdf", "*ingest.PDFReader"},
		{"doc.PDF", "*ingest.PDFReader"},
		{"memo.docx", "*ingest.DOCXReader"},
	}
	for _, c := range cases {
		r, err := ForFile(c.name)
		if err != nil {
			t.Errorf("ForFile(%q): %v", c.name, err)
			continue
		}
		switch c.want {
		case "*ingest.ImageReader":
			if _, ok := r.(*ImageReader); !ok {
				t.Errorf("ForFile(%q) = %T", c.name, r)
			}
		case "*ingest.PDFReader":
			if _, ok := r.(*PDFReader); !ok {
				t.Errorf("ForFile(%q) = %T", c.name, r)
			}
		case "*ingest.DOCXReader":
			if _, ok := r.(*DOCXReader); !ok {
				t.Errorf("ForFile(%q) = %T", c.name, r)
			}
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	for _, name := range []string{"notes.txt", "archive.zip", "noext"} {
		if _, err := ForFile(name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("a.png") || !IsSupported("b.TIFF") || !IsSupported("c.docx") {
		t.Error("expected supported extensions to pass")
	}
	if IsSupported("d.txt") || IsSupported("e") {
		t.Error("expected unsupported extensions to fail")
	}
}

func TestPageLabel(t *testing.T) {
	got := pageLabel("/tmp/in/factura 01.pdf", 3)
	if got != "factura 01_pdf_page_3" {
		t.Errorf("got %q", got)
	}
}

func TestPageLabel_DistinctAcrossExtensions(t *testing.T) {
	png := pageLabel("/in/a.png", 1)
	jpg := pageLabel("/in/a.jpg", 1)
	if png == jpg {
		t.Errorf("same-stem files share label %q", png)
	}
}

func TestImageReader_SinglePage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	if err := os.WriteFile(path, []byte("not-a-real-png"), 0o644); err != nil {
		t.Fatal(err)
	}

	pages, err := (&ImageReader{}).Read(path, dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	p := pages[0]
	if !p.NeedsOCR || p.ImagePath != path || p.Label != "scan_png_page_1" {
		t.Errorf("unexpected page %+v", p)
	}
}

func TestImageReader_MissingFile(t *testing.T) {
	_, err := (&ImageReader{}).Read(filepath.Join(t.TempDir(), "nope.png"), "")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImageReader_Directory(t *testing.T) {
	dir := t.TempDir()
	if _, err := (&ImageReader{}).Read(dir, ""); err == nil {
		t.Fatal("expected error for directory input")
	}
}
