package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/dgallion1/docscan/internal/docmodel"
)

// PDFReader handles PDF documents. Digital PDFs (with a text layer) yield
// text pages with positioned fragments and skip OCR entirely. Scanned PDFs
// have their embedded page images extracted into workDir for the OCR path.
type PDFReader struct{}

func (r *PDFReader) Read(path, workDir string) ([]docmodel.Page, error) {
	scanned, err := isScanned(path)
	if err != nil {
		return nil, err
	}
	if scanned {
		return readScanned(path, workDir)
	}
	return readTextLayer(path)
}

// isScanned reports whether the PDF has no usable text layer on its first
// page, which is how image-only scans present themselves.
func isScanned(path string) (bool, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return false, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	if reader.NumPage() == 0 {
		return false, fmt.Errorf("pdf has no pages")
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return true, nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return true, nil
	}
	return strings.TrimSpace(text) == "", nil
}

// readTextLayer extracts text and word positions per page.
func readTextLayer(path string) ([]docmodel.Page, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var pages []docmodel.Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}

		frags := pageFragments(page)

		pages = append(pages, docmodel.Page{
			Index:     len(pages),
			Label:     pageLabel(path, i),
			Text:      strings.ToLower(strings.TrimSpace(text)),
			Fragments: frags,
		})
	}
	return pages, nil
}

// pageFragments merges the page's character-level text runs into word
// fragments, with Y flipped so the top of the page sorts first.
func pageFragments(page pdflib.Page) []docmodel.Fragment {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}

	var frags []docmodel.Fragment
	var maxY float64
	for _, row := range rows {
		runs := append([]pdflib.Text(nil), row.Content...)
		sort.Slice(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

		var cur *docmodel.Fragment
		var curEnd float64
		for _, t := range runs {
			if t.S == "" {
				continue
			}
			if t.Y > maxY {
				maxY = t.Y
			}
			gap := t.X - curEnd
			joinGap := t.FontSize * 0.25
			if joinGap < 1 {
				joinGap = 1
			}
			if cur != nil && gap <= joinGap {
				cur.Text += t.S
				curEnd = t.X + t.W
				cur.W = curEnd - cur.X
				continue
			}
			if cur != nil {
				frags = append(frags, *cur)
			}
			cur = &docmodel.Fragment{Text: t.S, X: t.X, Y: t.Y, W: t.W, H: t.FontSize}
			curEnd = t.X + t.W
		}
		if cur != nil {
			frags = append(frags, *cur)
		}
	}

	// PDF space grows upward; the detector expects top-first ordering.
	for i := range frags {
		frags[i].Y = maxY - frags[i].Y
	}
	return frags
}

var pageNumberRe = regexp.MustCompile(`_(\d+)`)

// readScanned extracts embedded page images and queues them for OCR.
func readScanned(path, workDir string) ([]docmodel.Page, error) {
	outDir := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(path), ".pdf")+"_images")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	if err := api.ExtractImagesFile(path, outDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract pdf images: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("list extracted images: %w", err)
	}

	type extracted struct {
		path string
		page int
	}
	var imgs []extracted
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(outDir, e.Name())
		page := 0
		if m := pageNumberRe.FindStringSubmatch(e.Name()); m != nil {
			page, _ = strconv.Atoi(m[1])
		}
		imgs = append(imgs, extracted{path: p, page: page})
	}
	if len(imgs) == 0 {
		return nil, fmt.Errorf("scanned pdf %s contains no extractable images", filepath.Base(path))
	}
	sort.Slice(imgs, func(i, j int) bool {
		if imgs[i].page != imgs[j].page {
			return imgs[i].page < imgs[j].page
		}
		return imgs[i].path < imgs[j].path
	})

	pages := make([]docmodel.Page, 0, len(imgs))
	for i, img := range imgs {
		pages = append(pages, docmodel.Page{
			Index:     i,
			Label:     pageLabel(path, i+1),
			ImagePath: img.path,
			NeedsOCR:  true,
		})
	}
	return pages, nil
}
