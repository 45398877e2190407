// Package ingest turns input files into processable pages. Image files map
// to a single page needing OCR; PDFs either surface their text layer or, when
// scanned, have their page images extracted for OCR; .docx files contribute
// their text directly.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docscan/internal/docmodel"
)

// Reader produces the pages of one document. workDir receives any
// intermediate files (extracted page images) and is cleaned up by the caller
// after the run.
type Reader interface {
	Read(path, workDir string) ([]docmodel.Page, error)
}

// SupportedExtensions lists the file extensions this tool can process.
var SupportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".gif":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the reader for a filename.
func ForFile(filename string) (Reader, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".gif":
		return &ImageReader{}, nil
	case ".pdf":
		return &PDFReader{}, nil
	case ".docx":
		return &DOCXReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupported checks whether a file extension is supported.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// pageLabel builds the row identifier for page n (1-based) of a file. The
// extension stays in the stem so same-stem files (a.png, a.jpg) in one folder
// keep distinct labels.
func pageLabel(filename string, n int) string {
	stem := strings.ReplaceAll(filepath.Base(filename), ".", "_")
	return fmt.Sprintf("%s_page_%d", stem, n)
}
