package ingest

import (
	"fmt"
	"os"

	"github.com/dgallion1/docscan/internal/docmodel"
)

// ImageReader handles single-image documents. The page points back at the
// source file; preprocessing and OCR happen later in the pipeline.
type ImageReader struct{}

func (r *ImageReader) Read(path, workDir string) ([]docmodel.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not an image", path)
	}
	return []docmodel.Page{{
		Index:     0,
		Label:     pageLabel(path, 1),
		ImagePath: path,
		NeedsOCR:  true,
	}}, nil
}
