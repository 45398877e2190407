// Package ocr defines the OCR engine contract and its Tesseract
// implementation. Tesseract must be installed on the system:
//
//	apt-get install tesseract-ocr   (Debian/Ubuntu)
//	brew install tesseract          (macOS)
package ocr

import (
	"context"
	"fmt"
)

// Input is one page image submitted for recognition.
type Input struct {
	// Path is the location of the (preprocessed) page image.
	Path string
	// Language is the Tesseract language code, e.g. "spa" or "spa+eng".
	Language string
}

// Word is a single recognized token with its pixel bounding box.
type Word struct {
	Text       string
	X, Y       float64
	W, H       float64
	Confidence float64
}

// Result is the recognition output for one page image.
type Result struct {
	Text  string
	Words []Word
}

// Engine recognizes text in page images. Implementations must be safe for
// sequential reuse; the pipeline gives each worker its own engine instance.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// RetryableError indicates a transient engine failure worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("transient ocr failure: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}
