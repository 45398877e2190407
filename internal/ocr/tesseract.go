package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on top of the gosseract client.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs Tesseract over the image at in.Path and returns the plain
// text plus per-word bounding boxes. A fresh client per call keeps engine
// state from leaking between pages.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImage(in.Path); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	if in.Language != "" {
		langs := strings.Split(in.Language, "+")
		if err := c.SetLanguage(langs...); err != nil {
			return Result{}, fmt.Errorf("set language %q: %w", in.Language, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		// Engine-level text failures are usually transient (locked tessdata,
		// resource exhaustion) rather than bad input.
		return Result{}, &RetryableError{Err: err}
	}

	res := Result{Text: strings.TrimSpace(text)}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Word geometry is optional: without it only table detection on this
		// page is degraded, the plain text still flows through.
		return res, nil
	}
	for _, b := range boxes {
		res.Words = append(res.Words, Word{
			Text:       b.Word,
			X:          float64(b.Box.Min.X),
			Y:          float64(b.Box.Min.Y),
			W:          float64(b.Box.Dx()),
			H:          float64(b.Box.Dy()),
			Confidence: b.Confidence / 100.0,
		})
	}
	return res, nil
}
