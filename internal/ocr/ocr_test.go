package ocr

import (
	"context"
	"errors"
	"testing"
)

func TestRetryableError_Unwraps(t *testing.T) {
	cause := errors.New("tessdata locked")
	err := &RetryableError{Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected RetryableError to unwrap to its cause")
	}
	var target *RetryableError
	if !errors.As(error(err), &target) {
		t.Error("errors.As failed on RetryableError")
	}
}

func TestTesseractEngine_Name(t *testing.T) {
	if NewTesseractEngine().Name() != "tesseract" {
		t.Error("unexpected engine name")
	}
}

func TestTesseractEngine_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTesseractEngine().Recognize(ctx, Input{Path: "x.png"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
