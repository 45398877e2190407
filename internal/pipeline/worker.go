package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docscan/internal/docmodel"
	"github.com/dgallion1/docscan/internal/extract"
	"github.com/dgallion1/docscan/internal/imaging"
	"github.com/dgallion1/docscan/internal/ingest"
	"github.com/dgallion1/docscan/internal/ocr"
)

// Worker processes one document job at a time: ingest, preprocess + OCR
// where needed, then term extraction per page.
type Worker struct {
	engine   ocr.Engine
	log      *slog.Logger
	opts     extract.Options
	imgOpts  imaging.Options
	language string
	workDir  string
	stats    *OCRStats
}

func NewWorker(engine ocr.Engine, log *slog.Logger, opts extract.Options, imgOpts imaging.Options, language, workDir string, stats *OCRStats) *Worker {
	return &Worker{
		engine:   engine,
		log:      log,
		opts:     opts,
		imgOpts:  imgOpts,
		language: language,
		workDir:  workDir,
		stats:    stats,
	}
}

// Process runs the full extraction pipeline for a job. Page-level failures
// are recorded on the job and skipped; only a document that produces nothing
// at all is marked failed.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("document", job.Document)

	job.SetStatus(StatusIngesting, "ingest")
	reader, err := ingest.ForFile(job.Path)
	if err != nil {
		log.Error("unsupported document", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "ingest")
		return
	}

	pages, err := reader.Read(job.Path, w.workDir)
	if err != nil {
		log.Error("ingest failed", "error", err)
		job.AddError(fmt.Sprintf("ingest: %s", err))
		job.SetStatus(StatusFailed, "ingest")
		return
	}
	job.SetPages(len(pages))
	log.Info("ingested document", "pages", len(pages))

	hadErrors := false
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, "canceled")
			return
		}

		if page.NeedsOCR {
			job.SetStatus(StatusRecognizing, "ocr")
			if err := w.recognizePage(ctx, &page); err != nil {
				log.Error("page recognition failed", "page", page.Label, "error", err)
				job.AddError(fmt.Sprintf("%s: %s", page.Label, err))
				hadErrors = true
				continue
			}
		}

		job.SetStatus(StatusSearching, "search")
		recs := extract.FromPage(page, w.opts)
		job.AddRecords(recs)
		job.IncrPagesDone()
		log.Info("page processed", "page", page.Label, "records", len(recs))
	}

	snapshot := job.Snapshot()
	switch {
	case snapshot.Progress.PagesDone == 0:
		job.SetStatus(StatusFailed, "done")
	case hadErrors:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

// recognizePage cleans the page image and runs OCR over it, retrying
// transient engine failures with backoff. The page is updated in place with
// the recognized text, word fragments, and detected ruling lines.
func (w *Worker) recognizePage(ctx context.Context, page *docmodel.Page) error {
	cleanPath, rules, err := imaging.Clean(page.ImagePath, w.workDir, w.imgOpts)
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}

	in := ocr.Input{Path: cleanPath, Language: w.language}
	var res ocr.Result
	var lastErr error
	for attempt := range MaxRetries {
		start := time.Now()
		res, lastErr = w.engine.Recognize(ctx, in)
		if w.stats != nil {
			w.stats.Record(time.Since(start).Milliseconds())
		}
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable ocr error", "page", page.Label, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if lastErr != nil {
		return fmt.Errorf("ocr: %w", lastErr)
	}

	page.Text = strings.ToLower(res.Text)
	page.Rules = rules
	page.Fragments = page.Fragments[:0]
	for _, word := range res.Words {
		page.Fragments = append(page.Fragments, docmodel.Fragment{
			Text: word.Text,
			X:    word.X,
			Y:    word.Y,
			W:    word.W,
			H:    word.H,
		})
	}
	return nil
}
