package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgallion1/docscan/internal/config"
	"github.com/dgallion1/docscan/internal/docmodel"
	"github.com/dgallion1/docscan/internal/extract"
	"github.com/dgallion1/docscan/internal/imaging"
	"github.com/dgallion1/docscan/internal/ingest"
	"github.com/dgallion1/docscan/internal/ocr"
)

// Orchestrator runs the document pipeline over an input folder.
type Orchestrator struct {
	engine  ocr.Engine
	opts    extract.Options
	imgOpts imaging.Options
	cfg     config.Config
	log     *slog.Logger
	stats   *OCRStats
}

// NewOrchestrator creates the pipeline.
func NewOrchestrator(cfg config.Config, engine ocr.Engine, opts extract.Options, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		engine:  engine,
		opts:    opts,
		imgOpts: imaging.DefaultOptions(),
		cfg:     cfg,
		log:     log,
		stats:   NewOCRStats(),
	}
}

// RunResult carries everything a run produced, in input order.
type RunResult struct {
	Records []docmodel.Record
	Jobs    []JobSnapshot
	OCR     StatsSnapshot
}

// Run processes every supported document in inputDir. Documents are handled
// by cfg.Workers goroutines; records are collected in document order, so the
// output is independent of worker count. An empty folder is not an error:
// the result simply carries no records.
func (o *Orchestrator) Run(ctx context.Context, inputDir string) (*RunResult, error) {
	docs, err := listDocuments(inputDir)
	if err != nil {
		return nil, err
	}
	o.log.Info("starting run", "folder", inputDir, "documents", len(docs), "workers", o.cfg.Workers)

	workDir, err := os.MkdirTemp("", "docscan-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	jobs := make([]*Job, len(docs))
	queue := make(chan *Job, len(docs))
	for i, path := range docs {
		jobs[i] = NewJob(i, path, filepath.Base(path))
		queue <- jobs[i]
	}
	close(queue)

	workers := o.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := NewWorker(o.engine, o.log, o.opts, o.imgOpts, o.cfg.Language, workDir, o.stats)
			for job := range queue {
				select {
				case <-ctx.Done():
					return
				default:
				}
				w.Process(ctx, job)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &RunResult{OCR: o.stats.Snapshot()}
	for _, job := range jobs {
		result.Records = append(result.Records, job.Records()...)
		result.Jobs = append(result.Jobs, job.Snapshot())
	}
	return result, nil
}

// listDocuments returns the supported files in dir, sorted by name.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input folder: %w", err)
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() || !ingest.IsSupported(e.Name()) {
			continue
		}
		docs = append(docs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(docs)
	return docs, nil
}
