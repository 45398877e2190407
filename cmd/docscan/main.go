// Package main provides the CLI entry point for docscan.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docscan/internal/config"
	"github.com/dgallion1/docscan/internal/excel"
	"github.com/dgallion1/docscan/internal/extract"
	"github.com/dgallion1/docscan/internal/keywords"
	"github.com/dgallion1/docscan/internal/ocr"
	"github.com/dgallion1/docscan/internal/pipeline"
	"github.com/dgallion1/docscan/internal/report"
	"github.com/dgallion1/docscan/internal/tables"
)

const logFileName = "docscan.log"

func main() {
	cfg := config.Defaults()

	rootCmd := &cobra.Command{
		Use:   "docscan",
		Short: "Extract fields and tables from scanned documents into a spreadsheet",
		Long: `docscan pipes a folder of scanned documents (images and PDFs) through
image cleanup, OCR, and table extraction, searches the recognized text for
the configured keywords, and writes the results to an .xlsx workbook.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&cfg.Location, "location", "l", "", "Base directory (relative values resolve under the home directory)")
	flags.StringVarP(&cfg.Folder, "folder", "f", "", "Name of the folder containing the documents")
	flags.StringVarP(&cfg.Excel, "excel", "e", "", "Name of the output Excel file")
	flags.StringVarP(&cfg.DocType, "doc-type", "d", "", "Document type to process (selects a keywords profile)")
	flags.IntVarP(&cfg.ContextTerms, "context-terms", "n", 0, "Number of chained terms between a keyword and its value")
	flags.BoolVarP(&cfg.Serials, "serials", "s", false, "Enable serial-number search")
	flags.StringVarP(&cfg.ExtraTerms, "extra-terms", "x", "", "Additional search terms, comma separated")
	flags.StringVarP(&cfg.Language, "language", "g", cfg.Language, "OCR language")
	flags.BoolVarP(&cfg.Trace, "trace", "t", false, "Record the chain of terms found per match")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Quiet mode: only errors on the console")
	flags.StringVar(&cfg.KeywordsPath, "keywords", cfg.KeywordsPath, "Path to the keywords JSON file")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Document worker count")
	flags.BoolVar(&cfg.Report, "report", false, "Write an HTML run report next to the workbook")

	for _, name := range []string{"location", "folder", "excel", "doc-type"} {
		_ = rootCmd.MarkFlagRequired(name)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	log, closeLog := newLogger(cfg.Quiet)
	defer closeLog()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	kwPath, err := keywords.Locate(cfg.KeywordsPath)
	if err != nil {
		return err
	}
	set, err := keywords.Load(kwPath)
	if err != nil {
		return err
	}
	profile, ok := set[cfg.DocType]
	if !ok {
		return fmt.Errorf("unknown doc type %q; configured types: %s",
			cfg.DocType, strings.Join(set.DocTypes(), ", "))
	}
	terms := keywords.SearchTerms(profile, cfg.ExtraTerms)
	log.Info("search terms resolved", "doc_type", cfg.DocType, "terms", terms)

	inputDir, err := cfg.InputDir()
	if err != nil {
		return err
	}

	opts := extract.Options{
		Terms:         terms,
		Patterns:      profile.Patterns,
		ContextTerms:  cfg.ContextTerms,
		SearchSerials: cfg.Serials,
		Trace:         cfg.Trace,
		Tables:        tables.DefaultConfig(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	orch := pipeline.NewOrchestrator(cfg, ocr.NewTesseractEngine(), opts, log)
	res, err := orch.Run(ctx, inputDir)
	if err != nil {
		return err
	}

	summed, strung := extract.Aggregate(res.Records)
	outPath := excel.EnsureExtension(cfg.Excel)
	if err := excel.Write(outPath, res.Records, summed, strung, cfg.Trace); err != nil {
		// A workbook that cannot be written makes the whole run worthless.
		log.Error("workbook write failed", "path", outPath, "error", err)
		return err
	}
	log.Info("results saved", "workbook", outPath, "records", len(res.Records))

	if cfg.Report {
		reportPath := strings.TrimSuffix(outPath, ".xlsx") + "_report.html"
		info := report.RunInfo{
			DocType:  cfg.DocType,
			Folder:   inputDir,
			Workbook: outPath,
			Started:  started,
			Duration: time.Since(started),
			Records:  len(res.Records),
			Jobs:     res.Jobs,
			OCR:      res.OCR,
		}
		if err := report.Write(reportPath, info); err != nil {
			log.Error("report write failed", "path", reportPath, "error", err)
		} else {
			log.Info("report saved", "path", reportPath)
		}
	}
	return nil
}

// newLogger wires slog to both the console and the log file. Quiet mode
// raises the console threshold to errors; the file always gets the full run.
func newLogger(quiet bool) (*slog.Logger, func()) {
	f, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log := slog.New(consoleHandler(os.Stderr, quiet))
		log.Warn("log file unavailable, console only", "error", err)
		return log, func() {}
	}
	return buildLogger(os.Stderr, f, quiet), func() { f.Close() }
}

// buildLogger tees records to the console (level depends on quiet) and the
// log file (always info).
func buildLogger(console, file io.Writer, quiet bool) *slog.Logger {
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(teeHandler{handlers: []slog.Handler{fileHandler, consoleHandler(console, quiet)}})
}

func consoleHandler(w io.Writer, quiet bool) slog.Handler {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// teeHandler fans records out to several slog handlers.
type teeHandler struct {
	handlers []slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return teeHandler{handlers: hs}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		hs[i] = h.WithGroup(name)
	}
	return teeHandler{handlers: hs}
}
