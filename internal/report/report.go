// Package report renders an HTML summary of a run: per-document outcomes,
// record counts, errors, and OCR latency figures.
package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/docscan/internal/pipeline"
)

// RunInfo is everything the report needs about a finished run.
type RunInfo struct {
	DocType  string
	Folder   string
	Workbook string
	Started  time.Time
	Duration time.Duration
	Records  int
	Jobs     []pipeline.JobSnapshot
	OCR      pipeline.StatsSnapshot
}

// Markdown builds the report body.
func Markdown(info RunInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# docscan run report\n\n")
	fmt.Fprintf(&b, "- **Folder:** %s\n", info.Folder)
	fmt.Fprintf(&b, "- **Document type:** %s\n", info.DocType)
	fmt.Fprintf(&b, "- **Workbook:** %s\n", info.Workbook)
	fmt.Fprintf(&b, "- **Started:** %s\n", info.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration:** %s\n", info.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- **Documents:** %d\n", len(info.Jobs))
	fmt.Fprintf(&b, "- **Records:** %d\n\n", info.Records)

	b.WriteString("## Documents\n\n")
	b.WriteString("| Document | Status | Pages | Records | Errors |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, j := range info.Jobs {
		fmt.Fprintf(&b, "| %s | %s | %d/%d | %d | %d |\n",
			j.Document, j.Status, j.Progress.PagesDone, j.Progress.Pages,
			j.Progress.Records, len(j.Progress.Errors))
	}
	b.WriteString("\n")

	var errLines []string
	for _, j := range info.Jobs {
		for _, e := range j.Progress.Errors {
			errLines = append(errLines, fmt.Sprintf("- **%s**: %s", j.Document, e))
		}
	}
	if len(errLines) > 0 {
		b.WriteString("## Errors\n\n")
		b.WriteString(strings.Join(errLines, "\n"))
		b.WriteString("\n\n")
	}

	if info.OCR.Count > 0 {
		b.WriteString("## OCR latency\n\n")
		fmt.Fprintf(&b, "- **Pages recognized:** %d\n", info.OCR.Count)
		fmt.Fprintf(&b, "- **Min/Avg/Max:** %dms / %.0fms / %dms\n", info.OCR.MinMs, info.OCR.AvgMs, info.OCR.MaxMs)
		fmt.Fprintf(&b, "- **p50/p95:** %.0fms / %.0fms\n", info.OCR.P50Ms, info.OCR.P95Ms)
	}

	return b.String()
}

// HTML renders the report as a standalone HTML page.
func HTML(info RunInfo) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(info)), &body); err != nil {
		return nil, fmt.Errorf("render report markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>docscan run report</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// Write renders the report and saves it to path.
func Write(path string, info RunInfo) error {
	data, err := HTML(info)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
