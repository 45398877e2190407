package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/docscan/internal/docmodel"
)

// JobStatus represents the state of one document's processing.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusIngesting   JobStatus = "ingesting"
	StatusRecognizing JobStatus = "recognizing"
	StatusSearching   JobStatus = "searching"
	StatusCompleted   JobStatus = "completed"
	StatusPartial     JobStatus = "partial"
	StatusFailed      JobStatus = "failed"
)

// Job tracks the processing of a single document. Jobs are created in input
// order and keep that order through result collection, so workbook rows are
// independent of worker count.
type Job struct {
	mu sync.Mutex

	Index    int
	Document string // base file name
	Path     string

	Status JobStatus
	Phase  string

	Progress Progress

	StartedAt  time.Time
	FinishedAt time.Time

	records []docmodel.Record
	errors  []string
}

// Progress tracks per-document processing counts.
type Progress struct {
	Pages     int
	PagesDone int
	Records   int
	Errors    []string
}

// NewJob creates a queued job for one document.
func NewJob(index int, path, name string) *Job {
	return &Job{
		Index:    index,
		Document: name,
		Path:     path,
		Status:   StatusQueued,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	switch status {
	case StatusIngesting:
		if j.StartedAt.IsZero() {
			j.StartedAt = time.Now()
		}
	case StatusCompleted, StatusPartial, StatusFailed:
		j.FinishedAt = time.Now()
	}
}

// AddError records a processing error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
}

// SetPages records the page count discovered during ingestion.
func (j *Job) SetPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Pages = n
}

// IncrPagesDone marks one more page as processed.
func (j *Job) IncrPagesDone() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PagesDone++
}

// AddRecords appends extracted records.
func (j *Job) AddRecords(recs []docmodel.Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, recs...)
	j.Progress.Records = len(j.records)
}

// Records returns a copy of the job's extracted records.
func (j *Job) Records() []docmodel.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]docmodel.Record(nil), j.records...)
}

// JobSnapshot is a read-only copy of job state, used by the run report.
type JobSnapshot struct {
	Index    int
	Document string
	Status   JobStatus
	Phase    string
	Progress Progress
	Duration time.Duration
}

// Snapshot returns a copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string(nil), j.errors...)
	var dur time.Duration
	if !j.StartedAt.IsZero() && !j.FinishedAt.IsZero() {
		dur = j.FinishedAt.Sub(j.StartedAt)
	}
	return JobSnapshot{
		Index:    j.Index,
		Document: j.Document,
		Status:   j.Status,
		Phase:    j.Phase,
		Progress: Progress{
			Pages:     j.Progress.Pages,
			PagesDone: j.Progress.PagesDone,
			Records:   j.Progress.Records,
			Errors:    errs,
		},
		Duration: dur,
	}
}
