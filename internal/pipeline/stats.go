package pipeline

import (
	"sort"
	"sync"
)

// StatsSnapshot is a point-in-time aggregate of OCR latency samples.
type StatsSnapshot struct {
	Count int
	MinMs int64
	MaxMs int64
	AvgMs float64
	P50Ms float64
	P95Ms float64
}

// OCRStats collects per-page OCR call latencies across workers.
type OCRStats struct {
	mu      sync.Mutex
	samples []int64
}

func NewOCRStats() *OCRStats {
	return &OCRStats{samples: make([]int64, 0, 64)}
}

func (s *OCRStats) Record(durationMs int64) {
	if durationMs < 0 {
		durationMs = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, durationMs)
}

func (s *OCRStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	values := append([]int64(nil), s.samples...)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	var sum int64
	for _, v := range values {
		sum += v
	}
	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
	}
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
