package model

import (
	"fmt"
	"time"
)

// SourceCount records how many records one source adapter yielded.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// RunReport captures the counters of a single ingestion run.
type RunReport struct {
	RunID         string        `json:"run_id"`
	Entity        string        `json:"entity"`
	Source        string        `json:"source"` // "scrape" or the imported file path
	FileSHA256    string        `json:"file_sha256,omitempty"`
	FetchedTotal  int           `json:"fetched_total"`
	UniqueTotal   int           `json:"unique_total"`
	InsertedCount int           `json:"inserted_count"`
	UpdatedCount  int           `json:"updated_count"`
	ErroredCount  int           `json:"errored_count"`
	PerSource     []SourceCount `json:"per_source,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

// ElapsedSeconds returns the run duration in seconds.
func (r *RunReport) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// ThroughputPerSecond returns persisted records (inserted+updated) per second.
// Zero when no time elapsed.
func (r *RunReport) ThroughputPerSecond() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.InsertedCount+r.UpdatedCount) / secs
}

// String renders the one-line human summary printed at the end of a run.
func (r *RunReport) String() string {
	return fmt.Sprintf("%s: fetched %d, unique %d, inserted %d, updated %d, errored %d (%.1fs, %.0f rec/s)",
		r.Entity, r.FetchedTotal, r.UniqueTotal, r.InsertedCount, r.UpdatedCount, r.ErroredCount,
		r.ElapsedSeconds(), r.ThroughputPerSecond())
}
