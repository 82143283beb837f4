// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	// RunRunning is the only non-terminal status; a row left in this
	// state marks a run that crashed before finalizing.
	RunRunning RunStatus = "running"

	// RunSuccess means every entity in the batch processed cleanly.
	RunSuccess RunStatus = "success"

	// RunPartial means some entities failed but the batch completed.
	RunPartial RunStatus = "partial"

	// RunFailed means a top-level error stopped the run.
	RunFailed RunStatus = "failed"
)

// Run records one pipeline execution in the append-only run history.
// It is created at run start with status running, finalized exactly once,
// and immutable afterward.
type Run struct {
	// ID is a random UUID assigned at start.
	ID string `json:"id" yaml:"id"`

	// Pipeline names the pass: "enrich", "ontology", "linkcheck", "reconcile".
	Pipeline string `json:"pipeline" yaml:"pipeline"`

	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished,omitzero" yaml:"finished,omitempty"`

	Status RunStatus `json:"status" yaml:"status"`

	// Added and Updated count persisted changes across the batch.
	Added   int `json:"added" yaml:"added"`
	Updated int `json:"updated" yaml:"updated"`

	// Detail is a free-form JSON payload: per-entity errors, broken
	// links, dry-run reports.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Checkpoint is the resumable cursor of a batch pipeline: the last slug
// processed plus cumulative totals. Read at run start when resuming,
// overwritten at run end.
type Checkpoint struct {
	Pipeline  string    `json:"pipeline" yaml:"pipeline"`
	LastSlug  string    `json:"lastSlug" yaml:"lastSlug"`
	Processed int       `json:"processed" yaml:"processed"`
	Added     int       `json:"added" yaml:"added"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}
