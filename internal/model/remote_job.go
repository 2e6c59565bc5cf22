package model

import "time"

// JobKind identifies which dataset specialization created a remote job.
type JobKind string

const (
	JobKindSearch JobKind = "search"
	JobKindFetch  JobKind = "fetch"
)

// RemoteJobStatus is the lifecycle state of a dataset snapshot.
type RemoteJobStatus string

const (
	RemoteJobTriggered RemoteJobStatus = "triggered"
	RemoteJobReady     RemoteJobStatus = "ready"
	RemoteJobFailed    RemoteJobStatus = "failed"
	RemoteJobTimeout   RemoteJobStatus = "timeout"
	RemoteJobUnknown   RemoteJobStatus = "unknown"
)

// IsTerminal reports whether no further transition is allowed.
func (s RemoteJobStatus) IsTerminal() bool {
	return s == RemoteJobReady || s == RemoteJobFailed || s == RemoteJobTimeout
}

// RemoteJob tracks one snapshot submitted to the dataset provider.
type RemoteJob struct {
	Kind       JobKind         `json:"kind"`
	DatasetID  string          `json:"datasetId"`
	SnapshotID string          `json:"snapshotId"`
	Status     RemoteJobStatus `json:"status"`
	ErrorCount int             `json:"errorCount"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Transition moves the job to status unless it is already terminal.
// It reports whether the status changed.
func (j *RemoteJob) Transition(status RemoteJobStatus) bool {
	if j.Status.IsTerminal() || j.Status == status {
		return false
	}
	j.Status = status
	return true
}

// Snapshot is the downloaded output of a finished remote job.
type Snapshot struct {
	SnapshotID string          `json:"snapshotId"`
	DatasetID  string          `json:"datasetId"`
	Status     RemoteJobStatus `json:"status"`
	Errors     int             `json:"errors"`
	Records    []Record        `json:"records"`
}
