package model

import "time"

// CaptureStatus is the lifecycle state of a background capture job.
type CaptureStatus string

const (
	CaptureQueued   CaptureStatus = "queued"
	CaptureStarted  CaptureStatus = "started"
	CaptureFinished CaptureStatus = "finished"
	CaptureFailed   CaptureStatus = "failed"
)

// IsTerminal reports whether the job can no longer change.
func (s CaptureStatus) IsTerminal() bool {
	return s == CaptureFinished || s == CaptureFailed
}

// CaptureJob is the externally visible state of a capture job.
type CaptureJob struct {
	JobID      string        `json:"jobId"`
	Status     CaptureStatus `json:"status"`
	Progress   int           `json:"progress"`
	Message    string        `json:"message,omitempty"`
	EnqueuedAt time.Time     `json:"enqueuedAt"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	EndedAt    *time.Time    `json:"endedAt,omitempty"`
	Error      *string       `json:"error,omitempty"`
	Result     *PersonRecord `json:"result,omitempty"`
}

// CaptureTaskPayload is the queued unit of work.
type CaptureTaskPayload struct {
	JobID    string `json:"jobId"`
	Filename string `json:"filename"`
	Image    []byte `json:"image"`
}

// ProgressEvent is a pipeline checkpoint.
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}
