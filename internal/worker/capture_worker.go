package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/model"
	"github.com/netcopilot/api/internal/service"
)

// Broadcaster pushes capture job events to live subscribers.
type Broadcaster interface {
	BroadcastProgress(jobID string, progress int, status model.CaptureStatus, message string)
	BroadcastComplete(jobID string, result *model.PersonRecord)
	BroadcastError(jobID string, code, message string)
}

// JobTracker records capture job state. *service.CaptureJobService
// implements it.
type JobTracker interface {
	MarkStarted(ctx context.Context, jobID string) (*model.CaptureJob, error)
	UpdateProgress(ctx context.Context, jobID string, progress int, message string) (*model.CaptureJob, error)
	Complete(ctx context.Context, jobID string, result *model.PersonRecord) (*model.CaptureJob, error)
	Fail(ctx context.Context, jobID string, errMsg string) (*model.CaptureJob, error)
}

var _ JobTracker = (*service.CaptureJobService)(nil)

// CaptureWorker processes capture tasks
type CaptureWorker struct {
	captureService *service.CaptureService
	jobService     JobTracker
	hub            Broadcaster
	logger         *zap.Logger
}

// NewCaptureWorker creates a new capture worker. hub may be nil.
func NewCaptureWorker(captureService *service.CaptureService, jobService JobTracker, hub Broadcaster, logger *zap.Logger) *CaptureWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptureWorker{
		captureService: captureService,
		jobService:     jobService,
		hub:            hub,
		logger:         logger,
	}
}

// ProcessTask handles capture task processing. Pipeline failures are
// recorded on the job and never retried.
func (w *CaptureWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.CaptureTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal capture payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID := payload.JobID
	log := w.logger.With(zap.String("job_id", jobID), zap.String("filename", payload.Filename))
	log.Info("starting capture job")

	job, err := w.jobService.MarkStarted(ctx, jobID)
	if err != nil {
		log.Warn("failed to mark job started", zap.Error(err))
		if !errors.Is(err, apperr.ErrJobNotFound) {
			w.failJob(ctx, jobID, err)
		}
		return fmt.Errorf("mark started: %v: %w", err, asynq.SkipRetry)
	}
	if job.Status.IsTerminal() {
		log.Info("capture job already finished, skipping", zap.String("status", string(job.Status)))
		return nil
	}

	observer := service.ProgressFunc(func(ctx context.Context, e model.ProgressEvent) {
		w.updateProgress(ctx, jobID, e.Percent, e.Label)
	})

	record, err := w.captureService.ProcessCapture(ctx, payload.Image, payload.Filename, observer)
	if err != nil {
		w.failJob(ctx, jobID, err)
		log.Warn("capture job failed", zap.Error(err))
		return fmt.Errorf("capture job %s: %v: %w", jobID, err, asynq.SkipRetry)
	}

	if _, err := w.jobService.Complete(context.WithoutCancel(ctx), jobID, record); err != nil {
		w.failJob(ctx, jobID, err)
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}

	if w.hub != nil {
		w.hub.BroadcastComplete(jobID, record)
	}
	log.Info("capture job completed", zap.String("person_id", record.ID))
	return nil
}

func (w *CaptureWorker) updateProgress(ctx context.Context, jobID string, progress int, message string) {
	job, err := w.jobService.UpdateProgress(ctx, jobID, progress, message)
	if err != nil {
		w.logger.Warn("failed to update job progress", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	if w.hub != nil {
		w.hub.BroadcastProgress(jobID, job.Progress, job.Status, job.Message)
	}
}

// failJob records the terminal state even when the task ctx has already
// been cancelled by the queue timeout.
func (w *CaptureWorker) failJob(ctx context.Context, jobID string, cause error) {
	if _, err := w.jobService.Fail(context.WithoutCancel(ctx), jobID, cause.Error()); err != nil {
		w.logger.Error("failed to mark job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	if w.hub != nil {
		w.hub.BroadcastError(jobID, apperr.Code(cause), cause.Error())
	}
}
