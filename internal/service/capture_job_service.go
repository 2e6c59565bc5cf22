package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/model"
)

const (
	TaskTypeCapture = "capture:process"

	captureJobKeyPrefix = "capture:job:"
	captureActiveKey    = "capture:active"
)

// Enqueuer submits tasks to the queue backend. *asynq.Client implements it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

var _ Enqueuer = (*asynq.Client)(nil)

// CaptureJobService tracks background capture jobs. The job record lives
// in Redis next to the asynq task and expires with the task's retention.
type CaptureJobService struct {
	redis    *redis.Client
	enqueuer Enqueuer
	cfg      config.QueueConfig
	logger   *zap.Logger
}

func NewCaptureJobService(redisClient *redis.Client, enqueuer Enqueuer, cfg config.QueueConfig, logger *zap.Logger) *CaptureJobService {
	if cfg.Name == "" {
		cfg.Name = "capture"
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptureJobService{redis: redisClient, enqueuer: enqueuer, cfg: cfg, logger: logger}
}

// Enqueue records a queued job and submits the capture task. Any backend
// failure is reported as queue unavailable; no job record is left behind.
func (s *CaptureJobService) Enqueue(ctx context.Context, image []byte, filename string) (*model.CaptureJob, error) {
	jobID := uuid.New().String()

	job := &model.CaptureJob{
		JobID:      jobID,
		Status:     model.CaptureQueued,
		Progress:   0,
		Message:    "Queued",
		EnqueuedAt: time.Now().UTC(),
	}

	task, err := NewCaptureTask(&model.CaptureTaskPayload{JobID: jobID, Filename: filename, Image: image})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.saveJob(ctx, job); err != nil {
		return nil, apperr.Wrap(apperr.ErrQueueUnavailable, "failed to save job: %v", err)
	}

	_, err = s.enqueuer.EnqueueContext(ctx, task,
		asynq.TaskID(jobID),
		asynq.Queue(s.cfg.Name),
		asynq.MaxRetry(0),
		asynq.Timeout(s.cfg.JobTimeout),
		asynq.Retention(s.cfg.ResultTTL),
	)
	if err != nil {
		if delErr := s.redis.Del(ctx, captureJobKeyPrefix+jobID).Err(); delErr != nil {
			s.logger.Warn("failed to remove unqueued job record", zap.String("job_id", jobID), zap.Error(delErr))
		}
		return nil, apperr.Wrap(apperr.ErrQueueUnavailable, "failed to enqueue task: %v", err)
	}

	s.logger.Info("capture job queued", zap.String("job_id", jobID), zap.String("filename", filename), zap.Int("bytes", len(image)))
	return job, nil
}

// Status returns the job, or None when it is unknown or has expired.
func (s *CaptureJobService) Status(ctx context.Context, jobID string) (mo.Option[*model.CaptureJob], error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return mo.None[*model.CaptureJob](), err
	}
	if job == nil {
		return mo.None[*model.CaptureJob](), nil
	}
	return mo.Some(job), nil
}

// MarkStarted moves a queued job to started (called by worker).
func (s *CaptureJobService) MarkStarted(ctx context.Context, jobID string) (*model.CaptureJob, error) {
	return s.mutate(ctx, jobID, func(job *model.CaptureJob) {
		now := time.Now().UTC()
		job.Status = model.CaptureStarted
		job.StartedAt = &now
		job.Message = "Started"
	}, func(pipe redis.Pipeliner) {
		pipe.SAdd(ctx, captureActiveKey, jobID)
	})
}

// UpdateProgress records a checkpoint (called by worker). Progress never
// decreases and terminal jobs are left untouched.
func (s *CaptureJobService) UpdateProgress(ctx context.Context, jobID string, progress int, message string) (*model.CaptureJob, error) {
	return s.mutate(ctx, jobID, func(job *model.CaptureJob) {
		if progress > job.Progress {
			job.Progress = progress
		}
		job.Message = message
		if job.Status == model.CaptureQueued {
			now := time.Now().UTC()
			job.Status = model.CaptureStarted
			job.StartedAt = &now
		}
	}, nil)
}

// Complete marks the job finished with its result (called by worker).
func (s *CaptureJobService) Complete(ctx context.Context, jobID string, result *model.PersonRecord) (*model.CaptureJob, error) {
	return s.mutate(ctx, jobID, func(job *model.CaptureJob) {
		now := time.Now().UTC()
		job.Status = model.CaptureFinished
		job.Progress = 100
		job.Message = "Completed"
		job.EndedAt = &now
		job.Result = result
	}, func(pipe redis.Pipeliner) {
		pipe.SRem(ctx, captureActiveKey, jobID)
	})
}

// Fail marks the job failed with progress forced to 100 (called by worker).
func (s *CaptureJobService) Fail(ctx context.Context, jobID string, errMsg string) (*model.CaptureJob, error) {
	return s.mutate(ctx, jobID, func(job *model.CaptureJob) {
		now := time.Now().UTC()
		job.Status = model.CaptureFailed
		job.Progress = 100
		job.Message = "Failed"
		job.Error = &errMsg
		job.EndedAt = &now
	}, func(pipe redis.Pipeliner) {
		pipe.SRem(ctx, captureActiveKey, jobID)
	})
}

// SweepStale fails started jobs older than the job timeout, covering
// workers that died mid-run. It returns the number of jobs failed.
func (s *CaptureJobService) SweepStale(ctx context.Context) (int, error) {
	ids, err := s.redis.SMembers(ctx, captureActiveKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list active jobs: %w", err)
	}

	cutoff := time.Now().Add(-s.cfg.JobTimeout)
	swept := 0
	for _, id := range ids {
		job, err := s.getJob(ctx, id)
		if err != nil {
			s.logger.Warn("sweep: failed to read job", zap.String("job_id", id), zap.Error(err))
			continue
		}
		if job == nil || job.Status.IsTerminal() {
			s.redis.SRem(ctx, captureActiveKey, id)
			continue
		}
		if job.StartedAt == nil || job.StartedAt.After(cutoff) {
			continue
		}
		if _, err := s.Fail(ctx, id, fmt.Sprintf("job exceeded timeout of %s", s.cfg.JobTimeout)); err != nil {
			s.logger.Warn("sweep: failed to fail job", zap.String("job_id", id), zap.Error(err))
			continue
		}
		swept++
	}
	return swept, nil
}

// mutate applies fn to a non-terminal job and saves it, running extra in
// the same transaction. A terminal job is returned unchanged.
func (s *CaptureJobService) mutate(ctx context.Context, jobID string, fn func(*model.CaptureJob), extra func(redis.Pipeliner)) (*model.CaptureJob, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperr.Wrap(apperr.ErrJobNotFound, "capture job %s not found", jobID)
	}
	if job.Status.IsTerminal() {
		return job, nil
	}

	fn(job)

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, captureJobKeyPrefix+jobID, data, s.cfg.ResultTTL)
		if extra != nil {
			extra(pipe)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	return job, nil
}

func (s *CaptureJobService) saveJob(ctx context.Context, job *model.CaptureJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, captureJobKeyPrefix+job.JobID, data, s.cfg.ResultTTL).Err()
}

// getJob returns nil, nil for an unknown job.
func (s *CaptureJobService) getJob(ctx context.Context, jobID string) (*model.CaptureJob, error) {
	data, err := s.redis.Get(ctx, captureJobKeyPrefix+jobID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read job: %w", err)
	}

	var job model.CaptureJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// NewCaptureTask builds the asynq task for payload.
func NewCaptureTask(payload *model.CaptureTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCapture, data), nil
}
