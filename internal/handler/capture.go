package handler

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/mo"

	"github.com/netcopilot/api/internal/model"
	"github.com/netcopilot/api/pkg/response"
)

const maxUploadSize = 20 * 1024 * 1024 // 20MB

// CaptureJobs submits and tracks background captures.
type CaptureJobs interface {
	Enqueue(ctx context.Context, image []byte, filename string) (*model.CaptureJob, error)
	Status(ctx context.Context, jobID string) (mo.Option[*model.CaptureJob], error)
}

type CaptureHandler struct {
	jobs CaptureJobs
}

func NewCaptureHandler(jobs CaptureJobs) *CaptureHandler {
	return &CaptureHandler{jobs: jobs}
}

// Submit handles POST /api/captures
func (h *CaptureHandler) Submit(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}
	if file.Size == 0 {
		return response.ValidationError(c, "File is empty", nil)
	}
	if file.Size > maxUploadSize {
		return response.ValidationError(c, "File too large (max 20MB)", nil)
	}

	f, err := file.Open()
	if err != nil {
		return response.ValidationError(c, "Failed to read file", nil)
	}
	defer f.Close()

	image, err := io.ReadAll(f)
	if err != nil {
		return response.ValidationError(c, "Failed to read file", nil)
	}

	job, err := h.jobs.Enqueue(c.UserContext(), image, file.Filename)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Accepted(c, model.CaptureAcceptedResponse{
		JobID:  job.JobID,
		Status: job.Status,
	})
}

// Status handles GET /api/captures/:jobId
func (h *CaptureHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	opt, err := h.jobs.Status(c.UserContext(), jobID)
	if err != nil {
		return response.FromError(c, err)
	}

	job, ok := opt.Get()
	if !ok {
		return response.NotFound(c, "Job not found")
	}

	return response.OK(c, job)
}
