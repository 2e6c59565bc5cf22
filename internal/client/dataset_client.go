package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/model"
)

// DatasetClient drives the trigger, poll and download protocol of one
// asynchronous provider dataset. It holds no state between calls besides
// the pooled HTTP connections.
type DatasetClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	datasetID    string
	pollInterval time.Duration
	timeout      time.Duration
	logger       *zap.Logger
}

// ProgressResponse is the body of the per-snapshot progress endpoint.
type ProgressResponse struct {
	Status string `json:"status"`
	Errors int    `json:"errors"`
}

type triggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// NewDatasetClient returns a client bound to datasetID. Missing
// credentials or dataset id fail here rather than on first use.
func NewDatasetClient(cfg *config.DatasetConfig, datasetID string, logger *zap.Logger) (*DatasetClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.Wrap(apperr.ErrConfig, "dataset api key is not set")
	}
	if strings.TrimSpace(datasetID) == "" {
		return nil, apperr.Wrap(apperr.ErrConfig, "dataset id is not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return &DatasetClient{
		httpClient:   &http.Client{Timeout: requestTimeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		datasetID:    datasetID,
		pollInterval: pollInterval,
		timeout:      timeout,
		logger:       logger.With(zap.String("dataset_id", datasetID)),
	}, nil
}

// DatasetID returns the dataset this client submits to.
func (c *DatasetClient) DatasetID() string {
	return c.datasetID
}

// Timeout returns the wall-clock budget used by AwaitReady and the
// download retry loop.
func (c *DatasetClient) Timeout() time.Duration {
	return c.timeout
}

// Trigger submits rows to the dataset and returns the created job.
func (c *DatasetClient) Trigger(ctx context.Context, kind model.JobKind, rows []map[string]any) (*model.RemoteJob, error) {
	params := url.Values{}
	params.Set("dataset_id", c.datasetID)
	params.Set("include_errors", "true")

	var result triggerResponse
	if err := c.post(ctx, "/trigger?"+params.Encode(), rows, &result); err != nil {
		return nil, err
	}
	if result.SnapshotID == "" {
		return nil, apperr.Wrap(apperr.ErrRemote, "trigger response missing snapshot_id")
	}

	c.logger.Info("snapshot triggered",
		zap.String("kind", string(kind)),
		zap.String("snapshot_id", result.SnapshotID),
		zap.Int("rows", len(rows)))

	return &model.RemoteJob{
		Kind:       kind,
		DatasetID:  c.datasetID,
		SnapshotID: result.SnapshotID,
		Status:     model.RemoteJobTriggered,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Progress reads the current state of a snapshot.
func (c *DatasetClient) Progress(ctx context.Context, snapshotID string) (*ProgressResponse, error) {
	var result ProgressResponse
	if err := c.get(ctx, "/progress/"+url.PathEscape(snapshotID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AwaitReady polls the job on a fixed interval until it reaches a terminal
// status or timeout elapses from the start of the call. When the first
// progress request fails the dataset is treated as having no progress
// endpoint: the job is marked unknown and returned without error so the
// caller can go straight to download. Later progress failures are
// transient and polling continues until the deadline.
func (c *DatasetClient) AwaitReady(ctx context.Context, job *model.RemoteJob, timeout time.Duration) (model.RemoteJobStatus, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	deadline := time.Now().Add(timeout)
	attempt := 0

	for {
		attempt++
		progress, err := c.Progress(ctx, job.SnapshotID)
		if err != nil {
			if ctx.Err() != nil {
				return job.Status, ctx.Err()
			}
			if attempt == 1 {
				c.logger.Warn("progress unavailable, continuing without it",
					zap.String("snapshot_id", job.SnapshotID),
					zap.Error(err))
				job.Transition(model.RemoteJobUnknown)
				return model.RemoteJobUnknown, nil
			}
			c.logger.Warn("progress poll failed, retrying",
				zap.String("snapshot_id", job.SnapshotID),
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else {
			job.ErrorCount = progress.Errors
			c.logger.Debug("poll snapshot",
				zap.String("snapshot_id", job.SnapshotID),
				zap.Int("attempt", attempt),
				zap.String("status", progress.Status))

			switch progress.Status {
			case "ready":
				job.Transition(model.RemoteJobReady)
				return model.RemoteJobReady, nil
			case "failed", "error":
				job.Transition(model.RemoteJobFailed)
				return model.RemoteJobFailed, apperr.Wrap(apperr.ErrRemote,
					"snapshot %s failed with status %s (errors=%d)", job.SnapshotID, progress.Status, progress.Errors)
			}
		}

		if !time.Now().Before(deadline) {
			job.Transition(model.RemoteJobTimeout)
			return model.RemoteJobTimeout, apperr.Wrap(apperr.ErrTimeout,
				"snapshot %s not ready after %s", job.SnapshotID, timeout)
		}

		select {
		case <-ctx.Done():
			return job.Status, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Download fetches the output rows of a finished job.
func (c *DatasetClient) Download(ctx context.Context, job *model.RemoteJob) ([]model.Record, error) {
	var raw any
	if err := c.get(ctx, "/snapshot/"+url.PathEscape(job.SnapshotID)+"?format=json", &raw); err != nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrRemote, "snapshot %s response is not a list of records", job.SnapshotID)
	}

	records := make([]model.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, model.Record(m))
		}
	}
	return records, nil
}

// downloadWithRetry retries Download at the poll interval until timeout
// elapses, then surfaces the last error seen.
func (c *DatasetClient) downloadWithRetry(ctx context.Context, job *model.RemoteJob, timeout time.Duration) ([]model.Record, error) {
	deadline := time.Now().Add(timeout)
	attempt := 0

	for {
		attempt++
		records, err := c.Download(ctx, job)
		if err == nil {
			return records, nil
		}
		if !apperr.Is(err, apperr.ErrRemote) {
			return nil, err
		}
		c.logger.Debug("download not ready",
			zap.String("snapshot_id", job.SnapshotID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if !time.Now().Before(deadline) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *DatasetClient) post(ctx context.Context, endpoint string, body any, result any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

func (c *DatasetClient) get(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes req and decodes a 2xx JSON body into result. Every
// transport, status or decoding failure is tagged as a remote error.
func (c *DatasetClient) doRequest(req *http.Request, result any) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("dataset request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ErrRemote, "%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.ErrRemote, "read %s response: %v", req.URL.Path, err)
	}

	c.logger.Debug("dataset response",
		zap.Int("status", resp.StatusCode),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.Wrap(apperr.ErrRemote, "dataset API responded with status %d: %s", resp.StatusCode, truncate(respBody, 512))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return apperr.Wrap(apperr.ErrRemote, "dataset API returned non-JSON response: %v", err)
	}

	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
