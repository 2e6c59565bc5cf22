package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/model"
)

// ProfileFetcher retrieves one structured profile per target URL.
type ProfileFetcher struct {
	dataset *DatasetClient
}

// NewProfileFetcher binds a dataset client to the profile dataset.
func NewProfileFetcher(cfg *config.DatasetConfig, logger *zap.Logger) (*ProfileFetcher, error) {
	dataset, err := NewDatasetClient(cfg, cfg.ProfileDatasetID, logger)
	if err != nil {
		return nil, err
	}
	return &ProfileFetcher{dataset: dataset}, nil
}

// FetchProfile triggers a snapshot for profileURL, waits for it and
// downloads it once. A snapshot that ends in any status other than ready
// (or unknown, for datasets without progress reporting) is a remote error.
func (f *ProfileFetcher) FetchProfile(ctx context.Context, profileURL string) (*model.Snapshot, error) {
	job, err := f.dataset.Trigger(ctx, model.JobKindFetch, []map[string]any{{"url": profileURL}})
	if err != nil {
		return nil, err
	}

	status, err := f.dataset.AwaitReady(ctx, job, f.dataset.Timeout())
	if err != nil {
		return nil, err
	}
	if status != model.RemoteJobReady && status != model.RemoteJobUnknown {
		return nil, apperr.Wrap(apperr.ErrRemote, "snapshot %s did not reach ready state (status=%s)", job.SnapshotID, status)
	}

	records, err := f.dataset.Download(ctx, job)
	if err != nil {
		return nil, err
	}

	return &model.Snapshot{
		SnapshotID: job.SnapshotID,
		DatasetID:  job.DatasetID,
		Status:     job.Status,
		Errors:     job.ErrorCount,
		Records:    records,
	}, nil
}
