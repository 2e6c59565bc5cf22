package client

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/model"
)

// SearchQuery is one people-search input row.
type SearchQuery struct {
	FirstName string
	LastName  string
	// SearchURL overrides the configured default search base URL.
	SearchURL string
	// AdditionalFields are copied into the row when non-empty.
	AdditionalFields map[string]string
}

// PeopleSearcher runs name searches against the search dataset.
type PeopleSearcher struct {
	dataset          *DatasetClient
	defaultSearchURL string
}

// NewPeopleSearcher binds a dataset client to the search dataset.
func NewPeopleSearcher(cfg *config.DatasetConfig, logger *zap.Logger) (*PeopleSearcher, error) {
	dataset, err := NewDatasetClient(cfg, cfg.SearchDatasetID, logger)
	if err != nil {
		return nil, err
	}
	searchURL := cfg.DefaultSearchURL
	if searchURL == "" {
		searchURL = "https://www.linkedin.com"
	}
	return &PeopleSearcher{dataset: dataset, defaultSearchURL: searchURL}, nil
}

// SearchPeople triggers a search snapshot and downloads its candidates.
// Search snapshots often report ready before their rows are downloadable,
// so the download is retried until the dataset timeout.
func (s *PeopleSearcher) SearchPeople(ctx context.Context, q SearchQuery) (*model.Snapshot, error) {
	row := map[string]any{
		"url":        s.defaultSearchURL,
		"first_name": q.FirstName,
		"last_name":  q.LastName,
	}
	if strings.TrimSpace(q.SearchURL) != "" {
		row["url"] = q.SearchURL
	}
	for k, v := range q.AdditionalFields {
		if strings.TrimSpace(v) != "" {
			row[k] = v
		}
	}

	job, err := s.dataset.Trigger(ctx, model.JobKindSearch, []map[string]any{row})
	if err != nil {
		return nil, err
	}

	if _, err := s.dataset.AwaitReady(ctx, job, s.dataset.Timeout()); err != nil {
		return nil, err
	}

	records, err := s.dataset.downloadWithRetry(ctx, job, s.dataset.Timeout())
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
