package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/client"
	"github.com/netcopilot/api/internal/model"
)

// PeopleSearcher runs a name search against the dataset provider.
type PeopleSearcher interface {
	SearchPeople(ctx context.Context, q client.SearchQuery) (*model.Snapshot, error)
}

// Ranker chooses one candidate given free-text criteria.
type Ranker interface {
	SelectProfile(ctx context.Context, candidates []model.Record, criteria string) (*model.Selection, error)
}

// SelectionService finds search candidates and delegates the choice
// between them to a Ranker.
type SelectionService struct {
	searcher PeopleSearcher
	ranker   Ranker
	logger   *zap.Logger
}

func NewSelectionService(searcher PeopleSearcher, ranker Ranker, logger *zap.Logger) *SelectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionService{searcher: searcher, ranker: ranker, logger: logger}
}

// SearchAndSelect returns the ranked choice for req. Zero candidates is a
// not-found error, distinct from upstream failures.
func (s *SelectionService) SearchAndSelect(ctx context.Context, req *model.SearchRequest) (*model.Selection, error) {
	snapshot, err := s.searcher.SearchPeople(ctx, client.SearchQuery{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		SearchURL: req.LinkedInURL,
	})
	if err != nil {
		return nil, err
	}
	if len(snapshot.Records) == 0 {
		return nil, apperr.Wrap(apperr.ErrNotFound, "no LinkedIn candidates found for %s %s", req.FirstName, req.LastName)
	}

	s.logger.Info("search candidates found",
		zap.String("snapshot_id", snapshot.SnapshotID),
		zap.Int("candidates", len(snapshot.Records)))

	criteria := BuildSearchCriteria(req.FirstName, req.LastName, req.AdditionalContext)
	selection, err := s.ranker.SelectProfile(ctx, snapshot.Records, criteria)
	if err != nil {
		if apperr.Is(err, apperr.ErrSelection) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.ErrSelection, "ranking failed: %v", err)
	}
	if selection == nil || len(selection.Selected) == 0 {
		return nil, apperr.Wrap(apperr.ErrSelection, "ranking returned no candidate")
	}
	return selection, nil
}

// BuildSearchCriteria renders the ranking instructions for a target name.
func BuildSearchCriteria(firstName, lastName, hints string) string {
	lines := []string{
		fmt.Sprintf("Target full name: %s %s.", firstName, lastName),
		"Use subtitle/headline, experience, education, and location to choose the best match.",
		"Strictly prioritize candidates based in major US tech hubs (San Francisco Bay Area, Seattle, New York City, Austin) or elsewhere in the United States before considering other regions.",
	}
	if hints = strings.TrimSpace(hints); hints != "" {
		lines = append(lines, "Additional hints from user: "+hints)
	} else {
		lines = append(lines, "No extra hints provided; fall back to technology-focused professionals in the United States if no direct match is available.")
	}
	return strings.Join(lines, "\n")
}
