package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/samber/mo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/cache"
	"github.com/netcopilot/api/internal/model"
)

const canonicalProfileHost = "www.linkedin.com"

// ProfileFetcher runs a single-profile dataset job.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, profileURL string) (*model.Snapshot, error)
}

// Enricher runs the enrichment tasks over one profile record.
type Enricher interface {
	Enrich(ctx context.Context, profile model.Record) (*model.CrewOutputs, error)
}

// LookupCache is the advisory result cache. Implementations must not fail.
type LookupCache interface {
	Get(ctx context.Context, firstName, lastName string) mo.Option[*model.LookupResult]
	Put(ctx context.Context, firstName, lastName string, result *model.LookupResult)
}

// LookupService is the search, fetch and enrich flow shared by the
// synchronous endpoints and the capture pipeline.
type LookupService struct {
	selection *SelectionService
	fetcher   ProfileFetcher
	enricher  Enricher
	cache     LookupCache
	flights   singleflight.Group
	logger    *zap.Logger
}

func NewLookupService(selection *SelectionService, fetcher ProfileFetcher, enricher Enricher, lookupCache LookupCache, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		selection: selection,
		fetcher:   fetcher,
		enricher:  enricher,
		cache:     lookupCache,
		logger:    logger,
	}
}

// SearchAndEnrich returns the cached result for the normalized name or
// computes it. Concurrent calls for the same normalized name in this
// process share one computation. The shared computation is detached from
// any single caller's cancellation; a caller whose ctx ends only stops
// waiting. Only complete results are cached.
func (s *LookupService) SearchAndEnrich(ctx context.Context, req *model.SearchRequest) (*model.LookupResult, error) {
	key := cache.Key(req.FirstName, req.LastName)
	flightCtx := context.WithoutCancel(ctx)

	ch := s.flights.DoChan(key, func() (any, error) {
		if cached, ok := s.cache.Get(flightCtx, req.FirstName, req.LastName).Get(); ok {
			s.logger.Debug("lookup cache hit", zap.String("key", key))
			return cached, nil
		}
		return s.compute(flightCtx, req)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("lookup shared with concurrent caller", zap.String("key", key))
		}
		return res.Val.(*model.LookupResult), nil
	}
}

func (s *LookupService) compute(ctx context.Context, req *model.SearchRequest) (*model.LookupResult, error) {
	selection, err := s.selection.SearchAndSelect(ctx, req)
	if err != nil {
		return nil, err
	}

	profileURL := selection.Selected.String("url")
	if profileURL == "" {
		return nil, apperr.Wrap(apperr.ErrBadSelection, "selected profile does not include a LinkedIn URL")
	}
	normalized, err := NormalizeProfileURL(profileURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrBadSelection, "selected profile URL %q is unusable: %v", profileURL, err)
	}

	snapshot, err := s.fetcher.FetchProfile(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Records) == 0 {
		return nil, apperr.Wrap(apperr.ErrEmptySnapshot, "snapshot %s returned no profile records", snapshot.SnapshotID)
	}

	outputs, err := s.enricher.Enrich(ctx, snapshot.Records[0])
	if err != nil {
		return nil, err
	}

	result := &model.LookupResult{
		Person:            model.PersonFromCandidate(selection.Selected, normalized),
		SelectorRationale: selection.Rationale,
		CrewOutputs:       *outputs,
	}
	s.cache.Put(ctx, req.FirstName, req.LastName, result)

	s.logger.Info("lookup enriched", zap.String("url", normalized))
	return result, nil
}

// SearchProfile runs search and selection only.
func (s *LookupService) SearchProfile(ctx context.Context, req *model.SearchRequest) (*model.Selection, error) {
	return s.selection.SearchAndSelect(ctx, req)
}

// FetchProfile normalizes rawURL and returns the raw profile snapshot.
func (s *LookupService) FetchProfile(ctx context.Context, rawURL string) (*model.Snapshot, error) {
	normalized, err := NormalizeProfileURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.fetcher.FetchProfile(ctx, normalized)
}

// RunCrew enriches a caller-supplied profile object, or the first object
// of a supplied list.
func (s *LookupService) RunCrew(ctx context.Context, data json.RawMessage) (*model.CrewOutputs, error) {
	profile, err := primaryProfile(data)
	if err != nil {
		return nil, err
	}
	return s.enricher.Enrich(ctx, profile)
}

func primaryProfile(data json.RawMessage) (model.Record, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "linkedin data is not valid JSON")
	}
	switch v := raw.(type) {
	case map[string]any:
		return model.Record(v), nil
	case []any:
		if len(v) == 0 {
			return nil, apperr.Wrap(apperr.ErrValidation, "linkedin data list must include at least one profile")
		}
		if m, ok := v[0].(map[string]any); ok {
			return model.Record(m), nil
		}
	}
	return nil, apperr.Wrap(apperr.ErrValidation, "linkedin data must be an object or list of objects")
}

// NormalizeProfileURL rewrites any regional LinkedIn host to the canonical
// www host and defaults the scheme to https. A URL without a host is
// rejected.
func NormalizeProfileURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case raw != "" && !strings.Contains(raw, "://"):
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", apperr.Wrap(apperr.ErrInvalidURL, "invalid LinkedIn profile URL %q", raw)
	}

	host := strings.ToLower(u.Host)
	if host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com") {
		host = canonicalProfileHost
	}
	u.Host = host
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}
