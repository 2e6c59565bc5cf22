package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"

	"github.com/netcopilot/api/internal/cache"
	"github.com/netcopilot/api/internal/client"
	"github.com/netcopilot/api/internal/model"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

type fakeSearcher struct {
	records []model.Record
	err     error
	calls   atomic.Int32
	last    client.SearchQuery
	// gate, when set, blocks every call until closed or ctx ends.
	gate chan struct{}
}

func (f *fakeSearcher) SearchPeople(ctx context.Context, q client.SearchQuery) (*model.Snapshot, error) {
	f.calls.Add(1)
	f.last = q
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Snapshot{SnapshotID: "s_search", Status: model.RemoteJobReady, Records: f.records}, nil
}

type fakeRanker struct {
	selection *model.Selection
	err       error
	criteria  string
}

func (f *fakeRanker) SelectProfile(ctx context.Context, candidates []model.Record, criteria string) (*model.Selection, error) {
	f.criteria = criteria
	if f.err != nil {
		return nil, f.err
	}
	if f.selection != nil {
		return f.selection, nil
	}
	return &model.Selection{Selected: candidates[0]}, nil
}

type fakeFetcher struct {
	records []model.Record
	err     error
	calls   atomic.Int32
	lastURL string
}

func (f *fakeFetcher) FetchProfile(ctx context.Context, profileURL string) (*model.Snapshot, error) {
	f.calls.Add(1)
	f.lastURL = profileURL
	if f.err != nil {
		return nil, f.err
	}
	return &model.Snapshot{SnapshotID: "s_fetch", Status: model.RemoteJobReady, Records: f.records}, nil
}

type fakeEnricher struct {
	err   error
	calls atomic.Int32
}

func (f *fakeEnricher) Enrich(ctx context.Context, profile model.Record) (*model.CrewOutputs, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &model.CrewOutputs{
		Summary: &model.Summary{Summary: "Enriched " + profile.String("name") + ". Done.", KeyHighlights: []string{"a", "b", "c"}},
	}, nil
}

// memCache is an in-memory LookupCache.
type memCache struct {
	mu   sync.Mutex
	data map[string]*model.LookupResult
	puts int
}

func newMemCache() *memCache { return &memCache{data: map[string]*model.LookupResult{}} }

func (c *memCache) Get(_ context.Context, first, last string) mo.Option[*model.LookupResult] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.data[cache.Key(first, last)]; ok {
		return mo.Some(r)
	}
	return mo.None[*model.LookupResult]()
}

func (c *memCache) Put(_ context.Context, first, last string, r *model.LookupResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.data[cache.Key(first, last)] = r
}

type fakeExtractor struct {
	extracted *model.Extracted
	err       error
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte, filename string) (*model.Extracted, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	ex := *f.extracted
	ex.Image = filename
	return &ex, "# " + ex.BasicInfo.Names, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (r *recordingObserver) OnProgress(_ context.Context, e model.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) percents() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.events))
	for i, e := range r.events {
		out[i] = e.Percent
	}
	return out
}

func candidate(name, url string) model.Record {
	return model.Record{"name": name, "url": url, "subtitle": "Engineer", "location": "Seattle, WA"}
}
