package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/middleware"
	"github.com/netcopilot/api/internal/model"
	"github.com/netcopilot/api/internal/store"
)

type fakeLookup struct {
	err     error
	lastReq *model.SearchRequest
	lastURL string
	crewIn  json.RawMessage
}

func (f *fakeLookup) SearchAndEnrich(_ context.Context, req *model.SearchRequest) (*model.LookupResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &model.LookupResult{Person: model.Person{Name: req.FirstName + " " + req.LastName}}, nil
}

func (f *fakeLookup) SearchProfile(_ context.Context, req *model.SearchRequest) (*model.Selection, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	why := "best match"
	return &model.Selection{Selected: model.Record{"name": "Ada Lovelace"}, Rationale: &why}, nil
}

func (f *fakeLookup) FetchProfile(_ context.Context, rawURL string) (*model.Snapshot, error) {
	f.lastURL = rawURL
	if f.err != nil {
		return nil, f.err
	}
	return &model.Snapshot{SnapshotID: "s_1", Status: model.RemoteJobReady}, nil
}

func (f *fakeLookup) RunCrew(_ context.Context, data json.RawMessage) (*model.CrewOutputs, error) {
	f.crewIn = data
	if f.err != nil {
		return nil, f.err
	}
	return &model.CrewOutputs{}, nil
}

type fakeJobs struct {
	err      error
	jobs     map[string]*model.CaptureJob
	filename string
	image    []byte
}

func (f *fakeJobs) Enqueue(_ context.Context, image []byte, filename string) (*model.CaptureJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.image, f.filename = image, filename
	return &model.CaptureJob{JobID: "job-1", Status: model.CaptureQueued}, nil
}

func (f *fakeJobs) Status(_ context.Context, jobID string) (mo.Option[*model.CaptureJob], error) {
	if job, ok := f.jobs[jobID]; ok {
		return mo.Some(job), nil
	}
	return mo.None[*model.CaptureJob](), nil
}

type fakeChat struct{}

func (fakeChat) Reply(_ context.Context, req *model.ChatRequest) (string, error) {
	return "you asked: " + req.Message, nil
}

type testEnv struct {
	app    *fiber.App
	lookup *fakeLookup
	jobs   *fakeJobs
	people *store.RedisStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger := zaptest.NewLogger(t)
	validate := validator.New()

	env := &testEnv{
		lookup: &fakeLookup{},
		jobs:   &fakeJobs{jobs: map[string]*model.CaptureJob{}},
		people: store.NewRedisStore(rdb, logger),
	}

	env.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	routes := &Routes{
		Lookup:  NewLookupHandler(env.lookup, validate),
		Capture: NewCaptureHandler(env.jobs),
		People:  NewPeopleHandler(env.people, fakeChat{}, validate),
		Limiter: middleware.NewRateLimiter(rdb, logger),
		Limits:  config.RateLimitConfig{LookupPerMin: 100, CapturePerHour: 100},
	}
	routes.Register(env.app)
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func jsonRequest(method, path string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, jsonRequest("POST", "/api/search", map[string]string{"firstName": "Ada", "lastName": "Lovelace"}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "best match", body["selectorRationale"])
	assert.Equal(t, "Lovelace", env.lookup.lastReq.LastName)

	status, body = env.do(t, jsonRequest("POST", "/api/search", map[string]string{"firstName": "Ada"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
}

func TestLookup_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	req := map[string]string{"firstName": "Ada", "lastName": "Lovelace"}

	status, body := env.do(t, jsonRequest("POST", "/api/lookup", req))
	assert.Equal(t, http.StatusOK, status)
	person, _ := body["person"].(map[string]any)
	assert.Equal(t, "Ada Lovelace", person["name"])

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Wrap(apperr.ErrNotFound, "none"), http.StatusNotFound, "NOT_FOUND"},
		{apperr.Wrap(apperr.ErrTimeout, "slow"), http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"},
		{apperr.Wrap(apperr.ErrRemote, "502"), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{apperr.Wrap(apperr.ErrConfig, "no key"), http.StatusInternalServerError, "CONFIG_ERROR"},
	}
	for _, tc := range cases {
		env.lookup.err = tc.err
		status, body := env.do(t, jsonRequest("POST", "/api/lookup", req))
		assert.Equal(t, tc.status, status, tc.code)
		assert.Equal(t, tc.code, errorCode(body))
	}
}

func TestProfileAndCrew(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, jsonRequest("POST", "/api/profile", map[string]string{"url": "linkedin.com/in/ada"}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "s_1", body["snapshotId"])
	assert.Equal(t, "linkedin.com/in/ada", env.lookup.lastURL)

	status, _ = env.do(t, jsonRequest("POST", "/api/crew/run", map[string]any{"linkedinData": map[string]any{"name": "Ada"}}))
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"name":"Ada"}`, string(env.lookup.crewIn))

	status, _ = env.do(t, jsonRequest("POST", "/api/crew/run", map[string]any{}))
	assert.Equal(t, http.StatusBadRequest, status)
}

func multipartRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/captures", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestCaptures(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, multipartRequest(t, "badge.png", []byte("image-bytes")))
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "job-1", body["jobId"])
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, "badge.png", env.jobs.filename)
	assert.Equal(t, []byte("image-bytes"), env.jobs.image)

	status, _ = env.do(t, httptest.NewRequest("POST", "/api/captures", nil))
	assert.Equal(t, http.StatusBadRequest, status)

	env.jobs.err = apperr.Wrap(apperr.ErrQueueUnavailable, "redis down")
	status, body = env.do(t, multipartRequest(t, "badge.png", []byte("image-bytes")))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "QUEUE_UNAVAILABLE", errorCode(body))

	env.jobs.jobs["job-1"] = &model.CaptureJob{JobID: "job-1", Status: model.CaptureStarted, Progress: 45}
	status, body = env.do(t, httptest.NewRequest("GET", "/api/captures/job-1", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 45, body["progress"])

	status, body = env.do(t, httptest.NewRequest("GET", "/api/captures/unknown", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestPeople(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status, body := env.do(t, httptest.NewRequest("GET", "/api/people", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["people"])

	saved, err := env.people.Save(ctx, &model.PersonRecord{Filename: "a.png"})
	require.NoError(t, err)
	_, err = env.people.Save(ctx, &model.PersonRecord{Filename: "b.png"})
	require.NoError(t, err)

	status, body = env.do(t, httptest.NewRequest("GET", "/api/people?limit=1", nil))
	assert.Equal(t, http.StatusOK, status)
	people, _ := body["people"].([]any)
	require.Len(t, people, 1)
	assert.Equal(t, "b.png", people[0].(map[string]any)["filename"])

	status, body = env.do(t, httptest.NewRequest("GET", "/api/people/"+saved.ID, nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, saved.ID, body["id"])

	status, _ = env.do(t, httptest.NewRequest("GET", "/api/people/missing", nil))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, httptest.NewRequest("GET", "/api/people?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, jsonRequest("POST", "/api/chat", map[string]string{"message": "who works at Acme?"}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "you asked: who works at Acme?", body["reply"])

	status, _ = env.do(t, jsonRequest("POST", "/api/chat", map[string]string{"message": ""}))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthAndWebsocketGuard(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	// No hub configured
	status, _ = env.do(t, httptest.NewRequest("GET", "/ws/captures/job-1", nil))
	assert.Equal(t, http.StatusNotFound, status)
}
