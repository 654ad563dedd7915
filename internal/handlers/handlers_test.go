package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcmath/internal/logger"
	"amcmath/internal/models"
	"amcmath/internal/progression"
	"amcmath/internal/security"
	"amcmath/internal/service"
	"amcmath/internal/validation"
)

type fakeProgress struct {
	learners []string
}

func (f *fakeProgress) Progression(ctx context.Context, learnerID string) ([]progression.PathProgress, error) {
	f.learners = append(f.learners, learnerID)
	return []progression.PathProgress{{Slug: "algebra-avengers", Title: "Algebra Avengers", IsUnlocked: true}}, nil
}

func (f *fakeProgress) PathProgression(ctx context.Context, learnerID, slug string) (*progression.PathProgress, error) {
	f.learners = append(f.learners, learnerID)
	if slug != "algebra-avengers" {
		return nil, service.ErrPathNotFound
	}
	return &progression.PathProgress{Slug: slug, IsUnlocked: true}, nil
}

type fakeProblems struct {
	submitted []service.SubmitAttempt
}

func (f *fakeProblems) GetProblem(ctx context.Context, id string) (*models.ProblemDetail, error) {
	if id != "p1" {
		return nil, service.ErrProblemNotFound
	}
	return &models.ProblemDetail{Problem: models.Problem{ID: "p1", Title: "One"}}, nil
}

func (f *fakeProblems) AttemptSummary(ctx context.Context, problemID, learnerID string) (*models.AttemptSummary, error) {
	return &models.AttemptSummary{ProblemID: problemID, Status: models.ProgressAvailable, Attempts: []models.Attempt{}}, nil
}

func (f *fakeProblems) RecordAttempt(ctx context.Context, learner models.Learner, problemID string, in service.SubmitAttempt) (*service.AttemptResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	f.submitted = append(f.submitted, in)
	return &service.AttemptResult{
		Attempt: models.Attempt{ID: "a1", LearnerID: learner.ID, ProblemID: problemID, Outcome: models.Outcome(in.Outcome)},
	}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type testServer struct {
	handler  http.Handler
	tokens   *security.TokenManager
	progress *fakeProgress
	problems *fakeProblems
	startup  *StartupStatus
}

func newTestServer(t *testing.T, pingErr error) *testServer {
	t.Helper()
	log := logger.Nop()
	tokens := security.NewTokenManager("test-secret", time.Hour)
	limiter := security.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)

	ts := &testServer{
		tokens:   tokens,
		progress: &fakeProgress{},
		problems: &fakeProblems{},
		startup:  NewStartupStatus(StepDatabase),
	}
	rt := &Router{
		Middleware: NewMiddleware(tokens, log),
		Health:     NewHealthHandler(fakePinger{err: pingErr}, ts.startup, log),
		Paths:      NewPathsHandler(ts.progress, log),
		Problems:   NewProblemHandler(ts.problems, log),
		Attempts:   limiter,
		Startup:    ts.startup,
		Origins:    []string{"http://localhost:5173"},
	}
	ts.handler = rt.Handler()
	ts.startup.MarkReady()
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string, learner *models.Learner) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if learner != nil {
		token, err := ts.tokens.Issue(*learner)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

var alice = &models.Learner{ID: "alice", Email: "alice@example.com"}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.startup = NewStartupStatus(StepDatabase)
	ts.handler = (&Router{
		Middleware: NewMiddleware(ts.tokens, logger.Nop()),
		Health:     NewHealthHandler(fakePinger{}, ts.startup, logger.Nop()),
		Paths:      NewPathsHandler(ts.progress, logger.Nop()),
		Problems:   NewProblemHandler(ts.problems, logger.Nop()),
		Startup:    ts.startup,
	}).Handler()

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(t, http.MethodGet, "/paths", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "API routes wait for startup")
	assert.Empty(t, ts.progress.learners)

	ts.startup.CompleteStep(StepDatabase)
	ts.startup.MarkReady()
	rec = ts.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var report StartupReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Ready)
	assert.Equal(t, 100, report.Progress)
}

func TestReadyFailsWhenDatabaseDown(t *testing.T) {
	ts := newTestServer(t, errors.New("connection refused"))
	ts.startup.MarkReady()

	rec := ts.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeUnavailable, decodeError(t, rec).Code)
}

func TestListPaths(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/paths", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var paths []progression.PathProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paths))
	require.Len(t, paths, 1)

	ts.do(t, http.MethodGet, "/paths", "", alice)
	assert.Equal(t, []string{"", "alice"}, ts.progress.learners)
}

func TestListPathsIgnoresBadToken(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/paths", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{""}, ts.progress.learners)
}

func TestGetPath(t *testing.T) {
	ts := newTestServer(t, nil)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/paths/algebra-avengers", "", alice).Code)

	rec := ts.do(t, http.MethodGet, "/paths/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, rec).Code)
}

func TestGetProblem(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/problems/p1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"One"`)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/problems/nope", "", nil).Code)
}

func TestSummaryRequiresAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/problems/p1/summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/problems/p1/summary", "", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitAttempt(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/problems/p1/attempts", `{"outcome":"CORRECT","hintsUsed":1}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	var result service.AttemptResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "alice", result.Attempt.LearnerID)
	assert.Equal(t, models.OutcomeCorrect, result.Attempt.Outcome)
}

func TestSubmitAttemptErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid outcome", `{"outcome":"MAYBE"}`, http.StatusBadRequest, CodeValidation},
		{"bad json", `{"outcome":`, http.StatusBadRequest, CodeBadRequest},
		{"wrong type", `{"outcome":1}`, http.StatusBadRequest, CodeBadRequest},
		{"unknown field", `{"outcome":"CORRECT","score":9}`, http.StatusBadRequest, CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			rec := ts.do(t, http.MethodPost, "/problems/p1/attempts", tt.body, alice)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			assert.Empty(t, ts.problems.submitted)
		})
	}
}

func TestSubmitAttemptRequiresAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/problems/p1/attempts", `{"outcome":"CORRECT"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitAttemptRateLimited(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"outcome":"INCORRECT"}`

	assert.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/problems/p1/attempts", body, alice).Code)
	assert.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/problems/p1/attempts", body, alice).Code)

	rec := ts.do(t, http.MethodPost, "/problems/p1/attempts", body, alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	bob := &models.Learner{ID: "bob"}
	assert.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/problems/p1/attempts", body, bob).Code, "limits are per learner")
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodDelete, "/paths", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
