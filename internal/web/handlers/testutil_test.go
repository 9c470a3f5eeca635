package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/facelab/annotator/internal/annotation"
	"github.com/facelab/annotator/internal/config"
	"github.com/facelab/annotator/internal/pairs"
	"github.com/facelab/annotator/internal/web/middleware"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Validation: config.ValidationConfig{
			MinNameLength:        5,
			MinExplanationLength: 20,
		},
	}
}

// testTable returns a two-pair table used across handler tests.
func testTable() []pairs.Pair {
	return []pairs.Pair{
		{Index: 0, ImageA: "img1.jpg", ImageB: "img2.jpg", GroundTruth: "same", CelebID: "1234"},
		{Index: 1, ImageA: "img3.jpg", ImageB: "img4.jpg", GroundTruth: "different", CelebID: "5678"},
	}
}

// fakeWriter is an in-memory stand-in for the Google Sheets client.
type fakeWriter struct {
	mu           sync.Mutex
	appended     []annotation.Record
	appendErr    error
	completed    map[string]map[int]bool
	completedErr error
}

func (f *fakeWriter) Append(ctx context.Context, rec annotation.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeWriter) Completed(ctx context.Context, annotatorID string) (map[int]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completedErr != nil {
		return nil, f.completedErr
	}
	return f.completed[annotatorID], nil
}

func (f *fakeWriter) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

// jsonRequest creates a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// startSession creates a run plus session and returns a function that
// attaches the signed session cookie to requests.
func startSession(t *testing.T, sm *middleware.SessionManager, run *annotation.Run) func(*http.Request) {
	t.Helper()
	session := sm.CreateSession(run)
	recorder := httptest.NewRecorder()
	sm.SetSessionCookie(recorder, session)
	cookies := recorder.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	return func(req *http.Request) {
		for _, c := range cookies {
			req.AddCookie(c)
		}
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
