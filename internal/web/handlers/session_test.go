package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facelab/annotator/internal/annotation"
	"github.com/facelab/annotator/internal/web/middleware"
)

func newSessionHandler(writer *fakeWriter) (*SessionHandler, *middleware.SessionManager) {
	sm := middleware.NewSessionManager("test-secret")
	return NewSessionHandler(testConfig(), sm, writer, testTable()), sm
}

func TestSessionStart_CreatesSession(t *testing.T) {
	handler, _ := newSessionHandler(&fakeWriter{})

	req := jsonRequest(t, "POST", "/api/v1/session", map[string]string{"annotator_id": "annotator_01"})
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)

	var resp sessionResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.AnnotatorID != "annotator_01" {
		t.Errorf("unexpected annotator %q", resp.AnnotatorID)
	}
	if resp.Total != 2 || resp.Completed != 0 {
		t.Errorf("unexpected progress %d/%d", resp.Completed, resp.Total)
	}
	if len(recorder.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
}

func TestSessionStart_ShortNameRejected(t *testing.T) {
	handler, _ := newSessionHandler(&fakeWriter{})

	req := jsonRequest(t, "POST", "/api/v1/session", map[string]string{"annotator_id": "abc"})
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	if len(recorder.Result().Cookies()) != 0 {
		t.Error("expected no session cookie for invalid name")
	}
}

func TestSessionStart_ResumesFromSheet(t *testing.T) {
	writer := &fakeWriter{completed: map[string]map[int]bool{
		"annotator_01": {0: true},
	}}
	handler, _ := newSessionHandler(writer)

	req := jsonRequest(t, "POST", "/api/v1/session", map[string]string{"annotator_id": "annotator_01"})
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	var resp sessionResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Completed != 1 {
		t.Errorf("expected 1 completed pair recovered from sheet, got %d", resp.Completed)
	}
}

func TestSessionStart_SheetUnavailableStartsFresh(t *testing.T) {
	writer := &fakeWriter{completedErr: errors.New("sheet unreachable")}
	handler, _ := newSessionHandler(writer)

	req := jsonRequest(t, "POST", "/api/v1/session", map[string]string{"annotator_id": "annotator_01"})
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)

	var resp sessionResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Completed != 0 {
		t.Errorf("expected fresh run, got %d completed", resp.Completed)
	}
}

func TestSessionStatus_NoSession(t *testing.T) {
	handler, _ := newSessionHandler(&fakeWriter{})

	req := httptest.NewRequest("GET", "/api/v1/session", nil)
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]any
	parseJSONResponse(t, recorder, &resp)
	if resp["active"] != false {
		t.Errorf("expected active false, got %v", resp["active"])
	}
}

func TestSessionStatus_Active(t *testing.T) {
	handler, sm := newSessionHandler(&fakeWriter{})
	attach := startSession(t, sm, annotation.NewRun("annotator_01", nil))

	req := httptest.NewRequest("GET", "/api/v1/session", nil)
	attach(req)
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	var resp map[string]any
	parseJSONResponse(t, recorder, &resp)
	if resp["active"] != true {
		t.Errorf("expected active true, got %v", resp["active"])
	}
	if resp["annotator_id"] != "annotator_01" {
		t.Errorf("unexpected annotator %v", resp["annotator_id"])
	}
}

func TestSessionEnd_ClearsCookie(t *testing.T) {
	handler, sm := newSessionHandler(&fakeWriter{})
	attach := startSession(t, sm, annotation.NewRun("annotator_01", nil))

	req := httptest.NewRequest("DELETE", "/api/v1/session", nil)
	attach(req)
	recorder := httptest.NewRecorder()
	handler.End(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Error("expected the session cookie to be cleared")
	}

	// Session itself is gone: a new status request is inactive.
	statusReq := httptest.NewRequest("GET", "/api/v1/session", nil)
	attach(statusReq)
	statusRec := httptest.NewRecorder()
	handler.Status(statusRec, statusReq)
	var resp map[string]any
	parseJSONResponse(t, statusRec, &resp)
	if resp["active"] != false {
		t.Error("expected session to be deleted")
	}
}

func TestSessionRestart_ClearsProgress(t *testing.T) {
	handler, sm := newSessionHandler(&fakeWriter{})
	attach := startSession(t, sm, annotation.NewRun("annotator_01", map[int]bool{0: true, 1: true}))

	req := httptest.NewRequest("POST", "/api/v1/session/restart", nil)
	attach(req)
	recorder := httptest.NewRecorder()
	handler.Restart(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp sessionResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Completed != 0 {
		t.Errorf("expected 0 completed after restart, got %d", resp.Completed)
	}
}

func TestSessionRestart_RequiresSession(t *testing.T) {
	handler, _ := newSessionHandler(&fakeWriter{})

	req := httptest.NewRequest("POST", "/api/v1/session/restart", nil)
	recorder := httptest.NewRecorder()
	handler.Restart(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnauthorized)
}
