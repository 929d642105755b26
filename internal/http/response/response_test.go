package response

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func TestJSONWritesSuccessEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "req-1"))
	rr := httptest.NewRecorder()

	JSON(rr, req, http.StatusCreated, map[string]string{"token": "t"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if rr.Header().Get("Cache-Control") != "no-store" || rr.Header().Get("X-Request-Id") != "req-1" {
		t.Fatalf("unexpected headers: %v", rr.Header())
	}
	var env struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
		Error   *APIError         `json:"error"`
		Meta    Meta              `json:"meta"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Data["token"] != "t" || env.Error != nil || env.Meta.RequestID != "req-1" || env.Meta.Timestamp.IsZero() {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestErrorFallsBackToHeaderRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "edge-7")
	rr := httptest.NewRecorder()

	Error(rr, req, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", nil)

	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error == nil || env.Error.Code != "SESSION_NOT_FOUND" || env.Meta.RequestID != "edge-7" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestNoContentHasNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NoContent(rr, httptest.NewRequest(http.MethodDelete, "/", nil))
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 || rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("unexpected no-content response: %d %q %v", rr.Code, rr.Body.String(), rr.Header())
	}
}
