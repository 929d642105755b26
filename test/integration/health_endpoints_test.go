package integration

import (
	"net/http"
	"testing"
)

func TestHealthLiveAndReadyEndpoints(t *testing.T) {
	s := newTestServer(t)

	t.Run("live endpoint stable 200 payload", func(t *testing.T) {
		resp, env := s.do(t, http.MethodGet, "/health/live", "", nil)
		requireStatus(t, resp, env, http.StatusOK, "")
		var data map[string]any
		decodeData(t, env, &data)
		if got, _ := data["status"].(string); got != "ok" {
			t.Fatalf("expected status=ok, got %+v", data)
		}
	})

	t.Run("ready endpoint without checks", func(t *testing.T) {
		resp, env := s.do(t, http.MethodGet, "/health/ready", "", nil)
		requireStatus(t, resp, env, http.StatusOK, "")
		var data struct {
			Status string `json:"status"`
			Checks []any  `json:"checks"`
		}
		decodeData(t, env, &data)
		if data.Status != "ready" || data.Checks == nil || len(data.Checks) != 0 {
			t.Fatalf("expected ready with an empty checks array, got %+v", data)
		}
	})
}
