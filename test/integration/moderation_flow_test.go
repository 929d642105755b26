package integration

import (
	"net/http"
	"testing"

	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/domain"
)

func reportUser(t *testing.T, s *testServer, token, targetID string) {
	t.Helper()
	resp, env := s.do(t, http.MethodPost, "/api/v1/reports", token, map[string]string{
		"target_type": "user",
		"target_id":   targetID,
		"reason":      "harassment",
	})
	requireStatus(t, resp, env, http.StatusAccepted, "")
}

func activeUserReports(t *testing.T, s *testServer, modToken string) int {
	t.Helper()
	resp, env := s.do(t, http.MethodGet, "/api/v1/moderation/reports/count?target_type=user", modToken, nil)
	requireStatus(t, resp, env, http.StatusOK, "")
	var out struct {
		ActiveReports int `json:"active_reports"`
	}
	decodeData(t, env, &out)
	return out.ActiveReports
}

func TestSweepBansReportedUserAndRevokesCachedSessions(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, moderatorID, domain.UserStatusActive)
	modToken, _ := s.signIn(t, moderatorID, "mod-laptop")

	target := s.seedUser(t, "", domain.UserStatusActive)
	targetToken, targetSession := s.signIn(t, target, "target-phone")
	first := s.seedUser(t, "", domain.UserStatusActive)
	firstToken, _ := s.signIn(t, first, "first-phone")
	second := s.seedUser(t, "", domain.UserStatusActive)
	secondToken, _ := s.signIn(t, second, "second-phone")

	// The target's session is cached before the ban lands.
	resp, env := s.do(t, http.MethodGet, "/api/v1/me/sessions", targetToken, nil)
	requireStatus(t, resp, env, http.StatusOK, "")

	reportUser(t, s, firstToken, target)
	reportUser(t, s, firstToken, target)
	reportUser(t, s, secondToken, target)
	if got := activeUserReports(t, s, modToken); got != 2 {
		t.Fatalf("expected duplicate report to be ignored, got %d active", got)
	}

	resp, env = s.do(t, http.MethodPost, "/api/v1/moderation/sweep", firstToken, nil)
	requireStatus(t, resp, env, http.StatusForbidden, "FORBIDDEN")

	resp, env = s.do(t, http.MethodPost, "/api/v1/moderation/sweep", modToken, nil)
	requireStatus(t, resp, env, http.StatusOK, "")
	var sweep struct {
		Banned int `json:"banned"`
		Failed int `json:"failed"`
	}
	decodeData(t, env, &sweep)
	if sweep.Banned != 1 || sweep.Failed != 0 {
		t.Fatalf("expected one ban, got %+v", sweep)
	}

	resp, env = s.do(t, http.MethodGet, "/api/v1/me/sessions", targetToken, nil)
	requireStatus(t, resp, env, http.StatusUnauthorized, "SESSION_NOT_FOUND")
	if !s.redis.Exists("sessions:revoked:" + targetSession) {
		t.Fatal("expected a revocation marker for the banned session")
	}
	if s.redis.Exists("sessions:" + targetSession) {
		t.Fatal("expected the cached session entry to be dropped")
	}
	if got := activeUserReports(t, s, modToken); got != 0 {
		t.Fatalf("expected reports resolved by the ban, got %d active", got)
	}

	var user domain.User
	if err := s.db.First(&user, "id = ?", target).Error; err != nil {
		t.Fatalf("load target: %v", err)
	}
	if user.Status != domain.UserStatusBanned {
		t.Fatalf("expected banned, got %s", user.Status)
	}

	resp, env = s.do(t, http.MethodPost, "/api/v1/moderation/sweep", modToken, nil)
	requireStatus(t, resp, env, http.StatusOK, "")
	decodeData(t, env, &sweep)
	if sweep.Banned != 0 {
		t.Fatalf("expected second sweep to ban nothing, got %+v", sweep)
	}
}

func TestModeratorBanEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, moderatorID, domain.UserStatusActive)
	modToken, _ := s.signIn(t, moderatorID, "mod-laptop")
	target := s.seedUser(t, "", domain.UserStatusActive)
	targetToken, _ := s.signIn(t, target, "target-phone")

	resp, env := s.do(t, http.MethodPost, "/api/v1/moderation/users/"+target+"/ban", modToken, nil)
	requireStatus(t, resp, env, http.StatusOK, "")
	var result struct {
		Outcome         string `json:"outcome"`
		RevokedSessions int    `json:"revoked_sessions"`
	}
	decodeData(t, env, &result)
	if result.Outcome != "banned" || result.RevokedSessions != 1 {
		t.Fatalf("unexpected ban result: %+v", result)
	}

	resp, env = s.do(t, http.MethodPost, "/api/v1/moderation/users/"+target+"/ban", modToken, nil)
	requireStatus(t, resp, env, http.StatusOK, "")
	decodeData(t, env, &result)
	if result.Outcome != "already_banned" {
		t.Fatalf("expected already_banned, got %+v", result)
	}

	resp, env = s.do(t, http.MethodGet, "/api/v1/auth/refresh", targetToken, nil)
	requireStatus(t, resp, env, http.StatusUnauthorized, "SESSION_NOT_FOUND")

	resp, env = s.do(t, http.MethodPost, "/api/v1/moderation/users/no-such-user/ban", modToken, nil)
	requireStatus(t, resp, env, http.StatusNotFound, "TARGET_NOT_FOUND")
}

func TestReportValidation(t *testing.T) {
	s := newTestServer(t)
	reporter := s.seedUser(t, "", domain.UserStatusActive)
	token, _ := s.signIn(t, reporter, "phone")

	resp, env := s.do(t, http.MethodPost, "/api/v1/reports", token, map[string]string{
		"target_type": "user",
		"target_id":   reporter,
		"reason":      "spam",
	})
	requireStatus(t, resp, env, http.StatusBadRequest, "SELF_REPORT")

	resp, env = s.do(t, http.MethodPost, "/api/v1/reports", token, map[string]string{
		"target_type": "post",
		"target_id":   "missing-post",
		"reason":      "spam",
	})
	requireStatus(t, resp, env, http.StatusNotFound, "TARGET_NOT_FOUND")

	resp, env = s.do(t, http.MethodPost, "/api/v1/reports", token, map[string]string{
		"target_type": "galaxy",
		"target_id":   "x",
		"reason":      "spam",
	})
	requireStatus(t, resp, env, http.StatusBadRequest, "BAD_REQUEST")
}

func TestInlineEnforcementBansOnThreshold(t *testing.T) {
	s := newTestServerWithOptions(t, serverOptions{cfgOverride: func(cfg *config.Config) {
		cfg.EnforcementMode = config.EnforcementInline
	}})
	owner := s.seedUser(t, "", domain.UserStatusActive)
	post := &domain.Post{ID: "post-1", UserID: owner, Status: domain.ContentStatusActive}
	if err := s.db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	for _, device := range []string{"a", "b"} {
		reporter := s.seedUser(t, "", domain.UserStatusActive)
		token, _ := s.signIn(t, reporter, device)
		resp, env := s.do(t, http.MethodPost, "/api/v1/reports", token, map[string]string{
			"target_type": "post",
			"target_id":   post.ID,
			"reason":      "misleading",
		})
		requireStatus(t, resp, env, http.StatusAccepted, "")
	}

	var stored domain.Post
	if err := s.db.First(&stored, "id = ?", post.ID).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if stored.Status != domain.ContentStatusBanned {
		t.Fatalf("expected post banned inline, got %s", stored.Status)
	}
}
