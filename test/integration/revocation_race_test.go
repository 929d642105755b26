package integration

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

func TestConcurrentVerificationNeverOutlivesBan(t *testing.T) {
	s := newTestServer(t)
	target := s.seedUser(t, "", domain.UserStatusActive)
	tokens := make([]string, 0, 3)
	for _, device := range []string{"phone", "tablet", "laptop"} {
		token, _ := s.signIn(t, target, device)
		tokens = append(tokens, token)
	}

	const workers = 24
	var (
		wg         sync.WaitGroup
		banned     atomic.Bool
		lateAccept atomic.Int64
		start      = make(chan struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			<-start
			for j := 0; j < 10; j++ {
				afterBan := banned.Load()
				_, err := s.core.Tokens.VerifyAuthToken(context.Background(), token, service.AccessAllowAnonymous)
				if afterBan && err == nil {
					lateAccept.Add(1)
				}
			}
		}(tokens[i%len(tokens)])
	}

	close(start)
	result, err := s.core.Enforcer.BanUser(context.Background(), target)
	if err != nil {
		t.Fatalf("ban user: %v", err)
	}
	banned.Store(true)
	wg.Wait()

	if result.RevokedSessions != len(tokens) {
		t.Fatalf("expected %d revoked sessions, got %d", len(tokens), result.RevokedSessions)
	}
	if n := lateAccept.Load(); n != 0 {
		t.Fatalf("expected no verification to succeed after the ban committed, got %d", n)
	}
	for _, token := range tokens {
		resp, env := s.do(t, http.MethodGet, "/api/v1/auth/refresh", token, nil)
		requireStatus(t, resp, env, http.StatusUnauthorized, "SESSION_NOT_FOUND")
	}
}

func TestConcurrentSweepsRunOnce(t *testing.T) {
	s := newTestServer(t)
	target := s.seedUser(t, "", domain.UserStatusActive)
	for _, device := range []string{"a", "b", "c"} {
		reporter := s.seedUser(t, "", domain.UserStatusActive)
		if err := s.core.Reports.CreateReport(context.Background(), domain.ReportTargetUser, target, reporter, domain.ReportReasonSpam); err != nil {
			t.Fatalf("create report from %s: %v", device, err)
		}
	}

	const sweeps = 8
	var (
		wg     sync.WaitGroup
		banned atomic.Int64
		busy   atomic.Int64
	)
	for i := 0; i < sweeps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := s.core.Enforcer.Sweep(context.Background())
			if err != nil {
				busy.Add(1)
				return
			}
			banned.Add(int64(report.Count(service.OutcomeBanned)))
		}()
	}
	wg.Wait()

	if banned.Load() != 1 {
		t.Fatalf("expected exactly one ban across concurrent sweeps, got %d (busy=%d)", banned.Load(), busy.Load())
	}
}
