package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// BanSweeper runs BanEnforcer.Sweep on a fixed interval in its own
// goroutine, off the request path.
type BanSweeper struct {
	enforcer *BanEnforcer
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewBanSweeper(enforcer *BanEnforcer, interval time.Duration, logger *slog.Logger) *BanSweeper {
	return &BanSweeper{enforcer: enforcer, interval: interval, logger: logger}
}

func (s *BanSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.interval <= 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.logger.Info("ban sweeper started", "interval", s.interval)
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *BanSweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("ban sweeper stopped")
}

func (s *BanSweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.enforcer.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.ErrorContext(ctx, "ban sweep failed", "error", err)
			}
		}
	}
}
