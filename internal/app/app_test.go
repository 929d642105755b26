package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAssignsDependenciesAndTimeout(t *testing.T) {
	cfg := &config.Config{ShutdownTimeout: 7 * time.Second}
	logger := discardLogger()
	server := &http.Server{Addr: ":8080", ReadHeaderTimeout: time.Second}
	sweeper := service.NewBanSweeper(nil, time.Hour, logger)

	a := New(cfg, logger, server, sweeper, nil)
	if a.Config != cfg || a.Logger != logger || a.Server != server || a.Sweeper != sweeper {
		t.Fatal("expected app dependencies to be assigned")
	}
	if a.ShutdownTimeout != 7*time.Second {
		t.Fatalf("expected shutdown timeout copied from config, got %s", a.ShutdownTimeout)
	}

	a = New(&config.Config{}, logger, server, nil, nil)
	if a.ShutdownTimeout != 20*time.Second {
		t.Fatalf("expected default shutdown timeout, got %s", a.ShutdownTimeout)
	}
	a.StopBackgroundTasks()
}

func TestServeStopsOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cfg := &config.Config{EnforcementMode: config.EnforcementSweep, ShutdownTimeout: time.Second}
	logger := discardLogger()
	a := New(cfg, logger, &http.Server{Handler: mux, ReadHeaderTimeout: time.Second}, service.NewBanSweeper(nil, time.Hour, logger), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(fmt.Sprintf("http://%s/ping", ln.Addr()))
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	a := New(&config.Config{}, discardLogger(), &http.Server{Addr: ln.Addr().String(), ReadHeaderTimeout: time.Second}, nil, nil)
	if err := a.Run(context.Background()); err == nil {
		t.Fatal("expected error when the address is already bound")
	}
}
