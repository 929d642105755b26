package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLogMailerNeverLogsCode(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewJSONHandler(&buf, nil)))
	if err := m.SendVerificationCode(context.Background(), "who@mail.org", "482913", time.Now()); err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "482913") || strings.Contains(out, "who@") {
		t.Fatalf("log leaked secret material: %s", out)
	}
	if !strings.Contains(out, "mail.org") {
		t.Fatalf("expected email domain in log: %s", out)
	}
}

func TestEmailDomain(t *testing.T) {
	cases := map[string]string{"a@b.org": "b.org", "nope": "", "x@y@z.io": "z.io"}
	for in, want := range cases {
		if got := emailDomain(in); got != want {
			t.Fatalf("emailDomain(%q)=%q, want %q", in, got, want)
		}
	}
}
