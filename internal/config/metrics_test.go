package config

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
)

func TestClassifyConfigLoadError(t *testing.T) {
	_, atoiErr := strconv.Atoi("many")
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "none", err: nil, want: "none"},
		{name: "validation", err: fmt.Errorf("%w: moderation thresholds must be at least 1", ErrInvalidConfig), want: "validation"},
		{name: "parse", err: &ParseError{Key: "MODERATION_THRESHOLD_POST", Err: atoiErr}, want: "parse"},
		{name: "wrapped parse", err: fmt.Errorf("startup: %w", &ParseError{Key: "AUTH_TOKEN_TTL", Err: atoiErr}), want: "parse"},
		{name: "message alone is not enough", err: errors.New("parse AUTH_TOKEN_TTL: invalid"), want: "load"},
		{name: "dotenv", err: errors.New("load .env.development: permission denied"), want: "load"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyConfigLoadError(tc.err); got != tc.want {
				t.Fatalf("classifyConfigLoadError()=%q want %q", got, tc.want)
			}
		})
	}
}

func TestParseErrorUnwraps(t *testing.T) {
	_, atoiErr := strconv.Atoi("x")
	err := &ParseError{Key: "REDIS_DB", Err: atoiErr}
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Fatal("expected ParseError to unwrap to the strconv error")
	}
	if err.Error() != `parse REDIS_DB: strconv.Atoi: parsing "x": invalid syntax` {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestEnvironmentLabel(t *testing.T) {
	cases := map[Environment]string{
		EnvDevelopment: "development",
		EnvProduction:  "production",
		"staging":      "unknown",
		"":             "unknown",
	}
	for env, want := range cases {
		if got := environmentLabel(env); got != want {
			t.Fatalf("environmentLabel(%q)=%q want %q", env, got, want)
		}
	}
}
