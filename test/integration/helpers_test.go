package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/database"
	"github.com/sandeepkv93/social-trust-core/internal/di"
	"github.com/sandeepkv93/social-trust-core/internal/domain"
)

const moderatorID = "00000000-0000-4000-8000-00000000000a"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// syncBuffer collects JSON log lines written from request goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testServer struct {
	baseURL string
	client  *http.Client
	core    *di.Core
	db      *gorm.DB
	redis   *miniredis.Miniredis
	logs    *syncBuffer
}

type serverOptions struct {
	cfgOverride func(cfg *config.Config)
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithOptions(t, serverOptions{})
}

func newTestServerWithOptions(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	privPath, pubPath := writeSigningKeys(t)
	cfg := &config.Config{
		Environment:           config.EnvDevelopment,
		AuthPrivateKeyPath:    privPath,
		AuthPublicKeyPath:     pubPath,
		AuthTokenTTL:          time.Hour,
		EmailTokenTTL:         10 * time.Minute,
		SessionCacheTTL:       time.Hour,
		TokenIssuer:           "trust-core-itest",
		EmailWhitelistDomains: []string{"example.com"},
		ModeratorUserIDs:      []string{moderatorID},
		ModerationThresholds:  config.Thresholds{Post: 2, Comment: 2, User: 2},
		EnforcementMode:       config.EnforcementSweep,
		SweepInterval:         time.Hour,
	}
	if opts.cfgOverride != nil {
		opts.cfgOverride(cfg)
	}

	logs := &syncBuffer{}
	log := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	db := openTestDB(t, log)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	core, cleanup, err := di.InitializeCore(cfg, log, db, rdb)
	if err != nil {
		t.Fatalf("initialize core: %v", err)
	}
	t.Cleanup(cleanup)

	srv := httptest.NewServer(di.NewHTTPHandler(cfg, log, core, nil))
	t.Cleanup(srv.Close)
	return &testServer{baseURL: srv.URL, client: srv.Client(), core: core, db: db, redis: mr, logs: logs}
}

func writeSigningKeys(t *testing.T) (string, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	dir := t.TempDir()
	privPath := filepath.Join(dir, "auth_private.pem")
	pubPath := filepath.Join(dir, "auth_public.pem")
	if err := os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}), 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}
	if err := os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644); err != nil {
		t.Fatalf("write public key: %v", err)
	}
	return privPath, pubPath
}

func openTestDB(t *testing.T, log *slog.Logger) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:itest_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.Migrate(db, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func (s *testServer) seedUser(t *testing.T, id string, status domain.UserStatus) string {
	t.Helper()
	if id == "" {
		id = uuid.NewString()
	}
	if err := s.db.Create(&domain.User{ID: id, Status: status}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

// signIn opens a session for userID on a named device.
func (s *testServer) signIn(t *testing.T, userID, deviceID string) (string, string) {
	t.Helper()
	token, session, err := s.core.Tokens.IssueAuthToken(context.Background(), userID, domain.Device{
		ID:       deviceID,
		Name:     "Pixel " + deviceID,
		Platform: domain.PlatformAndroid,
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token, session.ID
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope %q: %v", raw, err)
		}
	}
	return resp, env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func requireStatus(t *testing.T, resp *http.Response, env envelope, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("%s %s: expected %d, got %d (%+v)", resp.Request.Method, resp.Request.URL.Path, status, resp.StatusCode, env.Error)
	}
	if code == "" {
		return
	}
	if env.Error == nil || env.Error.Code != code {
		t.Fatalf("%s %s: expected error %s, got %+v", resp.Request.Method, resp.Request.URL.Path, code, env.Error)
	}
}

// whitelistedCode returns the last code logged for a whitelisted address.
func (s *testServer) whitelistedCode(t *testing.T) string {
	t.Helper()
	var code string
	for _, line := range strings.Split(s.logs.String(), "\n") {
		if !strings.Contains(line, "verification mail skipped") {
			continue
		}
		var rec struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err == nil && rec.Code != "" {
			code = rec.Code
		}
	}
	if code == "" {
		t.Fatal("no whitelisted verification code was logged")
	}
	return code
}
