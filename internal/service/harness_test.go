package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/repository"
	"github.com/sandeepkv93/social-trust-core/internal/security"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMiniredis starts an in-process redis; the returned server can be
// closed early to simulate an outage.
func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type recordedEvent struct {
	RoutingKey string
	Payload    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{RoutingKey: routingKey, Payload: payload})
	return nil
}

func (p *recordingPublisher) byKey(routingKey string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.events {
		if e.RoutingKey == routingKey {
			out = append(out, e)
		}
	}
	return out
}

type harnessOptions struct {
	thresholds config.Thresholds
	mode       config.EnforcementMode
	cache      SessionCacheStore
	revoked    RevokedSessionStore
}

// testHarness wires the trust core over an in-memory sqlite database.
type testHarness struct {
	db        *gorm.DB
	tx        repository.Transactor
	users     repository.UserRepository
	sessRepo  repository.SessionRepository
	reports   repository.ReportRepository
	content   repository.ContentRepository
	cache     SessionCacheStore
	revoked   RevokedSessionStore
	publisher *recordingPublisher
	jwt       *security.JWTManager

	tokens       *TokenService
	sessions     *SessionService
	accounts     *AccountService
	enforcer     *BanEnforcer
	reportSvc    *ReportService
	verification *VerificationService
}

func newHarness(t *testing.T, opts harnessOptions) *testHarness {
	t.Helper()
	if opts.thresholds == (config.Thresholds{}) {
		opts.thresholds = config.Thresholds{Post: 2, Comment: 2, User: 2}
	}
	if opts.mode == "" {
		opts.mode = config.EnforcementSweep
	}
	if opts.cache == nil {
		opts.cache = NewInMemorySessionCacheStore()
	}
	if opts.revoked == nil {
		opts.revoked = NewInMemoryRevokedSessionStore()
	}

	db := newTestDB(t)
	log := discardLogger()
	key := testSigningKey(t)
	h := &testHarness{
		db:        db,
		tx:        repository.NewTransactor(db),
		users:     repository.NewUserRepository(db),
		sessRepo:  repository.NewSessionRepository(db),
		reports:   repository.NewReportRepository(db),
		content:   repository.NewContentRepository(db),
		cache:     opts.cache,
		revoked:   opts.revoked,
		publisher: &recordingPublisher{},
		jwt:       security.NewJWTManager("trust-test", key, &key.PublicKey),
	}
	h.tokens = NewTokenService(h.jwt, h.tx, h.sessRepo, h.users, h.cache, h.revoked, TokenConfig{
		AuthTTL:  time.Hour,
		EmailTTL: 10 * time.Minute,
		CacheTTL: time.Hour,
	}, log)
	h.sessions = NewSessionService(h.sessRepo, h.tokens, log)
	h.accounts = NewAccountService(h.tx, h.users, h.tokens, h.sessions, log)
	h.enforcer = NewBanEnforcer(h.tx, h.reports, h.content, h.users, h.sessions, h.publisher,
		BanEnforcerConfig{Thresholds: opts.thresholds, Concurrency: 2}, log)
	h.reportSvc = NewReportService(h.reports, h.content, h.enforcer, opts.mode, log)
	h.verification = NewVerificationService(h.tokens, security.NewSecretHasher(bcrypt.MinCost),
		NewQueueMailer(h.publisher), []string{"example.com"}, 10*time.Minute, log)
	return h
}

var testDevice = domain.Device{ID: "device-1", Name: "Pixel 8", Platform: domain.PlatformAndroid}

func (h *testHarness) seedUser(t *testing.T, status domain.UserStatus) string {
	t.Helper()
	id := uuid.NewString()
	if err := h.users.Create(context.Background(), &domain.User{ID: id, Status: status}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

// signIn creates a session for userID and returns its token and session id.
func (h *testHarness) signIn(t *testing.T, userID string) (string, string) {
	t.Helper()
	token, session, err := h.tokens.IssueAuthToken(context.Background(), userID, testDevice)
	if err != nil {
		t.Fatalf("issue auth token: %v", err)
	}
	return token, session.ID
}

func (h *testHarness) seedPost(t *testing.T, ownerID string) string {
	t.Helper()
	p := &domain.Post{ID: uuid.NewString(), UserID: ownerID, Status: domain.ContentStatusActive}
	if err := h.db.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p.ID
}

func (h *testHarness) userStatus(t *testing.T, userID string) domain.UserStatus {
	t.Helper()
	status, err := h.users.GetStatus(context.Background(), userID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	return status
}

func (h *testHarness) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
