package security

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAuth              = "auth"
	TokenTypeEmailVerification = "email_verification"

	// AuthTokenVersion 2 embeds uid/ust next to sid for cache warming.
	AuthTokenVersion = 2
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// AuthClaims binds a token to a session. UserID and Status are optional
// hints; verification always re-checks them against the session store.
type AuthClaims struct {
	TokenType string `json:"typ"`
	Version   int    `json:"ver"`
	SessionID string `json:"sid"`
	UserID    string `json:"uid,omitempty"`
	Status    string `json:"ust,omitempty"`
	jwt.RegisteredClaims
}

// EmailVerificationClaims carry a verification flow without server state:
// the hashed email and every hashed code issued in the flow, oldest first.
type EmailVerificationClaims struct {
	TokenType  string   `json:"typ"`
	EmailHash  string   `json:"eh"`
	CodeHashes []string `json:"ch"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	issuer     string
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewJWTManager(issuer string, privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey) *JWTManager {
	return &JWTManager{issuer: issuer, privateKey: privateKey, publicKey: publicKey}
}

func (m *JWTManager) SignAuthToken(sessionID, userID, status string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		TokenType: TokenTypeAuth,
		Version:   AuthTokenVersion,
		SessionID: sessionID,
		UserID:    userID,
		Status:    status,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS512, claims).SignedString(m.privateKey)
}

func (m *JWTManager) SignEmailVerificationToken(emailHash string, codeHashes []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := EmailVerificationClaims{
		TokenType:  TokenTypeEmailVerification,
		EmailHash:  emailHash,
		CodeHashes: codeHashes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS512, claims).SignedString(m.privateKey)
}

func (m *JWTManager) ParseAuthToken(raw string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	if err := m.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAuth || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrTokenInvalid, claims.TokenType)
	}
	return claims, nil
}

func (m *JWTManager) ParseEmailVerificationToken(raw string) (*EmailVerificationClaims, error) {
	claims := &EmailVerificationClaims{}
	if err := m.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeEmailVerification || claims.EmailHash == "" {
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrTokenInvalid, claims.TokenType)
	}
	return claims, nil
}

func (m *JWTManager) parse(raw string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS512.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}
