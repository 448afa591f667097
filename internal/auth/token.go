package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bsc-kit/scorecard-api/internal/domain"
)

// TokenTTL is the fixed lifetime of every issued token.
const TokenTTL = 24 * time.Hour

var (
	// ErrMissingSecret means the process cannot sign or verify tokens at all.
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrInvalidToken covers bad signatures, malformed payloads and expiry.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the wall clock, mainly for expiry tests.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager. An empty secret is a configuration
// error, not something to paper over with a default.
func NewTokenManager(secret string, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	tm := &TokenManager{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims describes JWT payload.
type Claims struct {
	UserID int64       `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// VerifiedToken is the result of a successful Verify.
type VerifiedToken struct {
	Claim     domain.Claim
	ID        string
	ExpiresAt time.Time
}

// Issue signs a token for the claim, expiring TokenTTL from now.
func (tm *TokenManager) Issue(claim domain.Claim) (domain.IssuedToken, error) {
	now := tm.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(ceilToSecond(now.Add(tm.ttl)))
	id := uuid.NewString()

	claims := &Claims{
		UserID: claim.UserID,
		Role:   claim.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   strconv.FormatInt(claim.UserID, 10),
			ExpiresAt: expiresAt,
			IssuedAt:  issuedAt,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	return domain.IssuedToken{Value: tokenString, ID: id, ExpiresAt: expiresAt.Time}, nil
}

// ceilToSecond rounds up to the precision of the exp claim, so a token never
// lives shorter than its TTL.
func ceilToSecond(t time.Time) time.Time {
	truncated := t.Truncate(time.Second)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(time.Second)
}

// Verify validates the signature and expiry and returns the embedded claim.
// Every failure is reported as ErrInvalidToken.
func (tm *TokenManager) Verify(tokenStr string) (*VerifiedToken, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.Role == "" {
		return nil, ErrInvalidToken
	}

	return &VerifiedToken{
		Claim:     domain.Claim{UserID: claims.UserID, Role: claims.Role},
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
