package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/techdict/backend/internal/models"
)

var (
	ErrInvalid = errors.New("invalid session token")
	ErrExpired = errors.New("session token expired")
)

type claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// JWT issues and verifies HS256 session credentials. Sessions are not
// persisted; validity is decided by signature and expiry alone.
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(cfg JWTConfig) *JWT {
	if cfg.Secret == "" {
		panic("jwt secret is required")
	}
	return &JWT{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

func (j *JWT) Issue(p models.Principal) (string, time.Time, error) {
	if !p.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: invalid role %v", p.Role)
	}

	now := j.now()
	exp := now.Add(j.ttl)
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: p.Email,
		Role:  p.Role,
	}).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tk, exp, nil
}

func (j *JWT) Verify(raw string) (models.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Principal{}, fmt.Errorf("%w: %w", ErrExpired, err)
		}
		return models.Principal{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.Subject == "" || !c.Role.Valid() {
		return models.Principal{}, fmt.Errorf("%w: missing subject or role", ErrInvalid)
	}

	return models.Principal{ID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
