package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/EternisAI/dockpanel/internal/users"
)

var (
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrUnauthorized  = errors.New("unauthorized")
)

const bearerScheme = "bearer"

// Credential is a freshly minted token and the instant it stops being valid.
type Credential struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}

// Guard issues and validates credentials. It holds no per-request state.
type Guard struct {
	verifier users.Verifier
	config   JWTConfig
	now      func() time.Time
}

type Option func(*Guard)

// WithClock replaces the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

func NewGuard(verifier users.Verifier, config JWTConfig, opts ...Option) (*Guard, error) {
	if config.Secret == "" {
		return nil, ErrMissingSecret
	}
	if config.Expiry <= 0 {
		config.Expiry = DefaultTokenTTL
	}

	g := &Guard{
		verifier: verifier,
		config:   config,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Guard) Issue(ctx context.Context, username, password string) (Credential, error) {
	subject, err := g.verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return Credential{}, ErrUnauthorized
		}
		return Credential{}, fmt.Errorf("verify credentials: %w", err)
	}

	// Token dates have second precision.
	issuedAt := g.now().Truncate(time.Second)
	token, err := GenerateToken(g.config, subject, issuedAt)
	if err != nil {
		return Credential{}, fmt.Errorf("generate token: %w", err)
	}

	return Credential{
		Token:     token,
		Subject:   subject,
		ExpiresAt: issuedAt.Add(g.config.Expiry),
	}, nil
}

// Validate checks a raw token. Every failure is ErrUnauthorized.
func (g *Guard) Validate(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := ValidateToken(g.config.Secret, token, g.now())
	if err != nil {
		slog.Debug("Token rejected", "reason", err)
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// ValidateHeader checks an Authorization header value of the form
// "Bearer <token>".
func (g *Guard) ValidateHeader(header string) (*Claims, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return nil, ErrUnauthorized
	}
	return g.Validate(strings.TrimSpace(token))
}
