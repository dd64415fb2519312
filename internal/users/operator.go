package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Verifier checks a submitted username/password pair and returns the
// canonical username on success.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (string, error)
}

type OperatorConfig struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

// Operator is a Verifier that knows exactly one identity.
type Operator struct {
	username     string
	passwordHash string
}

// NewOperator builds the single-operator verifier. A configured bcrypt hash
// wins over the plain password, which is hashed once here.
func NewOperator(cfg OperatorConfig) (*Operator, error) {
	if cfg.Username == "" {
		return nil, errors.New("operator username is required")
	}

	hash := cfg.PasswordHash
	switch {
	case hash != "":
		if !IsHash(hash) {
			return nil, errors.New("operator password_hash is not a bcrypt hash")
		}
	case cfg.Password != "":
		var err error
		hash, err = HashPassword(cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("hash operator password: %w", err)
		}
	default:
		return nil, errors.New("operator password or password_hash is required")
	}

	return &Operator{username: cfg.Username, passwordHash: hash}, nil
}

func (o *Operator) Verify(_ context.Context, username, password string) (string, error) {
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(o.username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passOK := CheckPassword(password, o.passwordHash)
	if !nameOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return o.username, nil
}
