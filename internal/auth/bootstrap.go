package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// Fixed identity of the bootstrap administrator.
const (
	AdminUsername = "admin"
	AdminEmail    = "admin@plevenlab.org"
)

// AccountStore is the persistence the bootstrapper needs.
type AccountStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *User) error
}

// EnsureAdministrativeAccount creates the administrator account when the
// store holds no users. The generated password is logged once at WARN level
// and returned; it is never stored in plaintext. Returns "" when users
// already exist.
//
// Must complete before the HTTP listener starts.
func EnsureAdministrativeAccount(ctx context.Context, store AccountStore, logger *slog.Logger) (string, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Debug("users exist, skipping administrator bootstrap")
		return "", nil
	}

	password, err := GenerateSecret(BootstrapPolicy)
	if err != nil {
		return "", fmt.Errorf("generating administrator password: %w", err)
	}

	cred, err := NewCredential(password)
	if err != nil {
		return "", fmt.Errorf("deriving administrator credential: %w", err)
	}

	admin := &User{
		Name:       AdminUsername,
		Email:      AdminEmail,
		Credential: cred,
	}
	if err := store.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating administrator: %w", err)
	}

	logger.Warn("administrator account created",
		"username", AdminUsername,
		"password", password,
	)

	return password, nil
}
