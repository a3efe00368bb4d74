// Package auth handles account registration, credential checks and session tokens.
package auth

import (
	"context"

	"github.com/mmynk/bandmates/internal/models"
)

// Authenticator registers and authenticates users.
// Implementations decide what a credential is (password, OAuth token, ...).
type Authenticator interface {
	// Register creates an account and its public profile under handle.
	Register(ctx context.Context, email, displayName, handle, credential string) (*models.User, error)

	// Authenticate returns the user owning email if credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}
