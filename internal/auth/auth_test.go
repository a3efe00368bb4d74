package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/storage"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User // by email
}

func (m *memoryUsers) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || strings.EqualFold(u.Profile.Handle, user.Profile.Handle) {
			return storage.ErrConflict
		}
	}
	m.users[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(&memoryUsers{users: map[string]*models.User{}})

	user, err := a.Register(ctx, " Ringo@Example.com ", "Ringo", "ringo", "yellowsubmarine")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "ringo@example.com" || user.Profile.Handle != "ringo" {
		t.Errorf("unexpected user %+v", user)
	}
	if user.PasswordHash == "yellowsubmarine" {
		t.Error("password stored in clear text")
	}

	t.Run("register errors", func(t *testing.T) {
		tests := []struct {
			name     string
			email    string
			handle   string
			password string
			wantErr  error
		}{
			{"weak password", "a@example.com", "paul", "short", ErrWeakPassword},
			{"handle too short", "a@example.com", "pm", "longenough", ErrInvalidHandle},
			{"handle with spaces", "a@example.com", "paul mc", "longenough", ErrInvalidHandle},
			{"duplicate email", "ringo@example.com", "paul", "longenough", ErrAccountExists},
			{"duplicate handle", "a@example.com", "RINGO", "longenough", ErrAccountExists},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := a.Register(ctx, tt.email, "x", tt.handle, tt.password); !errors.Is(err, tt.wantErr) {
					t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("authenticate", func(t *testing.T) {
		got, err := a.Authenticate(ctx, "RINGO@example.com", "yellowsubmarine")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("authenticated %s, want %s", got.ID, user.ID)
		}

		if _, err := a.Authenticate(ctx, "ringo@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("wrong password error = %v", err)
		}
		if _, err := a.Authenticate(ctx, "nobody@example.com", "yellowsubmarine"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("unknown email error = %v", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	user := models.NewUser("john@example.com", "John", "john", "hash")
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Handle != "john" || claims.Subject != user.ID {
		t.Errorf("unexpected claims %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { m.now = time.Now }()
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: user.ID}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to build token: %v", err)
		}
		if _, err := m.Validate(unsigned); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
		}
	})
}
