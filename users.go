package authcore

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

// Provider names recorded on an account. AuthProvider remembers how the
// account was first created; later logins via other providers link into
// the same record instead of creating a new one.
const (
	ProviderManual = "manual"
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

var (
	// ErrUserNotFound is returned by stores when no record exists for an email.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned by stores when a create collides with an
	// existing record for the same email.
	ErrEmailExists = errors.New("email already registered")
)

// UserIdentity is the canonical account record. Email is the unique key:
// exactly one record per email regardless of how many providers have
// authenticated it.
type UserIdentity struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	DisplayName  string            `json:"display_name"`
	AvatarURL    string            `json:"avatar_url"`
	PasswordHash string            `json:"password_hash,omitempty"`
	AuthProvider string            `json:"auth_provider"`
	ExternalIDs  map[string]string `json:"external_ids"`
	CreatedAt    time.Time         `json:"created_at"`
	LastLoginAt  time.Time         `json:"last_login_at"`
}

// UserStore is the credential store: a document collection of user
// records keyed by email. CreateUser must fail with ErrEmailExists when a
// record for the email already exists, atomically, so that concurrent
// registrations for the same email can never produce two records.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*UserIdentity, error)
	CreateUser(ctx context.Context, user *UserIdentity) error
	UpdateUser(ctx context.Context, user *UserIdentity) error
	CountUsers(ctx context.Context) (int64, error)
}

// NormalizeEmail canonicalizes an email for use as a store key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultAvatarURL returns the generated avatar used for accounts whose
// provider supplied no picture.
func DefaultAvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=0891b2&color=fff"
}
