package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Candidate is a verified external identity (or a manual registration)
// presented to the resolver.
type Candidate struct {
	Email       string
	DisplayName string
	AvatarURL   string

	// Provider is one of the Provider* constants.
	Provider string

	// ExternalID is the provider's user id. Empty for manual accounts.
	ExternalID string

	// PasswordHash is set only for manual registration.
	PasswordHash string
}

// Resolver maps candidates onto the single UserIdentity record for their
// email. It never deletes or merges records; an email collision across
// providers always resolves to the pre-existing record.
type Resolver struct {
	Store UserStore
}

// ResolveOrCreate finds the record for the candidate's email, linking the
// provider's external id on first contact, or creates a new record. A
// create that loses a concurrent race re-reads and links instead, so the
// one-record-per-email invariant holds even under concurrent logins.
func (r *Resolver) ResolveOrCreate(ctx context.Context, cand Candidate) (*UserIdentity, error) {
	email := NormalizeEmail(cand.Email)
	if email == "" {
		return nil, fmt.Errorf("candidate has no email")
	}

	user, err := r.Store.GetUserByEmail(ctx, email)
	if err == nil {
		return r.touch(ctx, user, cand)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user = r.newIdentity(email, cand)
	err = r.Store.CreateUser(ctx, user)
	if err == nil {
		log.Printf("created user %s for %s via %s", user.ID, user.Email, user.AuthProvider)
		return user, nil
	}
	if !errors.Is(err, ErrEmailExists) {
		return nil, err
	}

	// Lost the create race; the record exists now, so link into it.
	user, err = r.Store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return r.touch(ctx, user, cand)
}

// Register creates a brand new manual account. An existing record for the
// email is a hard failure here, never a link target.
func (r *Resolver) Register(ctx context.Context, cand Candidate) (*UserIdentity, error) {
	email := NormalizeEmail(cand.Email)
	if email == "" {
		return nil, fmt.Errorf("candidate has no email")
	}
	user := r.newIdentity(email, cand)
	if err := r.Store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("registered user %s for %s", user.ID, user.Email)
	return user, nil
}

func (r *Resolver) newIdentity(email string, cand Candidate) *UserIdentity {
	now := time.Now().UTC()
	user := &UserIdentity{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  cand.DisplayName,
		AvatarURL:    cand.AvatarURL,
		AuthProvider: cand.Provider,
		ExternalIDs:  map[string]string{},
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	if cand.Provider == ProviderManual {
		user.PasswordHash = cand.PasswordHash
	}
	if cand.ExternalID != "" {
		user.ExternalIDs[cand.Provider] = cand.ExternalID
	}
	if user.AvatarURL == "" {
		user.AvatarURL = DefaultAvatarURL(user.DisplayName)
	}
	return user
}

// touch links the external id (first contact only, an existing link is
// never overwritten) and bumps LastLoginAt.
func (r *Resolver) touch(ctx context.Context, user *UserIdentity, cand Candidate) (*UserIdentity, error) {
	if cand.ExternalID != "" {
		if user.ExternalIDs == nil {
			user.ExternalIDs = map[string]string{}
		}
		if _, linked := user.ExternalIDs[cand.Provider]; !linked {
			user.ExternalIDs[cand.Provider] = cand.ExternalID
			if user.DisplayName == "" {
				user.DisplayName = cand.DisplayName
			}
			if user.AvatarURL == "" {
				user.AvatarURL = cand.AvatarURL
			}
			log.Printf("linked %s identity to user %s", cand.Provider, user.ID)
		}
	}
	user.LastLoginAt = time.Now().UTC()
	if err := r.Store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
