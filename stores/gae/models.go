//go:build !wasm
// +build !wasm

package gae

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/datastore"
	ac "github.com/sentinelai/authcore"
)

// UserEntity is the Datastore entity for user identity records.
// The entity key is the normalized email, so uniqueness per email is
// enforced by the keyspace itself.
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	UserID       string         `datastore:"user_id"`
	DisplayName  string         `datastore:"display_name"`
	AvatarURL    string         `datastore:"avatar_url,noindex"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	AuthProvider string         `datastore:"auth_provider"`
	ExternalIDs  []byte         `datastore:"external_ids,noindex"` // JSON encoded
	CreatedAt    time.Time      `datastore:"created_at"`
	LastLoginAt  time.Time      `datastore:"last_login_at"`
}

func (e *UserEntity) ToUserIdentity() *ac.UserIdentity {
	var externalIDs map[string]string
	if e.ExternalIDs != nil {
		json.Unmarshal(e.ExternalIDs, &externalIDs)
	}

	return &ac.UserIdentity{
		ID:           e.UserID,
		Email:        e.Key.Name,
		DisplayName:  e.DisplayName,
		AvatarURL:    e.AvatarURL,
		PasswordHash: e.PasswordHash,
		AuthProvider: e.AuthProvider,
		ExternalIDs:  externalIDs,
		CreatedAt:    e.CreatedAt,
		LastLoginAt:  e.LastLoginAt,
	}
}

func UserIdentityToEntity(user *ac.UserIdentity, key *datastore.Key) *UserEntity {
	var idBytes []byte
	if user.ExternalIDs != nil {
		idBytes, _ = json.Marshal(user.ExternalIDs)
	}

	return &UserEntity{
		Key:          key,
		UserID:       user.ID,
		DisplayName:  user.DisplayName,
		AvatarURL:    user.AvatarURL,
		PasswordHash: user.PasswordHash,
		AuthProvider: user.AuthProvider,
		ExternalIDs:  idBytes,
		CreatedAt:    user.CreatedAt,
		LastLoginAt:  user.LastLoginAt,
	}
}
