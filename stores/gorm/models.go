package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	ac "github.com/sentinelai/authcore"
)

// StringMap stores a string-to-string mapping as JSON in GORM
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// UserModel is the GORM model for user identity records. The unique
// index on email is what enforces one record per email under concurrent
// registrations.
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"size:255;uniqueIndex"`
	DisplayName  string    `gorm:"size:255"`
	AvatarURL    string    `gorm:"size:512"`
	PasswordHash string    `gorm:"size:255"`
	AuthProvider string    `gorm:"size:32"`
	ExternalIDs  StringMap `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	LastLoginAt  time.Time
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUserIdentity() *ac.UserIdentity {
	return &ac.UserIdentity{
		ID:           m.ID,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		AvatarURL:    m.AvatarURL,
		PasswordHash: m.PasswordHash,
		AuthProvider: m.AuthProvider,
		ExternalIDs:  map[string]string(m.ExternalIDs),
		CreatedAt:    m.CreatedAt,
		LastLoginAt:  m.LastLoginAt,
	}
}

func UserIdentityToModel(user *ac.UserIdentity) *UserModel {
	return &UserModel{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		AvatarURL:    user.AvatarURL,
		PasswordHash: user.PasswordHash,
		AuthProvider: user.AuthProvider,
		ExternalIDs:  StringMap(user.ExternalIDs),
		CreatedAt:    user.CreatedAt,
		LastLoginAt:  user.LastLoginAt,
	}
}
