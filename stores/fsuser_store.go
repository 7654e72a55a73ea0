package stores

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	ac "github.com/sentinelai/authcore"
)

// FSUserStore keeps one JSON file per account under StoragePath/users,
// keyed by email. Suitable for development and tests; the O_EXCL create
// gives it the same insert-if-absent guarantee the database stores have.
type FSUserStore struct {
	StoragePath string
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) getUserPath(email string) string {
	return filepath.Join(s.StoragePath, "users", url.PathEscape(email)+".json")
}

func (s *FSUserStore) GetUserByEmail(ctx context.Context, email string) (*ac.UserIdentity, error) {
	data, err := os.ReadFile(s.getUserPath(ac.NormalizeEmail(email)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ac.ErrUserNotFound
		}
		return nil, err
	}

	var user ac.UserIdentity
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *FSUserStore) CreateUser(ctx context.Context, user *ac.UserIdentity) error {
	path := s.getUserPath(ac.NormalizeEmail(user.Email))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}

	// O_EXCL makes the create atomic: of two concurrent registrations for
	// one email, exactly one wins.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ac.ErrEmailExists
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FSUserStore) UpdateUser(ctx context.Context, user *ac.UserIdentity) error {
	path := s.getUserPath(ac.NormalizeEmail(user.Email))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ac.ErrUserNotFound
		}
		return err
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSUserStore) CountUsers(ctx context.Context) (int64, error) {
	entries, err := os.ReadDir(filepath.Join(s.StoragePath, "users"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var count int64
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}
	return count, nil
}
