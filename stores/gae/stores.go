//go:build !wasm
// +build !wasm

package gae

import (
	"context"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	ac "github.com/sentinelai/authcore"
)

// KindUser is the Datastore kind for user identity records
const KindUser = "User"

// UserStore implements authcore.UserStore using Google Cloud Datastore
type UserStore struct {
	client    *datastore.Client
	namespace string
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *UserStore) userKey(email string) *datastore.Key {
	key := datastore.NameKey(KindUser, ac.NormalizeEmail(email), nil)
	key.Namespace = s.namespace
	return key
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*ac.UserIdentity, error) {
	key := s.userKey(email)
	var entity UserEntity
	if err := s.client.Get(ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, ac.ErrUserNotFound
		}
		return nil, err
	}
	entity.Key = key
	return entity.ToUserIdentity(), nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *ac.UserIdentity) error {
	key := s.userKey(user.Email)
	entity := UserIdentityToEntity(user, key)

	// Get-then-put inside a transaction so two concurrent creates for
	// the same email cannot both succeed.
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing UserEntity
		err := tx.Get(key, &existing)
		if err == nil {
			return ac.ErrEmailExists
		}
		if err != datastore.ErrNoSuchEntity {
			return err
		}
		_, err = tx.Put(key, entity)
		return err
	})
	return err
}

func (s *UserStore) UpdateUser(ctx context.Context, user *ac.UserIdentity) error {
	key := s.userKey(user.Email)
	entity := UserIdentityToEntity(user, key)

	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing UserEntity
		if err := tx.Get(key, &existing); err != nil {
			if err == datastore.ErrNoSuchEntity {
				return ac.ErrUserNotFound
			}
			return err
		}
		_, err := tx.Put(key, entity)
		return err
	})
	return err
}

func (s *UserStore) CountUsers(ctx context.Context) (int64, error) {
	query := datastore.NewQuery(KindUser).KeysOnly()
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var count int64
	it := s.client.Run(ctx, query)
	for {
		_, err := it.Next(nil)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}
