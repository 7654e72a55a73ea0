package stores_test

import (
	"context"
	"errors"
	"testing"
	"time"

	ac "github.com/sentinelai/authcore"
	"github.com/sentinelai/authcore/stores"
)

func testUser(email string) *ac.UserIdentity {
	now := time.Now().UTC()
	return &ac.UserIdentity{
		ID:           "id-" + email,
		Email:        email,
		DisplayName:  "Test User",
		AuthProvider: ac.ProviderManual,
		PasswordHash: "somehash",
		ExternalIDs:  map[string]string{},
		CreatedAt:    now,
		LastLoginAt:  now,
	}
}

func TestFSUserStoreCreateAndGet(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())
	ctx := context.Background()

	user := testUser("fs@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "fs@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email || got.PasswordHash != user.PasswordHash {
		t.Errorf("roundtrip mismatch: got %+v", got)
	}

	// Lookup is case and whitespace insensitive.
	if _, err := store.GetUserByEmail(ctx, "  FS@Example.COM "); err != nil {
		t.Errorf("normalized lookup failed: %v", err)
	}
}

func TestFSUserStoreGetMissing(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())

	_, err := store.GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, ac.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestFSUserStoreCreateDuplicate(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())
	ctx := context.Background()

	if err := store.CreateUser(ctx, testUser("dup@example.com")); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}
	err := store.CreateUser(ctx, testUser("dup@example.com"))
	if !errors.Is(err, ac.ErrEmailExists) {
		t.Errorf("err = %v, want ErrEmailExists", err)
	}

	count, err := store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestFSUserStoreUpdate(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())
	ctx := context.Background()

	user := testUser("up@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	user.DisplayName = "Renamed"
	user.ExternalIDs["google"] = "g-55"
	if err := store.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "up@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.DisplayName != "Renamed" || got.ExternalIDs["google"] != "g-55" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestFSUserStoreUpdateMissing(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())

	err := store.UpdateUser(context.Background(), testUser("ghost@example.com"))
	if !errors.Is(err, ac.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestFSUserStoreCount(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())
	ctx := context.Background()

	count, err := store.CountUsers(ctx)
	if err != nil || count != 0 {
		t.Fatalf("empty store count = %d, %v", count, err)
	}

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if err := store.CreateUser(ctx, testUser(email)); err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", email, err)
		}
	}

	count, err = store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
