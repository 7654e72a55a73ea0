package authcore_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	ac "github.com/sentinelai/authcore"
)

// roundtrip runs one request through the session middleware and returns
// the recorder, so tests can chain requests the way a browser would.
func roundtrip(t *testing.T, sessions *ac.SessionManager, cookies []*http.Cookie, target string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	sessions.LoadAndSave(handler).ServeHTTP(w, req)
	return w
}

func TestSessionStartCurrentClear(t *testing.T) {
	sessions := ac.NewSessionManager("TestApp")
	user := &ac.UserIdentity{
		ID:          "user-1",
		Email:       "session@example.com",
		DisplayName: "Session User",
		AvatarURL:   "https://example.com/a.png",
	}

	w := roundtrip(t, sessions, nil, "/login", func(w http.ResponseWriter, r *http.Request) {
		sessions.Start(w, r, user)
	})
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login should set session cookies")
	}

	w = roundtrip(t, sessions, cookies, "/dashboard", func(w http.ResponseWriter, r *http.Request) {
		record := sessions.Current(r)
		if record == nil {
			t.Fatal("expected a live session after Start")
		}
		if record.UserID != "user-1" || record.Email != "session@example.com" {
			t.Errorf("unexpected snapshot: %+v", record)
		}
		if record.DisplayName != "Session User" || record.AvatarURL != "https://example.com/a.png" {
			t.Errorf("snapshot missing profile fields: %+v", record)
		}
	})

	w = roundtrip(t, sessions, cookies, "/logout", func(w http.ResponseWriter, r *http.Request) {
		sessions.Clear(w, r)
	})
	cleared := append(cookies, w.Result().Cookies()...)

	roundtrip(t, sessions, cleared, "/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if record := sessions.Current(r); record != nil {
			t.Errorf("session should be gone after Clear, got %+v", record)
		}
	})
}

func TestCurrentIsNilForAnonymous(t *testing.T) {
	sessions := ac.NewSessionManager("TestApp")
	roundtrip(t, sessions, nil, "/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if record := sessions.Current(r); record != nil {
			t.Errorf("anonymous request should have no session, got %+v", record)
		}
	})
}

func TestOAuthStateSingleUse(t *testing.T) {
	sessions := ac.NewSessionManager("TestApp")

	w := roundtrip(t, sessions, nil, "/auth/google", func(w http.ResponseWriter, r *http.Request) {
		sessions.IssueOAuthState(r, "nonce-abc")
	})
	cookies := w.Result().Cookies()

	w = roundtrip(t, sessions, cookies, "/auth/google/callback", func(w http.ResponseWriter, r *http.Request) {
		if got := sessions.ConsumeOAuthState(r); got != "nonce-abc" {
			t.Errorf("first consume = %q, want nonce-abc", got)
		}
	})
	cookies = append(cookies, w.Result().Cookies()...)

	roundtrip(t, sessions, cookies, "/auth/google/callback", func(w http.ResponseWriter, r *http.Request) {
		if got := sessions.ConsumeOAuthState(r); got != "" {
			t.Errorf("second consume = %q, want empty (single use)", got)
		}
	})
}

func TestAuthTokenRoundtrip(t *testing.T) {
	sessions := ac.NewSessionManager("TestApp")

	token, err := sessions.IssueAuthToken("user-42")
	if err != nil {
		t.Fatalf("IssueAuthToken failed: %v", err)
	}
	userID, err := sessions.VerifyAuthToken(token)
	if err != nil {
		t.Fatalf("VerifyAuthToken failed: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("VerifyAuthToken = %q, want user-42", userID)
	}

	if _, err := sessions.VerifyAuthToken("not.a.token"); err == nil {
		t.Error("garbage token should not verify")
	}

	other := ac.NewSessionManager("TestApp")
	other.JWTSecretKey = "ADifferentSecretEntirely0"
	if _, err := other.VerifyAuthToken(token); err == nil {
		t.Error("token signed with another key should not verify")
	}
}
