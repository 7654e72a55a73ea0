package authcore_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	ac "github.com/sentinelai/authcore"
)

func TestEnsureUserBlocksAnonymous(t *testing.T) {
	sessions := ac.NewSessionManager("TestApp")
	guard := &ac.Guard{Sessions: sessions}

	handler := sessions.LoadAndSave(guard.EnsureUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("protected handler should not run for anonymous callers")
	})))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestEnsureUserRedirectsToLogin(t *testing.T) {
	sessions := ac.NewSessionManager("TestApp")
	guard := &ac.Guard{Sessions: sessions, LoginURL: "/login"}

	handler := sessions.LoadAndSave(guard.EnsureUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("protected handler should not run for anonymous callers")
	})))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?callbackURL=%2Fdashboard" {
		t.Errorf("Location = %q", loc)
	}
}

func TestEnsureUserAllowsLiveSession(t *testing.T) {
	sessions := ac.NewSessionManager("TestApp")
	guard := &ac.Guard{Sessions: sessions}
	user := &ac.UserIdentity{ID: "user-7", Email: "g@example.com", DisplayName: "G"}

	w := roundtrip(t, sessions, nil, "/login", func(w http.ResponseWriter, r *http.Request) {
		sessions.Start(w, r, user)
	})
	cookies := w.Result().Cookies()

	var seen string
	protected := sessions.LoadAndSave(guard.EnsureUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = guard.GetLoggedInUserId(r)
	})))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen != "user-7" {
		t.Errorf("logged in user id = %q, want user-7", seen)
	}
}

func TestEnsureUserAcceptsBearerToken(t *testing.T) {
	sessions := ac.NewSessionManager("TestApp")
	guard := &ac.Guard{Sessions: sessions}

	token, err := sessions.IssueAuthToken("user-9")
	if err != nil {
		t.Fatalf("IssueAuthToken failed: %v", err)
	}

	var seen string
	protected := sessions.LoadAndSave(guard.EnsureUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = guard.GetLoggedInUserId(r)
	})))

	req := httptest.NewRequest("GET", "/api/things", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen != "user-9" {
		t.Errorf("logged in user id = %q, want user-9", seen)
	}
}
