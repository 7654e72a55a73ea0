package authcore

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	oauth2x "github.com/sentinelai/authcore/oauth2"
)

// Renderer renders a named view with a data object. The auth core never
// inspects the markup it produces.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, view string, data map[string]any)
}

// AuthFlow orchestrates manual credential login, manual registration,
// the OAuth authorization-code flows and logout behind one session
// contract. Every failure returns the caller to the anonymous state
// with a flash message and a redirect; none is fatal to the process.
type AuthFlow struct {
	// Must be passed in
	Store UserStore

	Sessions *SessionManager

	// Providers maps provider name to its configured client. A missing
	// or unconfigured entry disables that provider's entry point.
	Providers map[string]*oauth2x.Provider

	Hasher   *PasswordHasher
	Resolver *Resolver
	Flash    FlashSink

	// Optional view renderer for the login page. When nil a bare inline
	// form is served instead.
	Renderer Renderer

	// Redirect targets
	LoginURL     string // safe entry point after auth failures
	PostLoginURL string // where a fresh session lands
	LandingURL   string // where logout lands

	// Minimum password length accepted at registration
	MinPasswordLength int
}

// EnsureDefaults fills in unset config values.
func (a *AuthFlow) EnsureDefaults() *AuthFlow {
	if a.LoginURL == "" {
		a.LoginURL = "/login"
	}
	if a.PostLoginURL == "" {
		a.PostLoginURL = "/dashboard"
	}
	if a.LandingURL == "" {
		a.LandingURL = "/"
	}
	if a.MinPasswordLength <= 0 {
		a.MinPasswordLength = 6
	}
	if a.Hasher == nil {
		a.Hasher = &PasswordHasher{}
	}
	if a.Resolver == nil {
		a.Resolver = &Resolver{Store: a.Store}
	}
	if a.Sessions == nil {
		a.Sessions = NewSessionManager("")
	}
	return a
}

// Routes registers the auth route set on router. The handler tree must
// be wrapped with Sessions.LoadAndSave.
func (a *AuthFlow) Routes(router *mux.Router) {
	a.EnsureDefaults()
	router.HandleFunc("/login", a.ShowLogin).Methods(http.MethodGet)
	router.HandleFunc("/login", a.HandleLogin).Methods(http.MethodPost)
	router.HandleFunc("/register", a.HandleRegister).Methods(http.MethodPost)
	router.HandleFunc("/logout", a.HandleLogout).Methods(http.MethodGet)
	router.HandleFunc("/auth/{provider}", a.HandleOAuthStart).Methods(http.MethodGet)
	router.HandleFunc("/auth/{provider}/callback", a.HandleOAuthCallback).Methods(http.MethodGet)
}

// Handler returns the auth routes as a standalone handler with the
// session middleware already applied.
func (a *AuthFlow) Handler() http.Handler {
	a.EnsureDefaults()
	router := mux.NewRouter()
	a.Routes(router)
	return a.Sessions.LoadAndSave(router)
}

// ShowLogin renders the login view (the register form is the same view
// on a different tab).
func (a *AuthFlow) ShowLogin(w http.ResponseWriter, r *http.Request) {
	a.EnsureDefaults()
	data := map[string]any{"tab": r.URL.Query().Get("tab")}
	if a.Renderer != nil {
		a.Renderer.Render(w, r, "login", data)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Sign In</title></head>
<body>
<h1>Sign In</h1>
<form method="POST" action="%s">
	<label>Email: <input type="email" name="email" required></label>
	<label>Password: <input type="password" name="password" required></label>
	<button type="submit">Log In</button>
</form>
<form method="POST" action="/register">
	<label>Name: <input type="text" name="name" required></label>
	<label>Email: <input type="email" name="email" required></label>
	<label>Password: <input type="password" name="password" required minlength="%d"></label>
	<label>Confirm: <input type="password" name="confirm_password" required></label>
	<button type="submit">Create Account</button>
</form>
<a href="/auth/google">Continue with Google</a>
<a href="/auth/github">Continue with GitHub</a>
</body>
</html>`, a.LoginURL, a.MinPasswordLength)
}

// HandleLogin handles manual login with email/password.
func (a *AuthFlow) HandleLogin(w http.ResponseWriter, r *http.Request) {
	a.EnsureDefaults()
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, NewAuthError(ErrCodeMissingField, "Email and password are required.", "email"), a.LoginURL)
		return
	}
	email := NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		a.fail(w, r, NewAuthError(ErrCodeMissingField, "Email and password are required.", "email"), a.LoginURL)
		return
	}

	user, err := a.Store.GetUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		a.storeUnavailable(w, err)
		return
	}
	// An unknown email and a wrong password must fail identically.
	if err != nil || !a.Hasher.Verify(password, user.PasswordHash) {
		a.fail(w, r, NewAuthError(ErrCodeInvalidCreds, "Invalid email or password.", "password"), a.LoginURL)
		return
	}

	user.LastLoginAt = time.Now().UTC()
	if err := a.Store.UpdateUser(r.Context(), user); err != nil {
		slog.Warn("failed to record login time", "user", user.ID, "err", err)
	}

	a.Sessions.Start(w, r, user)
	a.flash(r, Flash{Message: fmt.Sprintf("Welcome back, %s!", user.DisplayName), Severity: FlashSuccess})
	http.Redirect(w, r, a.PostLoginURL, http.StatusFound)
}

// HandleRegister handles manual registration with email/password and
// logs the new user in.
func (a *AuthFlow) HandleRegister(w http.ResponseWriter, r *http.Request) {
	a.EnsureDefaults()
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, NewAuthError(ErrCodeMissingField, "All fields are required.", ""), a.registerURL())
		return
	}
	name := r.FormValue("name")
	email := NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	if name == "" || email == "" || password == "" || confirm == "" {
		a.fail(w, r, NewAuthError(ErrCodeMissingField, "All fields are required.", ""), a.registerURL())
		return
	}
	if password != confirm {
		a.fail(w, r, NewAuthError(ErrCodePasswordMismatch, "Passwords do not match.", "confirm_password"), a.registerURL())
		return
	}
	if len(password) < a.MinPasswordLength {
		msg := fmt.Sprintf("Password must be at least %d characters long.", a.MinPasswordLength)
		a.fail(w, r, NewAuthError(ErrCodeWeakPassword, msg, "password"), a.registerURL())
		return
	}

	// Friendly duplicate check up front; the store's uniqueness guarantee
	// still backstops the race below.
	_, err := a.Store.GetUserByEmail(r.Context(), email)
	if err == nil {
		a.fail(w, r, NewAuthError(ErrCodeEmailExists, "An account with this email already exists.", "email"), a.registerURL())
		return
	}
	if !errors.Is(err, ErrUserNotFound) {
		a.storeUnavailable(w, err)
		return
	}

	hash, err := a.Hasher.Hash(password)
	if err != nil {
		slog.Error("error hashing password", "err", err)
		a.fail(w, r, NewAuthError(ErrCodeInvalidCreds, "Registration failed. Please try again.", ""), a.registerURL())
		return
	}

	user, err := a.Resolver.Register(r.Context(), Candidate{
		Email:        email,
		DisplayName:  name,
		Provider:     ProviderManual,
		PasswordHash: hash,
	})
	if errors.Is(err, ErrEmailExists) {
		a.fail(w, r, NewAuthError(ErrCodeEmailExists, "An account with this email already exists.", "email"), a.registerURL())
		return
	}
	if err != nil {
		a.storeUnavailable(w, err)
		return
	}

	a.Sessions.Start(w, r, user)
	a.flash(r, Flash{Message: fmt.Sprintf("Account created successfully! Welcome, %s!", user.DisplayName), Severity: FlashSuccess})
	http.Redirect(w, r, a.PostLoginURL, http.StatusFound)
}

// HandleLogout clears the session from any state.
func (a *AuthFlow) HandleLogout(w http.ResponseWriter, r *http.Request) {
	a.EnsureDefaults()
	a.Sessions.Clear(w, r)
	a.flash(r, Flash{Message: "You have been logged out successfully.", Severity: FlashSuccess})
	http.Redirect(w, r, a.LandingURL, http.StatusFound)
}

// HandleOAuthStart issues the state nonce and redirects to the provider.
func (a *AuthFlow) HandleOAuthStart(w http.ResponseWriter, r *http.Request) {
	a.EnsureDefaults()
	name := mux.Vars(r)["provider"]
	provider := a.Providers[name]
	if !provider.Configured() {
		msg := fmt.Sprintf("%s login is not configured.", name)
		a.fail(w, r, NewAuthError(ErrCodeProviderDisabled, msg, ""), a.LoginURL)
		return
	}

	state := oauth2x.GenerateState()
	a.Sessions.IssueOAuthState(r, state)
	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// HandleOAuthCallback finalizes a provider login: the state check is
// mandatory, then code exchange, profile fetch, identity resolution and
// session start.
func (a *AuthFlow) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	a.EnsureDefaults()
	name := mux.Vars(r)["provider"]
	provider := a.Providers[name]
	if !provider.Configured() {
		msg := fmt.Sprintf("%s login is not configured.", name)
		a.fail(w, r, NewAuthError(ErrCodeProviderDisabled, msg, ""), a.LoginURL)
		return
	}

	// The issued nonce is cleared here no matter what happens next, so a
	// replayed callback always fails. The message stays generic: callers
	// must not learn which check rejected them.
	issued := a.Sessions.ConsumeOAuthState(r)
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if issued == "" || state == "" || subtle.ConstantTimeCompare([]byte(issued), []byte(state)) != 1 {
		slog.Warn("oauth state rejected", "provider", name)
		a.fail(w, r, NewAuthError(ErrCodeOAuthState, "Authorization failed. Please try again.", ""), a.LoginURL)
		return
	}
	if code == "" {
		a.fail(w, r, NewAuthError(ErrCodeOAuthState, "Authorization failed. Please try again.", ""), a.LoginURL)
		return
	}

	token, err := provider.Exchange(r.Context(), code)
	if err != nil {
		slog.Info("code exchange failed", "provider", name, "err", err)
		a.fail(w, r, NewAuthError(ErrCodeOAuthExchange, "Authorization failed. Please try again.", ""), a.LoginURL)
		return
	}

	profile, err := provider.FetchProfile(r.Context(), token)
	if err != nil {
		slog.Info("profile fetch failed", "provider", name, "err", err)
		a.fail(w, r, NewAuthError(ErrCodeOAuthProfile, "Authorization failed. Please try again.", ""), a.LoginURL)
		return
	}

	user, err := a.Resolver.ResolveOrCreate(r.Context(), Candidate{
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		Provider:    name,
		ExternalID:  profile.ExternalID,
	})
	if err != nil {
		a.storeUnavailable(w, err)
		return
	}

	a.Sessions.Start(w, r, user)
	a.flash(r, Flash{Message: fmt.Sprintf("Successfully logged in with %s! Welcome, %s!", name, user.DisplayName), Severity: FlashSuccess})
	http.Redirect(w, r, a.PostLoginURL, http.StatusFound)
}

func (a *AuthFlow) registerURL() string {
	return a.LoginURL + "?tab=register"
}

func (a *AuthFlow) flash(r *http.Request, f Flash) {
	if a.Flash != nil {
		a.Flash.Push(r, f)
	}
}

// fail converts an AuthError into a flash plus a redirect to a safe
// entry point; the caller stays anonymous.
func (a *AuthFlow) fail(w http.ResponseWriter, r *http.Request, authErr *AuthError, target string) {
	log.Println("auth flow rejected: ", authErr.Code)
	a.flash(r, Flash{Message: authErr.Message, Severity: FlashError})
	http.Redirect(w, r, target, http.StatusFound)
}

// storeUnavailable surfaces a backing store failure as a 5xx instead of
// masquerading as bad credentials.
func (a *AuthFlow) storeUnavailable(w http.ResponseWriter, err error) {
	slog.Error("user store unavailable", "err", err)
	http.Error(w, "Service temporarily unavailable. Please try again later.", http.StatusServiceUnavailable)
}
