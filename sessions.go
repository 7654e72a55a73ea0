package authcore

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Session variable names.
const (
	sessionKeyUserID     = "loggedInUserId"
	sessionKeyEmail      = "userEmail"
	sessionKeyName       = "userName"
	sessionKeyAvatar     = "userAvatar"
	sessionKeyOAuthState = "oauthState"
)

// SessionRecord is the denormalized login snapshot carried by the
// session. It is taken once at login and not re-read from the store on
// every request.
type SessionRecord struct {
	UserID      string
	Email       string
	DisplayName string
	AvatarURL   string
}

// SessionManager issues, reads and clears the server-side login session,
// and owns the single-use oauth state nonce between "redirect to
// provider" and "callback received". Alongside the session it sets a
// signed JWT cookie so non-browser callers can authenticate too.
type SessionManager struct {
	Manager *scs.SessionManager

	// Optional name used as a prefix for cookie and env var names
	AppName string

	// Name of the cookie carrying the signed auth token
	AuthTokenCookieName string

	// All the domains the auth token cookies are set on at login/logout
	CookieDomains []string

	// JWT related fields
	JwtIssuer    string
	JWTSecretKey string

	// How long a session cookie is valid for. Defaults to 1 day
	SessionTimeoutInSeconds int
}

// NewSessionManager returns a session manager with defaults applied.
func NewSessionManager(appName string) *SessionManager {
	return (&SessionManager{AppName: appName}).EnsureDefaults()
}

// EnsureDefaults fills in unset config values.
func (s *SessionManager) EnsureDefaults() *SessionManager {
	if s.AppName == "" {
		s.AppName = "AetherGuard"
	}
	if s.SessionTimeoutInSeconds <= 0 {
		s.SessionTimeoutInSeconds = 86400
	}
	if s.JwtIssuer == "" {
		s.JwtIssuer = fmt.Sprintf("%s-Issuer", s.AppName)
	}
	if s.AuthTokenCookieName == "" {
		s.AuthTokenCookieName = fmt.Sprintf("%sAuthToken", s.AppName)
	}
	if s.JWTSecretKey == "" {
		s.JWTSecretKey = strings.TrimSpace(os.Getenv("AETHERGUARD_JWT_SECRET_KEY"))
		if s.JWTSecretKey == "" {
			s.JWTSecretKey = "MyTestJWTSecretKey123456"
		}
	}
	if s.Manager == nil {
		s.Manager = scs.New()
		s.Manager.Lifetime = time.Duration(s.SessionTimeoutInSeconds) * time.Second
	}
	return s
}

// LoadAndSave is the scs middleware that must wrap any handler using
// this session manager.
func (s *SessionManager) LoadAndSave(next http.Handler) http.Handler {
	s.EnsureDefaults()
	return s.Manager.LoadAndSave(next)
}

// Start writes the login snapshot for user and sets the auth token
// cookies. The session token is renewed so a pre-login session id never
// survives authentication.
func (s *SessionManager) Start(w http.ResponseWriter, r *http.Request, user *UserIdentity) {
	s.EnsureDefaults()
	ctx := r.Context()
	if err := s.Manager.RenewToken(ctx); err != nil {
		slog.Warn("error renewing session token", "err", err)
	}
	s.Manager.Put(ctx, sessionKeyUserID, user.ID)
	s.Manager.Put(ctx, sessionKeyEmail, user.Email)
	s.Manager.Put(ctx, sessionKeyName, user.DisplayName)
	s.Manager.Put(ctx, sessionKeyAvatar, user.AvatarURL)
	s.setAuthCookies(user.ID, w)
}

// Current returns the login snapshot for this request, or nil when the
// caller is anonymous.
func (s *SessionManager) Current(r *http.Request) *SessionRecord {
	s.EnsureDefaults()
	ctx := r.Context()
	userID := s.Manager.GetString(ctx, sessionKeyUserID)
	if userID == "" {
		return nil
	}
	return &SessionRecord{
		UserID:      userID,
		Email:       s.Manager.GetString(ctx, sessionKeyEmail),
		DisplayName: s.Manager.GetString(ctx, sessionKeyName),
		AvatarURL:   s.Manager.GetString(ctx, sessionKeyAvatar),
	}
}

// Clear is a full logout: the session is destroyed and every auth cookie
// expired.
func (s *SessionManager) Clear(w http.ResponseWriter, r *http.Request) {
	s.EnsureDefaults()
	if err := s.Manager.Destroy(r.Context()); err != nil {
		slog.Warn("error clearing session", "err", err)
	}
	s.clearAuthCookies(w)
}

// IssueOAuthState stores the nonce for a pending provider redirect. The
// slot is write-once: a new flow simply replaces any stale nonce.
func (s *SessionManager) IssueOAuthState(r *http.Request, nonce string) {
	s.EnsureDefaults()
	s.Manager.Put(r.Context(), sessionKeyOAuthState, nonce)
}

// ConsumeOAuthState returns the pending nonce and clears it whether or
// not the caller's comparison succeeds, so a callback can never be
// replayed against the same nonce.
func (s *SessionManager) ConsumeOAuthState(r *http.Request) string {
	s.EnsureDefaults()
	return s.Manager.PopString(r.Context(), sessionKeyOAuthState)
}

// IssueAuthToken signs a JWT for the given user id.
func (s *SessionManager) IssueAuthToken(userID string) (string, error) {
	s.EnsureDefaults()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iss": s.JwtIssuer,
		"aud": "dashboard",
		"exp": time.Now().Add(time.Second * time.Duration(s.SessionTimeoutInSeconds)).Unix(),
		"iat": time.Now().Unix(),
	})
	return token.SignedString([]byte(s.JWTSecretKey))
}

// VerifyAuthToken parses a signed auth token and returns the user id it
// was issued for.
func (s *SessionManager) VerifyAuthToken(tokenString string) (loggedInUserID string, err error) {
	s.EnsureDefaults()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(s.JWTSecretKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return "", fmt.Errorf("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	} else if sub == "" {
		return "", fmt.Errorf("subject not found")
	}
	return sub, nil
}

func (s *SessionManager) cookieDomains() []string {
	domains := s.CookieDomains
	if slices.Index(domains, "") < 0 { // default domain
		domains = append(domains, "")
	}
	return domains
}

func (s *SessionManager) setAuthCookies(userID string, w http.ResponseWriter) {
	tokenString, err := s.IssueAuthToken(userID)
	if err != nil {
		slog.Warn("error signing auth token", "err", err)
		return
	}
	for _, cookieDomain := range s.cookieDomains() {
		http.SetCookie(w, &http.Cookie{
			Name:     s.AuthTokenCookieName,
			Value:    tokenString,
			Domain:   cookieDomain,
			Path:     "/",
			HttpOnly: true,
			Expires:  time.Now().Add(time.Second * time.Duration(s.SessionTimeoutInSeconds)),
			MaxAge:   s.SessionTimeoutInSeconds,
		})
	}
}

func (s *SessionManager) clearAuthCookies(w http.ResponseWriter) {
	for _, cookieDomain := range s.cookieDomains() {
		http.SetCookie(w, &http.Cookie{
			Name:    s.AuthTokenCookieName,
			Domain:  cookieDomain,
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Now(),
		})
	}
}
