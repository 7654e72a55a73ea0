package authcore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type userParamNameKey string

// Guard protects routes behind a live session, with a signed auth token
// (header or cookie) fallback for non-browser callers.
type Guard struct {
	Sessions *SessionManager

	AuthTokenHeaderName string
	UserParamName       string
	CallbackURLParam    string

	// Where EnsureUser sends anonymous callers. Empty means a plain 401.
	LoginURL string
}

// EnsureReasonableDefaults fills in unset config values.
func (g *Guard) EnsureReasonableDefaults() {
	if g.UserParamName == "" {
		g.UserParamName = "loggedInUserId"
	}
	if g.CallbackURLParam == "" {
		g.CallbackURLParam = "callbackURL"
	}
	if g.AuthTokenHeaderName == "" {
		g.AuthTokenHeaderName = "Authorization"
	}
}

// GetLoggedInUserId returns the id of the logged in user for the current
// request, or "" for anonymous callers.
func (g *Guard) GetLoggedInUserId(r *http.Request) string {
	v := r.Context().Value(userParamNameKey(g.UserParamName))
	if v != nil {
		if loggedInUserId, ok := v.(string); ok && loggedInUserId != "" {
			return loggedInUserId
		}
	}

	// Session first
	if record := g.Sessions.Current(r); record != nil {
		return record.UserID
	}

	// Otherwise check the auth token header and cookie
	authTokens := r.Header.Values(g.AuthTokenHeaderName)
	for _, cookie := range r.CookiesNamed(g.Sessions.AuthTokenCookieName) {
		if len(cookie.Value) > 0 {
			authTokens = append(authTokens, cookie.Value)
		}
	}
	for _, authToken := range authTokens {
		authToken = strings.TrimPrefix(authToken, "Bearer ")
		loggedInUserId, err := g.Sessions.VerifyAuthToken(authToken)
		if err == nil && loggedInUserId != "" {
			return loggedInUserId
		} else if err != nil {
			slog.Warn("error verifying auth token", "err", err)
		}
	}
	return ""
}

// ExtractUser loads the logged in user id into the request context for
// downstream handlers without enforcing that one exists.
func (g *Guard) ExtractUser(next http.Handler) http.Handler {
	g.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			userParam := g.GetLoggedInUserId(r)
			next.ServeHTTP(w, g.setLoggedInUserId(userParam, r))
		},
	)
}

// EnsureUser rejects anonymous callers: a redirect to the login page
// carrying the original URL when LoginURL is set, a 401 otherwise.
func (g *Guard) EnsureUser(next http.Handler) http.Handler {
	g.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			userParam := g.GetLoggedInUserId(r)
			if userParam == "" {
				if g.LoginURL != "" {
					originalUrl := r.URL.Path
					encodedUrl := strings.Replace(url.QueryEscape(originalUrl), "+", "%20", -1)
					fullRedirUrl := fmt.Sprintf("%s?%s=%s", g.LoginURL, g.CallbackURLParam, encodedUrl)
					http.Redirect(w, r, fullRedirUrl, http.StatusFound)
				} else {
					http.Error(w, "Login Required", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, g.setLoggedInUserId(userParam, r))
		},
	)
}

func (g *Guard) setLoggedInUserId(userId string, r *http.Request) *http.Request {
	contextWithUser := context.WithValue(r.Context(), userParamNameKey(g.UserParamName), userId)
	return r.WithContext(contextWithUser)
}
