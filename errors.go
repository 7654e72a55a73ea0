package authcore

// Error codes emitted by the auth flows.
const (
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidCreds     = "invalid_credentials"
	ErrCodeWeakPassword     = "weak_password"
	ErrCodePasswordMismatch = "password_mismatch"
	ErrCodeEmailExists      = "email_exists"
	ErrCodeProviderDisabled = "provider_not_configured"
	ErrCodeOAuthState       = "oauth_state_mismatch"
	ErrCodeOAuthExchange    = "oauth_exchange_failed"
	ErrCodeOAuthProfile     = "oauth_profile_failed"
	ErrCodeStoreUnavailable = "store_unavailable"
)

// AuthError carries a machine readable code, a user visible message and
// the form field (if any) that caused it. Flow handlers convert every
// AuthError into a flash message plus a redirect; none is fatal.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates a new AuthError.
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}
