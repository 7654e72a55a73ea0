package oauth2

import "fmt"

// ExchangeError reports a failed or unusable token endpoint response.
type ExchangeError struct {
	Provider string
	Err      error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s: code exchange failed: %v", e.Provider, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// ProfileError reports that the provider returned no usable profile, in
// particular no verified email.
type ProfileError struct {
	Provider string
	Err      error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("%s: profile fetch failed: %v", e.Provider, e.Err)
}

func (e *ProfileError) Unwrap() error { return e.Err }
