package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// NewGithub builds the GitHub provider. Empty arguments fall back to the
// OAUTH2_GITHUB_* environment variables.
func NewGithub(clientID string, clientSecret string, callbackURL string) *Provider {
	if clientID == "" {
		clientID = strings.TrimSpace(os.Getenv("OAUTH2_GITHUB_CLIENT_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv("OAUTH2_GITHUB_CLIENT_SECRET"))
	}
	if callbackURL == "" {
		callbackURL = strings.TrimSpace(os.Getenv("OAUTH2_GITHUB_CALLBACK_URL"))
	}

	config := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}
	p := New("github", config, "https://api.github.com/user", fetchGithubProfile)
	p.EmailListURL = "https://api.github.com/user/emails"
	return p
}

func fetchGithubProfile(ctx context.Context, p *Provider, token *oauth2.Token) (*Profile, error) {
	data, err := p.get(ctx, token, p.UserInfoURL)
	if err != nil {
		return nil, err
	}

	var info struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.ID == 0 {
		return nil, errors.New("userinfo missing id")
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}

	// Github may hide the account email; the emails listing carries the
	// verified flag, so the fallback only accepts primary-and-verified.
	email := info.Email
	if email == "" {
		email, err = p.fetchPrimaryEmail(ctx, token)
		if err != nil {
			return nil, err
		}
	}
	if email == "" {
		return nil, errors.New("no usable verified email on the github account")
	}

	return &Profile{
		ExternalID:  strconv.FormatInt(info.ID, 10),
		Email:       email,
		DisplayName: name,
		AvatarURL:   info.AvatarURL,
	}, nil
}

func (p *Provider) fetchPrimaryEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	if p.EmailListURL == "" {
		return "", nil
	}
	data, err := p.get(ctx, token, p.EmailListURL)
	if err != nil {
		return "", err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(data, &emails); err != nil {
		return "", fmt.Errorf("failed to parse emails listing: %w", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}
