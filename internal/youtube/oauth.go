package youtube

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested when linking a YouTube account.
var oauthScopes = []string{
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.readonly",
}

// OAuth performs the server-side half of the Google OAuth2 flows so the
// client secret never leaves the backend.
type OAuth struct {
	config *oauth2.Config
}

// NewOAuth builds the exchanger from app credentials.
func NewOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	return &OAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       oauthScopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// Tokens is the subset of the token response handed back to callers.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ExchangeCode swaps an authorization code for access and refresh tokens.
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	token, err := o.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("access_type", "offline"))
	if err != nil {
		return Tokens{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return Tokens{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}, nil
}

// Refresh trades a stored refresh token for a fresh access token.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, ErrReauthRequired
	}
	source := o.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return Tokens{}, fmt.Errorf("refresh access token: %w", err)
	}
	return Tokens{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}, nil
}
