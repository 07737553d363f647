package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tbourn/bibion-backend/internal/sysutil"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Google runs the OAuth2 authorization-code flow against Google and reads
// the signed-in user's profile.
type Google struct {
	conf        *oauth2.Config
	userInfoURL string
}

// NewGoogle configures the flow for the given client.
func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (g *Google) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's profile.
func (g *Google) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := g.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Profile{}, fmt.Errorf("user info status %d: %s", resp.StatusCode, body)
	}

	var gu struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return Profile{}, fmt.Errorf("failed to parse user info: %w", err)
	}
	if gu.Email == "" || !gu.VerifiedEmail {
		return Profile{}, fmt.Errorf("google account has no verified email")
	}
	name := sysutil.FirstNonEmpty(gu.Name, gu.GivenName, strings.SplitN(gu.Email, "@", 2)[0])
	return Profile{Email: gu.Email, Name: name, Picture: gu.Picture}, nil
}

// NewState returns a random URL-safe value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
