// Auth HTTP handlers.
//
// These endpoints run Google sign-in and manage the session cookie:
//   - GET  /auth/google/login     (redirect to the consent page)
//   - GET  /auth/google/callback  (exchange the code, issue the session)
//   - GET  /auth/token            (introspect the current session)
//   - POST /auth/logout           (clear the session cookie)
//
// The Google routes answer 404 when sign-in is not configured.
package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bibion-backend/internal/auth"
	"github.com/tbourn/bibion-backend/internal/http/middleware"
)

const (
	oauthStateCookie = "bibion_oauth_state"
	oauthStateMaxAge = 10 * 60 // seconds
)

// SessionIssuer signs session tokens.
type SessionIssuer interface {
	Issue(p auth.Profile) (string, time.Time, error)
}

// GoogleFlow is the OAuth2 authorization-code exchange.
type GoogleFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (auth.Profile, error)
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name              string
	Secure            bool
	PostLoginRedirect string
}

// AuthHandlers groups the sign-in endpoints.
type AuthHandlers struct {
	sessions SessionIssuer
	users    middleware.UserResolver
	google   GoogleFlow
	cookie   CookieOptions
	newState func() (string, error)
}

// NewAuthHandlers constructs AuthHandlers. A nil google disables sign-in.
func NewAuthHandlers(sessions SessionIssuer, users middleware.UserResolver, google GoogleFlow, cookie CookieOptions) *AuthHandlers {
	if cookie.PostLoginRedirect == "" {
		cookie.PostLoginRedirect = "/"
	}
	return &AuthHandlers{
		sessions: sessions,
		users:    users,
		google:   google,
		cookie:   cookie,
		newState: auth.NewState,
	}
}

// TokenClaims is the public view of a verified session.
type TokenClaims struct {
	UserID    string `json:"userId" example:"0f8c1f0e-2d5b-4b39-9a55-5b4a0e3f6d21"`
	Email     string `json:"email" example:"ada@example.com"`
	Name      string `json:"name,omitempty" example:"Ada"`
	Picture   string `json:"picture,omitempty"`
	IssuedAt  int64  `json:"iat" example:"1760000000"`
	ExpiresAt int64  `json:"exp" example:"1762592000"`
}

// TokenResponse wraps the session view; Token is null when anonymous.
type TokenResponse struct {
	Token *TokenClaims `json:"token"`
}

// GoogleLogin godoc
// @ID          googleLogin
// @Summary     Start Google sign-in
// @Tags        Auth
// @Success     302
// @Failure     404  {object} handlers.ErrorResponse "Sign-in disabled"
// @Router      /auth/google/login [get]
func (h *AuthHandlers) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "google sign-in is not configured")
		return
	}
	state, err := h.newState()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not start sign-in")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/auth", "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleCallback godoc
// @ID          googleCallback
// @Summary     Finish Google sign-in
// @Description Verifies state, exchanges the code, stores the user and sets the session cookie.
// @Tags        Auth
// @Param       state  query  string  true  "OAuth state"
// @Param       code   query  string  true  "Authorization code"
// @Success     302
// @Failure     400  {object} handlers.ErrorResponse "Bad state or code"
// @Failure     401  {object} handlers.ErrorResponse "Exchange rejected"
// @Failure     404  {object} handlers.ErrorResponse "Sign-in disabled"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/google/callback [get]
func (h *AuthHandlers) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "google sign-in is not configured")
		return
	}
	want, _ := c.Cookie(oauthStateCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/auth", "", h.cookie.Secure, true)

	if e := c.Query("error"); e != "" {
		fail(c, http.StatusBadRequest, ErrCodeSignInFailed, "sign-in was cancelled")
		return
	}
	got := c.Query("state")
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		fail(c, http.StatusBadRequest, ErrCodeSignInFailed, "invalid oauth state")
		return
	}
	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, ErrCodeSignInFailed, "missing authorization code")
		return
	}

	ctx := c.Request.Context()
	profile, err := h.google.Exchange(ctx, code)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("google exchange failed")
		fail(c, http.StatusUnauthorized, ErrCodeSignInFailed, "google sign-in failed")
		return
	}
	if _, err := h.users.Resolve(ctx, profile); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("store signed-in user")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not complete sign-in")
		return
	}
	token, exp, err := h.sessions.Issue(profile)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue session")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(time.Until(exp).Seconds()), "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, h.cookie.PostLoginRedirect)
}

// Token godoc
// @ID          sessionToken
// @Summary     Current session
// @Description Returns the verified session claims, or null when anonymous.
// @Tags        Auth
// @Produce     json
// @Security    SessionCookie
// @Security    BearerAuth
// @Success     200  {object} handlers.TokenResponse
// @Router      /auth/token [get]
func (h *AuthHandlers) Token(c *gin.Context) {
	claims, found := middleware.SessionClaims(c)
	if !found {
		ok(c, http.StatusOK, TokenResponse{})
		return
	}
	view := &TokenClaims{
		UserID:  middleware.UserID(c),
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}
	if claims.IssuedAt != nil {
		view.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		view.ExpiresAt = claims.ExpiresAt.Unix()
	}
	ok(c, http.StatusOK, TokenResponse{Token: view})
}

// Logout godoc
// @ID          logout
// @Summary     Sign out
// @Description Clears the session cookie. Bearer tokens stay valid until they expire.
// @Tags        Auth
// @Success     204
// @Router      /auth/logout [post]
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	noContent(c)
}
