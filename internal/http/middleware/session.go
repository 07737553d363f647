// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the optional signed-in principal. A session token is
// read from "Authorization: Bearer <jwt>" or from the session cookie; a valid
// token is resolved to a stored user whose id becomes "userID" in the Gin
// context. Missing, malformed or expired tokens leave the request anonymous.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bibion-backend/internal/auth"
	"github.com/tbourn/bibion-backend/internal/domain"
)

// Gin context keys populated by Session.
const (
	userIDKey = "userID"
	userKey   = "user"
	claimsKey = "claims"
)

// TokenParser validates a session token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// UserResolver maps a verified identity to a stored user.
type UserResolver interface {
	Resolve(ctx context.Context, p auth.Profile) (*domain.User, error)
}

// Session returns middleware that attaches the principal when the request
// carries a valid session. A resolver failure is a server error: treating
// the caller as anonymous would silently drop their history.
func Session(tokens TokenParser, users UserResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := sessionToken(c, cookieName)
		if raw == "" {
			c.Next()
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("ignoring invalid session token")
			c.Next()
			return
		}
		u, err := users.Resolve(c.Request.Context(), claims.Profile())
		if err != nil {
			LoggerFrom(c).Error().Err(err).Msg("resolve session user")
			abortJSON(c, http.StatusInternalServerError, "internal_error", "could not resolve session")
			return
		}

		c.Set(userIDKey, u.ID)
		c.Set(userKey, u)
		c.Set(claimsKey, claims)
		attachLogger(c, LoggerFrom(c).With().Str("user_id", u.ID).Logger())
		c.Next()
	}
}

// RequireUser aborts with 401 unless Session attached a principal.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		c.Next()
	}
}

// UserID returns the signed-in user's id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

// CurrentUser returns the resolved user, if any.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// SessionClaims returns the verified session claims, if any.
func SessionClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	cl, ok := v.(*auth.Claims)
	return cl, ok && cl != nil
}

func sessionToken(c *gin.Context, cookieName string) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if cookieName == "" {
		return ""
	}
	if v, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// abortJSON writes the standard error envelope from middleware, which
// cannot import the handlers package.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": GetRequestID(c),
		"code":       code,
		"message":    msg,
	})
}
