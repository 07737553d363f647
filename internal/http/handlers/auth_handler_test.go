package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bibion-backend/internal/auth"
	"github.com/tbourn/bibion-backend/internal/domain"
	"github.com/tbourn/bibion-backend/internal/http/middleware"
)

const authTestSecret = "0123456789abcdef0123456789abcdef"

type fakeGoogle struct {
	profile auth.Profile
	err     error
	codes   []string
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + url.QueryEscape(state)
}

func (g *fakeGoogle) Exchange(_ context.Context, code string) (auth.Profile, error) {
	g.codes = append(g.codes, code)
	return g.profile, g.err
}

type fakeResolver struct {
	err  error
	seen []auth.Profile
}

func (f *fakeResolver) Resolve(_ context.Context, p auth.Profile) (*domain.User, error) {
	f.seen = append(f.seen, p)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: "user-1", Email: p.Email}, nil
}

func authRouter(h *AuthHandlers, sessions *auth.Sessions, users middleware.UserResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Session(sessions, users, "bibion_session"))
	r.GET("/auth/google/login", h.GoogleLogin)
	r.GET("/auth/google/callback", h.GoogleCallback)
	r.GET("/auth/token", h.Token)
	r.POST("/auth/logout", h.Logout)
	return r
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestGoogleRoutes_DisabledAre404(t *testing.T) {
	sessions := auth.NewSessions(authTestSecret, time.Hour)
	h := NewAuthHandlers(sessions, &fakeResolver{}, nil, CookieOptions{Name: "bibion_session"})
	r := authRouter(h, sessions, &fakeResolver{})
	for _, p := range []string{"/auth/google/login", "/auth/google/callback?state=x&code=y"} {
		if w := do(r, http.MethodGet, p, nil); w.Code != http.StatusNotFound {
			t.Fatalf("%s status=%d", p, w.Code)
		}
	}
}

func TestGoogleLogin_SetsStateAndRedirects(t *testing.T) {
	sessions := auth.NewSessions(authTestSecret, time.Hour)
	h := NewAuthHandlers(sessions, &fakeResolver{}, &fakeGoogle{}, CookieOptions{Name: "bibion_session", Secure: true})
	h.newState = func() (string, error) { return "state-123", nil }
	r := authRouter(h, sessions, &fakeResolver{})

	w := do(r, http.MethodGet, "/auth/google/login", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("status=%d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "state=state-123") {
		t.Fatalf("Location = %q", loc)
	}
	c := cookieNamed(w, oauthStateCookie)
	if c == nil || c.Value != "state-123" || !c.HttpOnly || !c.Secure {
		t.Fatalf("state cookie = %+v", c)
	}
}

func callback(r http.Handler, query, stateCookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query, nil)
	if stateCookie != "" {
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: stateCookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGoogleCallback_IssuesSessionCookie(t *testing.T) {
	sessions := auth.NewSessions(authTestSecret, time.Hour)
	users := &fakeResolver{}
	g := &fakeGoogle{profile: auth.Profile{Email: "ada@example.com", Name: "Ada"}}
	h := NewAuthHandlers(sessions, users, g, CookieOptions{Name: "bibion_session", PostLoginRedirect: "/app"})
	r := authRouter(h, sessions, users)

	w := callback(r, "state=s1&code=c1", "s1")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/app" {
		t.Fatalf("status=%d location=%q body=%s", w.Code, w.Header().Get("Location"), w.Body.String())
	}
	if len(g.codes) != 1 || g.codes[0] != "c1" || len(users.seen) != 1 {
		t.Fatalf("exchange/resolve not run: %v %v", g.codes, users.seen)
	}
	sc := cookieNamed(w, "bibion_session")
	if sc == nil || sc.Value == "" || !sc.HttpOnly || sc.MaxAge <= 0 {
		t.Fatalf("session cookie = %+v", sc)
	}
	claims, err := sessions.Parse(sc.Value)
	if err != nil || claims.Email != "ada@example.com" {
		t.Fatalf("issued token invalid: %v %+v", err, claims)
	}
}

func TestGoogleCallback_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		cookie string
		google *fakeGoogle
		users  *fakeResolver
		status int
	}{
		{"provider error", "error=access_denied&state=s1", "s1", &fakeGoogle{}, &fakeResolver{}, http.StatusBadRequest},
		{"missing state cookie", "state=s1&code=c", "", &fakeGoogle{}, &fakeResolver{}, http.StatusBadRequest},
		{"state mismatch", "state=s2&code=c", "s1", &fakeGoogle{}, &fakeResolver{}, http.StatusBadRequest},
		{"missing code", "state=s1", "s1", &fakeGoogle{}, &fakeResolver{}, http.StatusBadRequest},
		{"exchange fails", "state=s1&code=c", "s1", &fakeGoogle{err: errors.New("bad code")}, &fakeResolver{}, http.StatusUnauthorized},
		{"resolver fails", "state=s1&code=c", "s1", &fakeGoogle{profile: auth.Profile{Email: "a@b.co"}}, &fakeResolver{err: errors.New("db")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := auth.NewSessions(authTestSecret, time.Hour)
			h := NewAuthHandlers(sessions, tc.users, tc.google, CookieOptions{Name: "bibion_session"})
			w := callback(authRouter(h, sessions, tc.users), tc.query, tc.cookie)
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.status, w.Body.String())
			}
			if sc := cookieNamed(w, "bibion_session"); sc != nil && sc.Value != "" {
				t.Fatalf("session cookie must not be set on failure")
			}
		})
	}
}

func TestToken_NullWhenAnonymous_ClaimsWhenSignedIn(t *testing.T) {
	sessions := auth.NewSessions(authTestSecret, time.Hour)
	users := &fakeResolver{}
	r := authRouter(NewAuthHandlers(sessions, users, nil, CookieOptions{Name: "bibion_session"}), sessions, users)

	w := do(r, http.MethodGet, "/auth/token", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"token":null}` {
		t.Fatalf("anonymous: %d %s", w.Code, w.Body.String())
	}

	tok, exp, err := sessions.Issue(auth.Profile{Email: "ada@example.com", Name: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/token", nil)
	req.AddCookie(&http.Cookie{Name: "bibion_session", Value: tok})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == nil {
		t.Fatalf("signed in: %v %s", err, w.Body.String())
	}
	if resp.Token.UserID != "user-1" || resp.Token.Email != "ada@example.com" || resp.Token.ExpiresAt != exp.Unix() {
		t.Fatalf("claims = %+v", resp.Token)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	sessions := auth.NewSessions(authTestSecret, time.Hour)
	r := authRouter(NewAuthHandlers(sessions, &fakeResolver{}, nil, CookieOptions{Name: "bibion_session"}), sessions, &fakeResolver{})

	w := do(r, http.MethodPost, "/auth/logout", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	c := cookieNamed(w, "bibion_session")
	if c == nil || c.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", c)
	}
}
