package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sermonario/internal/access"
	"github.com/yanizio/sermonario/internal/accesstoken"
	"github.com/yanizio/sermonario/internal/component"
	"github.com/yanizio/sermonario/internal/config"
	"github.com/yanizio/sermonario/internal/session"
	"github.com/yanizio/sermonario/internal/signature"
)

type fixture struct {
	router   chi.Router
	sessions *session.Store
	tokens   *accesstoken.MemoryStore
	token    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	key := signature.MustKey("component-access-secret")
	codec, err := session.NewCodec(key)
	require.NoError(t, err)
	sessions := session.NewStore(codec, session.Options{})

	tokens := accesstoken.NewMemoryStore()
	rec := accesstoken.Record{Email: "a@x.com", Name: "Ana"}
	require.NoError(t, tokens.Insert(context.Background(), &rec))

	cfg := &config.Config{Auth: config.Auth{DenialPath: "/access-denied", SuccessPath: "/workspace"}}
	c := &Component{}
	require.NoError(t, c.Init(component.Deps{
		Config:   cfg,
		Sessions: sessions,
		Access:   access.NewResolver(tokens, nil),
		Tokens:   tokens,
	}))
	r := chi.NewRouter()
	c.Routes(r)
	return fixture{router: r, sessions: sessions, tokens: tokens, token: rec.Token}
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	return nil
}

func TestEmailExchange_JSON(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/exchange", strings.NewReader(`{"email":" A@x.com "}`))
	req.Header.Set("Content-Type", "application/json")
	rr := f.do(req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/workspace", rr.Header().Get("Location"))
	c := sessionCookie(rr)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	rec, ok := f.sessions.Read(c.Name + "=" + c.Value)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", rec.Email)
	assert.Equal(t, "Ana", rec.Name)
}

func TestEmailExchange_Form(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"email": {"a@x.com"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/exchange", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := f.do(req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.NotNil(t, sessionCookie(rr))
}

func TestEmailExchange_DenialsLookAlike(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.Insert(context.Background(), &accesstoken.Record{Email: "r@x.com"}))
	require.NoError(t, f.tokens.UpdateStatus(context.Background(), "r@x.com", accesstoken.StatusRefunded))

	var bodies []string
	for _, email := range []string{"ghost@x.com", "r@x.com"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/exchange", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := f.do(req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/access-denied", rr.Header().Get("Location"))
		assert.Nil(t, sessionCookie(rr))
		bodies = append(bodies, rr.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
}

func TestEmailExchange_Malformed(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`{"email":`, `{"email":"not-an-email"}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/exchange", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusBadRequest, f.do(req).Code, body)
	}
}

func TestTokenExchange(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/access/" + f.token, "/api/auth/exchange?token=" + f.token} {
		rr := f.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/workspace", rr.Header().Get("Location"))
		assert.NotNil(t, sessionCookie(rr))
	}

	for _, target := range []string{"/access/serm_nope", "/api/auth/exchange", "/api/auth/exchange?token="} {
		rr := f.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/access-denied", rr.Header().Get("Location"))
		assert.Nil(t, sessionCookie(rr))
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		rr := f.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
		c := sessionCookie(rr)
		require.NotNil(t, c)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestLogout_ConfiguredPath(t *testing.T) {
	codec, err := session.NewCodec(signature.MustKey("component-access-secret"))
	require.NoError(t, err)
	cfg := &config.Config{Auth: config.Auth{
		DenialPath: "/access-denied", SuccessPath: "/workspace", LogoutPath: "/goodbye",
	}}
	c := &Component{}
	require.NoError(t, c.Init(component.Deps{
		Config:   cfg,
		Sessions: session.NewStore(codec, session.Options{}),
		Access:   access.NewResolver(accesstoken.NewMemoryStore(), nil),
	}))
	r := chi.NewRouter()
	c.Routes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/goodbye", rr.Header().Get("Location"))
	require.NotNil(t, sessionCookie(rr))
}

func TestDeniedPage(t *testing.T) {
	f := newFixture(t)
	rr := f.do(httptest.NewRequest(http.MethodGet, "/access-denied", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "Access denied")
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	c, err := f.sessions.Establish(session.Record{SID: "s1", Email: "a@x.com", Name: "Ana"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(c)
	rr = f.do(req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"a@x.com"`)
	assert.NotContains(t, rr.Body.String(), f.token)
}
