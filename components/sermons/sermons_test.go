package sermons

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sermonario/internal/access"
	"github.com/yanizio/sermonario/internal/accesstoken"
	"github.com/yanizio/sermonario/internal/component"
	"github.com/yanizio/sermonario/internal/config"
	"github.com/yanizio/sermonario/internal/sermon"
	"github.com/yanizio/sermonario/internal/session"
	"github.com/yanizio/sermonario/internal/signature"
)

type fixture struct {
	router  chi.Router
	cookies map[string]*http.Cookie
	tokens  *accesstoken.MemoryStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	codec, err := session.NewCodec(signature.MustKey("sermons-component-secret"))
	require.NoError(t, err)
	sessions := session.NewStore(codec, session.Options{})

	tokens := accesstoken.NewMemoryStore()
	cookies := map[string]*http.Cookie{}
	for _, email := range []string{"ana@x.com", "bia@x.com"} {
		require.NoError(t, tokens.Insert(context.Background(), &accesstoken.Record{Email: email}))
		c, err := sessions.Establish(session.Record{SID: "sid-" + email, Email: email})
		require.NoError(t, err)
		cookies[email] = c
	}

	c := &Component{}
	require.NoError(t, c.Init(component.Deps{
		Config:   &config.Config{Auth: config.Auth{DenialPath: "/access-denied"}},
		Sessions: sessions,
		Access:   access.NewResolver(tokens, nil),
		Sermons:  sermon.NewService(sermon.NewMemoryStore()),
	}))
	r := chi.NewRouter()
	c.Routes(r)
	return fixture{router: r, cookies: cookies, tokens: tokens}
}

func (f fixture) do(t *testing.T, who, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c := f.cookies[who]; c != nil {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestCRUD(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "ana@x.com", http.MethodPost, "/api/sermons", `{"title":"Grace","sermon_json":"{\"a\":1}"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created sermon.Sermon
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rr = f.do(t, "ana@x.com", http.MethodGet, "/api/sermons", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []sermon.Sermon
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rr = f.do(t, "ana@x.com", http.MethodPatch, "/api/sermons/"+created.ID, `{"theme":"Mercy"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"theme":"Mercy"`)
	assert.Contains(t, rr.Body.String(), `"title":"Grace"`)

	rr = f.do(t, "ana@x.com", http.MethodGet, "/api/sermons/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, "ana@x.com", http.MethodDelete, "/api/sermons/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, "ana@x.com", http.MethodGet, "/api/sermons/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOwnershipAndErrors(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, "ana@x.com", http.MethodPost, "/api/sermons", `{"title":"Grace"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created sermon.Sermon
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	assert.Equal(t, http.StatusForbidden, f.do(t, "bia@x.com", http.MethodGet, "/api/sermons/"+created.ID, "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, "bia@x.com", http.MethodDelete, "/api/sermons/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "ana@x.com", http.MethodGet, "/api/sermons/not-a-uuid", "").Code)

	rr = f.do(t, "ana@x.com", http.MethodPatch, "/api/sermons/"+created.ID, `{"sermon_json":"{broken"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "sermon_json")

	assert.Equal(t, http.StatusBadRequest, f.do(t, "ana@x.com", http.MethodPost, "/api/sermons", `{`).Code)
}

func TestRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "nobody", http.MethodGet, "/api/sermons", "").Code)

	require.NoError(t, f.tokens.UpdateStatus(context.Background(), "ana@x.com", accesstoken.StatusRefunded))
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "ana@x.com", http.MethodGet, "/api/sermons", "").Code)
}
