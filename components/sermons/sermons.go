// components/sermons/sermons.go
//
// Session-gated sermon library.
//
//	GET    /api/sermons        newest first
//	POST   /api/sermons
//	GET    /api/sermons/{id}
//	PATCH  /api/sermons/{id}   partial update
//	DELETE /api/sermons/{id}
//
// The owner is always the account behind the session; ids in the body are
// ignored.

package sermons

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/sermonario/internal/access"
	"github.com/yanizio/sermonario/internal/component"
	"github.com/yanizio/sermonario/internal/httpx"
	"github.com/yanizio/sermonario/internal/middleware"
	"github.com/yanizio/sermonario/internal/sermon"
	"github.com/yanizio/sermonario/internal/session"
)

var _ component.Component = (*Component)(nil)

// Component serves the sermon library API.
type Component struct {
	svc        *sermon.Service
	sessions   *session.Store
	resolver   *access.Resolver
	denialPath string
	log        *zap.Logger
}

func (c *Component) Name() string { return "sermons" }

func (c *Component) Init(d component.Deps) error {
	if d.Sermons == nil || d.Sessions == nil || d.Access == nil || d.Config == nil {
		return errors.New("sermons, sessions, resolver, and config are required")
	}
	c.svc = d.Sermons
	c.sessions = d.Sessions
	c.resolver = d.Access
	c.denialPath = d.Config.Auth.DenialPath
	c.log = d.Log
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Route("/api/sermons", func(api chi.Router) {
		api.Use(middleware.RequireSession(c.sessions, c.resolver, c.denialPath))
		api.Get("/", c.handleList)
		api.Post("/", c.handleCreate)
		api.Get("/{id}", c.handleGet)
		api.Patch("/{id}", c.handleUpdate)
		api.Delete("/{id}", c.handleDelete)
	})
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.svc.List(r.Context(), owner(r))
	if err != nil {
		c.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (c *Component) handleCreate(w http.ResponseWriter, r *http.Request) {
	var d sermon.Draft
	if err := httpx.DecodeJSON(w, r, &d); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := c.svc.Create(r.Context(), owner(r), d)
	if err != nil {
		c.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, s)
}

func (c *Component) handleGet(w http.ResponseWriter, r *http.Request) {
	s, err := c.svc.Get(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		c.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (c *Component) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var p sermon.Patch
	if err := httpx.DecodeJSON(w, r, &p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := c.svc.Update(r.Context(), owner(r), chi.URLParam(r, "id"), p)
	if err != nil {
		c.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (c *Component) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Delete(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
		c.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Component) fail(w http.ResponseWriter, err error) {
	var inv *sermon.InvalidError
	switch {
	case errors.As(err, &inv):
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid fields", "fields": inv.Fields})
	case errors.Is(err, sermon.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "sermon not found")
	case errors.Is(err, sermon.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
	default:
		c.log.Error("sermon storage", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// owner is safe to call behind RequireSession.
func owner(r *http.Request) string {
	id, _ := access.FromContext(r.Context())
	return id.AccountID
}
