// components/access/access.go
//
// Access exchange: turns a purchase token or a buyer's email into a
// session cookie.
//
//	POST /api/auth/exchange        email (JSON or form)
//	GET  /api/auth/exchange?token= link from the welcome email
//	GET  /access/{token}           short link, same flow
//	POST /auth/logout
//	GET  <denial_path>             one generic page for every denial
//	GET  /api/me                   current identity (session required)
//
// Every denial looks the same to the client: a 303 to the denial page.
// The reason is in the audit log only.
//
//------------------------------------------------------------------------------

package access

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/sermonario/internal/access"
	"github.com/yanizio/sermonario/internal/component"
	"github.com/yanizio/sermonario/internal/httpx"
	"github.com/yanizio/sermonario/internal/middleware"
	"github.com/yanizio/sermonario/internal/session"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates the access exchange.
type Component struct {
	sessions    *session.Store
	resolver    *access.Resolver
	validate    *validator.Validate
	log         *zap.Logger
	denialPath  string
	successPath string
	logoutPath  string
}

type exchangeRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "access" }

// Init captures the session store, resolver, and redirect targets.
func (c *Component) Init(d component.Deps) error {
	if d.Sessions == nil || d.Access == nil || d.Config == nil {
		return errors.New("sessions, resolver, and config are required")
	}
	c.sessions = d.Sessions
	c.resolver = d.Access
	c.validate = validator.New(validator.WithRequiredStructEnabled())
	c.log = d.Log
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.denialPath = d.Config.Auth.DenialPath
	c.successPath = d.Config.Auth.SuccessPath
	c.logoutPath = d.Config.Auth.LogoutPath
	if c.logoutPath == "" {
		c.logoutPath = "/"
	}
	return nil
}

// Routes registers the exchange endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Post("/api/auth/exchange", c.handleEmailExchange)
	r.Get("/api/auth/exchange", c.handleTokenExchange)
	r.Get("/access/{token}", c.handleTokenExchange)
	r.Post("/auth/logout", c.handleLogout)
	r.Get(c.denialPath, handleDenied)

	r.With(middleware.RequireSession(c.sessions, c.resolver, c.denialPath)).
		Get("/api/me", handleMe)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleEmailExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if isJSON(r) {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, httpx.MaxBody)
		if err := r.ParseForm(); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = r.PostForm.Get("email")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	id, err := c.resolver.ResolveByEmail(r.Context(), req.Email)
	c.finish(w, r, id, err)
}

func (c *Component) handleTokenExchange(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		_ = c.resolver.Deny(r.Context(), access.MethodToken, access.ReasonNotFound)
		http.Redirect(w, r, c.denialPath, http.StatusSeeOther)
		return
	}
	id, err := c.resolver.ResolveByToken(r.Context(), token)
	c.finish(w, r, id, err)
}

// finish establishes the session on allow and redirects either way.
func (c *Component) finish(w http.ResponseWriter, r *http.Request, id access.Identity, err error) {
	if err != nil {
		http.Redirect(w, r, c.denialPath, http.StatusSeeOther)
		return
	}
	if _, err := c.sessions.Login(w, id.Email, id.Name); err != nil {
		c.log.Error("session establish", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, c.successPath, http.StatusSeeOther)
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	c.sessions.Logout(w)
	http.Redirect(w, r, c.logoutPath, http.StatusSeeOther)
}

func handleDenied(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("Access denied.\n"))
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := access.FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, id)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
