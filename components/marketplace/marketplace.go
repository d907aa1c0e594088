// components/marketplace/marketplace.go
//
// Public catalog and token-gated downloads.
//
//	GET      /api/marketplace/sermons
//	POST     /api/marketplace/check-access/{token}     {"sermonIds": [...]}
//	GET|POST /api/marketplace/download/{token}/{id}?type=pdf|json
//
// Tokens are checked through the access resolver, so an unknown token and a
// refunded one both answer 401.
//
//------------------------------------------------------------------------------

package marketplace

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/sermonario/internal/component"
	"github.com/yanizio/sermonario/internal/httpx"
	"github.com/yanizio/sermonario/internal/marketplace"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the marketplace API.
type Component struct {
	svc *marketplace.Service
	log *zap.Logger
}

type checkRequest struct {
	SermonIDs []string `json:"sermonIds"`
}

// maxCheckIDs bounds one check-access request.
const maxCheckIDs = 200

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "marketplace" }

// Init captures the marketplace service.
func (c *Component) Init(d component.Deps) error {
	if d.Marketplace == nil {
		return errors.New("marketplace service is required")
	}
	c.svc = d.Marketplace
	c.log = d.Log
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return nil
}

// Routes registers the catalog, check-access, and download endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Route("/api/marketplace", func(api chi.Router) {
		api.Get("/sermons", c.handleList)
		api.Post("/check-access/{token}", c.handleCheck)
		api.Get("/download/{token}/{sermonID}", c.handleDownload)
		api.Post("/download/{token}/{sermonID}", c.handleDownload)
	})
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.svc.List(r.Context())
	if err != nil {
		c.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (c *Component) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.SermonIDs == nil {
		httpx.WriteError(w, http.StatusBadRequest, "token and sermonIds are required")
		return
	}
	if len(req.SermonIDs) > maxCheckIDs {
		httpx.WriteError(w, http.StatusBadRequest, "too many sermonIds")
		return
	}
	out, err := c.svc.CheckAccess(r.Context(), chi.URLParam(r, "token"), req.SermonIDs)
	if err != nil {
		c.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (c *Component) handleDownload(w http.ResponseWriter, r *http.Request) {
	d, err := c.svc.Open(r.Context(),
		chi.URLParam(r, "token"),
		chi.URLParam(r, "sermonID"),
		r.URL.Query().Get("type"),
	)
	if err != nil {
		c.fail(w, err)
		return
	}
	defer d.Body.Close()

	w.Header().Set("Content-Type", d.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.Filename()+`"`)
	w.Header().Set("Cache-Control", "private, no-store")
	if _, err := io.Copy(w, d.Body); err != nil {
		c.log.Warn("download interrupted", zap.String("sermon", d.SermonID), zap.Error(err))
	}
}

func (c *Component) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketplace.ErrFileType):
		httpx.WriteError(w, http.StatusBadRequest, "type must be pdf or json")
	case errors.Is(err, marketplace.ErrUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, marketplace.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "sermon not purchased")
	case errors.Is(err, marketplace.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	default:
		c.log.Error("marketplace", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
