// internal/marketplace/marketplace.go
//
// Public sermon catalog with per-token purchase grants.
//
//	List()                          catalog + files, free items flagged
//	CheckAccess(token, ids)         per-sermon grant lookup (fan-out)
//	Download(token, id, type)       free items skip every check
//
// A token is accepted only when the access resolver says its account is
// active; unknown and refunded tokens produce the same ErrUnauthorized.
// Grants live in access_sermons keyed by (client_token, sermon_id) with
// status "approved".
//
//------------------------------------------------------------------------------

package marketplace

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/sermonario/internal/access"
	"github.com/yanizio/sermonario/internal/blob"
)

var (
	ErrNotFound     = errors.New("marketplace: not found")
	ErrUnauthorized = errors.New("marketplace: token not accepted")
	ErrForbidden    = errors.New("marketplace: sermon not purchased")
	ErrFileType     = errors.New("marketplace: file type must be pdf or json")
)

// GrantApproved is the only grant status that opens a paid sermon.
const GrantApproved = "approved"

// lookupLimit bounds concurrent grant queries per CheckAccess call.
const lookupLimit = 8

// File is one downloadable artifact of a catalog sermon.
type File struct {
	ID       string `db:"id"        json:"id"`
	SermonID string `db:"sermon_id" json:"-"`
	Type     string `db:"type"      json:"type"`
	URL      string `db:"url"       json:"url"`
}

// Sermon is a catalog entry.
type Sermon struct {
	ID           string    `db:"id"             json:"id"`
	Title        string    `db:"title"          json:"title"`
	Theme        string    `db:"theme"          json:"theme"`
	MainVerse    string    `db:"main_verse"     json:"mainVerse"`
	Objective    *string   `db:"objective"      json:"objective"`
	Description  *string   `db:"description"    json:"description"`
	PriceInCents int       `db:"price_in_cents" json:"price_in_cents"`
	CheckoutURL  *string   `db:"checkout_url"   json:"checkout_url"`
	CreatedAt    time.Time `db:"created_at"     json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at"     json:"updatedAt"`

	Files     []File `db:"-" json:"files"`
	HasAccess bool   `db:"-" json:"hasAccess"`
}

// Free reports whether the sermon costs nothing.
func (s Sermon) Free() bool { return s.PriceInCents == 0 }

// Access is one CheckAccess result.
type Access struct {
	SermonID  string `json:"sermonId"`
	HasAccess bool   `json:"hasAccess"`
}

// Catalog reads the marketplace tables.
type Catalog interface {
	ListSermons(ctx context.Context) ([]Sermon, error)
	GetSermon(ctx context.Context, id string) (Sermon, error)
	FindFile(ctx context.Context, sermonID, fileType string) (File, error)
	HasGrant(ctx context.Context, token, sermonID string) (bool, error)
}

// TokenResolver is the slice of access.Resolver the marketplace needs.
type TokenResolver interface {
	ResolveByToken(ctx context.Context, token string) (access.Identity, error)
}

// Service glues the catalog, token resolution, and file storage.
type Service struct {
	catalog Catalog
	tokens  TokenResolver
	files   blob.Fetcher
}

// NewService builds a marketplace service.
func NewService(c Catalog, tokens TokenResolver, files blob.Fetcher) *Service {
	return &Service{catalog: c, tokens: tokens, files: files}
}

// List returns the catalog, oldest first, with files attached.
func (s *Service) List(ctx context.Context) ([]Sermon, error) {
	out, err := s.catalog.ListSermons(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].HasAccess = out[i].Free()
		if out[i].Files == nil {
			out[i].Files = []File{}
		}
	}
	if out == nil {
		out = []Sermon{}
	}
	return out, nil
}

// CheckAccess reports, per sermon id, whether token holds an approved
// grant.  Results keep the order of ids.
func (s *Service) CheckAccess(ctx context.Context, token string, ids []string) ([]Access, error) {
	if err := s.acceptToken(ctx, token); err != nil {
		return nil, err
	}
	out := make([]Access, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupLimit)
	for i, id := range ids {
		out[i].SermonID = id
		if !validID(id) {
			continue
		}
		g.Go(func() error {
			ok, err := s.catalog.HasGrant(gctx, token, id)
			if err != nil {
				return err
			}
			out[i].HasAccess = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Download is a resolved file ready to stream.
type Download struct {
	SermonID string
	Type     string
	Body     io.ReadCloser
}

// ContentType returns the MIME type for d.
func (d Download) ContentType() string {
	if d.Type == "pdf" {
		return "application/pdf"
	}
	return "application/json"
}

// Filename is the attachment name offered to the browser.
func (d Download) Filename() string { return "sermao-" + d.SermonID + "." + d.Type }

// Open checks entitlement and opens the requested file.
func (s *Service) Open(ctx context.Context, token, sermonID, fileType string) (Download, error) {
	if fileType != "pdf" && fileType != "json" {
		return Download{}, ErrFileType
	}
	if !validID(sermonID) {
		return Download{}, ErrNotFound
	}
	sermon, err := s.catalog.GetSermon(ctx, sermonID)
	if err != nil {
		return Download{}, err
	}
	if !sermon.Free() {
		if err := s.acceptToken(ctx, token); err != nil {
			return Download{}, err
		}
		ok, err := s.catalog.HasGrant(ctx, token, sermonID)
		if err != nil {
			return Download{}, err
		}
		if !ok {
			return Download{}, ErrForbidden
		}
	}
	f, err := s.catalog.FindFile(ctx, sermonID, fileType)
	if err != nil {
		return Download{}, err
	}
	body, err := s.files.Open(ctx, f.URL)
	if err != nil {
		return Download{}, err
	}
	return Download{SermonID: sermonID, Type: fileType, Body: body}, nil
}

func (s *Service) acceptToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	if _, err := s.tokens.ResolveByToken(ctx, token); err != nil {
		return ErrUnauthorized
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
