// internal/access/access.go
//
// Access-token resolver.
//
// Context
// -------
// One question, three entry points: does this token, email, or session
// belong to a currently active account, and if so, who is it?
//
//	ResolveByToken(token)  -> Identity | ErrNotFound
//	ResolveByEmail(email)  -> Identity | ErrNotFound
//	Verify(session.Record) -> Identity | ErrNotFound
//
// Unknown, inactive, and storage failure all return the same ErrNotFound.
// The distinction survives only in the audit event and the denial counter,
// never in the returned value, so callers cannot leak it.  A storage error
// denies (fail closed).
//
// The resolver only reads.  Status changes belong to the webhook path.
// Nothing is cached; every privileged request re-reads the account row.
//
//------------------------------------------------------------------------------

package access

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yanizio/sermonario/internal/accesstoken"
	"github.com/yanizio/sermonario/internal/session"
)

// ErrNotFound covers every denial: unknown, inactive, or unreadable.
var ErrNotFound = errors.New("access: no active account")

// Identity is the resolved account handed to business logic.
type Identity struct {
	AccountID string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"-"`
}

// Resolver answers access questions against an accesstoken.Store.
type Resolver struct {
	store accesstoken.Store
	audit *Auditor
}

// NewResolver builds a resolver.  A nil auditor disables the audit trail
// but keeps the metrics.
func NewResolver(store accesstoken.Store, audit *Auditor) *Resolver {
	if audit == nil {
		audit = &Auditor{log: zap.NewNop()}
	}
	return &Resolver{store: store, audit: audit}
}

// ResolveByToken maps an opaque bearer token to an active identity.
func (r *Resolver) ResolveByToken(ctx context.Context, token string) (Identity, error) {
	rec, err := r.store.FindByToken(ctx, token)
	return r.decide(ctx, MethodToken, rec, err)
}

// ResolveByEmail maps an email to an active identity, token included.
func (r *Resolver) ResolveByEmail(ctx context.Context, email string) (Identity, error) {
	rec, err := r.store.FindByEmail(ctx, email)
	return r.decide(ctx, MethodEmail, rec, err)
}

// Verify re-resolves a decoded session against storage.
func (r *Resolver) Verify(ctx context.Context, s session.Record) (Identity, error) {
	if s.SID == "" || s.Email == "" {
		return Identity{}, r.Deny(ctx, MethodSession, ReasonBadSession)
	}
	rec, err := r.store.FindByEmail(ctx, s.Email)
	return r.decide(ctx, MethodSession, rec, err)
}

// Deny records a denial decided before any lookup (no cookie, bad
// signature) and returns ErrNotFound.
func (r *Resolver) Deny(ctx context.Context, m Method, reason Reason) error {
	r.audit.record(ctx, m, reason, "")
	return ErrNotFound
}

func (r *Resolver) decide(ctx context.Context, m Method, rec accesstoken.Record, err error) (Identity, error) {
	switch {
	case errors.Is(err, accesstoken.ErrNotFound):
		r.audit.record(ctx, m, ReasonNotFound, "")
		return Identity{}, ErrNotFound
	case err != nil:
		r.audit.log.Error("access lookup failed", zap.String("method", string(m)), zap.Error(err))
		r.audit.record(ctx, m, ReasonStorageError, "")
		return Identity{}, ErrNotFound
	case !rec.Active():
		r.audit.record(ctx, m, ReasonInactive, rec.Email)
		return Identity{}, ErrNotFound
	}
	r.audit.record(ctx, m, ReasonNone, rec.Email)
	return Identity{
		AccountID: rec.ID,
		Email:     rec.Email,
		Name:      rec.Name,
		Token:     rec.Token,
	}, nil
}

/*──────────────────────────── context helpers ─────────────────────────────*/

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity attached by the session middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
