// internal/middleware/session.go
//
// Session gate for privileged routes.
//
// Every request re-resolves the signed cookie against the account store:
//
//	no cookie        -> deny (no_session)
//	bad cookie       -> deny (bad_session)
//	inactive/unknown -> deny (resolver decides)
//	otherwise        -> Identity attached to the request context
//
// Denials redirect (303) to the configured denial page.  API callers that
// ask for JSON get a bare 401 instead so fetch() does not follow a redirect
// into an HTML page.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/yanizio/sermonario/internal/access"
	"github.com/yanizio/sermonario/internal/session"
)

// Verifier is the slice of access.Resolver the gate needs.
type Verifier interface {
	Verify(ctx context.Context, rec session.Record) (access.Identity, error)
	Deny(ctx context.Context, m access.Method, reason access.Reason) error
}

// RequireSession admits only requests carrying a valid session for an
// active account.
func RequireSession(store *session.Store, v Verifier, denialPath string) func(http.Handler) http.Handler {
	if denialPath == "" {
		denialPath = "/"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if _, err := r.Cookie(store.CookieName()); err != nil {
				_ = v.Deny(ctx, access.MethodSession, access.ReasonNoSession)
				deny(w, r, denialPath)
				return
			}
			rec, ok := store.Current(r)
			if !ok {
				_ = v.Deny(ctx, access.MethodSession, access.ReasonBadSession)
				deny(w, r, denialPath)
				return
			}
			id, err := v.Verify(ctx, rec)
			if err != nil {
				deny(w, r, denialPath)
				return
			}
			next.ServeHTTP(w, r.WithContext(access.WithIdentity(ctx, id)))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, denialPath string) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}
	http.Redirect(w, r, denialPath, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
