// internal/accesstoken/accesstoken.go
//
// Lifetime access tokens, one per paying account.
//
// Context
// -------
//
//	access_tokens (id PK, name, email UNIQUE, token, status, created_at, updated_at)
//
// A row is created by a sale event and moves to “refunded” on a refund.  Rows
// are never deleted and tokens are never rotated.  Only status “active”
// grants access; deciding that is the access resolver's job, not this
// package's.
//
// Emails are normalised (trimmed, lower-cased) on every read and write so the
// uniqueness constraint cannot be bypassed by case.
//
//------------------------------------------------------------------------------

package accesstoken

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive   Status = "active"
	StatusRefunded Status = "refunded"
)

// TokenPrefix marks every issued bearer token.
const TokenPrefix = "serm_"

var (
	// ErrNotFound means no row matched.
	ErrNotFound = errors.New("accesstoken: not found")
	// ErrDuplicateEmail means a row with the same email already exists.
	ErrDuplicateEmail = errors.New("accesstoken: email already registered")
)

// Record is one access_tokens row.
type Record struct {
	ID        string    `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Email     string    `db:"email"      json:"email"`
	Token     string    `db:"token"      json:"-"`
	Status    Status    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the record grants access.
func (r Record) Active() bool { return r.Status == StatusActive }

// Store is the storage boundary used by the resolver and the webhooks.
// ListActive returns every active account, oldest first.
type Store interface {
	FindByToken(ctx context.Context, token string) (Record, error)
	FindByEmail(ctx context.Context, email string) (Record, error)
	ListActive(ctx context.Context) ([]Record, error)
	UpdateStatus(ctx context.Context, email string, status Status) error
	Insert(ctx context.Context, rec *Record) error
}

// NewToken returns a fresh bearer token: serm_<uuid>_<unix-millis>.
func NewToken() string {
	return fmt.Sprintf("%s%s_%d", TokenPrefix, uuid.NewString(), time.Now().UnixMilli())
}

// NormaliseEmail trims and lower-cases an address.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// prepare fills defaults on rec before insert.
func prepare(rec *Record, now time.Time) {
	rec.Email = NormaliseEmail(rec.Email)
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Token == "" {
		rec.Token = NewToken()
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
}
