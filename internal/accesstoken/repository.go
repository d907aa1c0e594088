package accesstoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/sermonario/internal/database"
)

var columns = []string{"id", "name", "email", "token", "status", "created_at", "updated_at"}

// Repository is the SQL-backed Store.
type Repository struct {
	db  *sqlx.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

// NewRepository binds a repository to db; driver selects placeholder style.
func NewRepository(db *sqlx.DB, driver string) *Repository {
	return &Repository{
		db:  db,
		sb:  database.Builder(driver),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository) findOne(ctx context.Context, where sq.Eq) (Record, error) {
	q, args, err := r.sb.Select(columns...).From("access_tokens").Where(where).Limit(1).ToSql()
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("select access token: %w", err)
	}
	return rec, nil
}

// FindByToken looks a row up by exact bearer token.
func (r *Repository) FindByToken(ctx context.Context, token string) (Record, error) {
	if token == "" {
		return Record{}, ErrNotFound
	}
	return r.findOne(ctx, sq.Eq{"token": token})
}

// FindByEmail looks a row up by normalised email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Record, error) {
	email = NormaliseEmail(email)
	if email == "" {
		return Record{}, ErrNotFound
	}
	return r.findOne(ctx, sq.Eq{"email": email})
}

// ListActive returns active accounts ordered by creation time.
func (r *Repository) ListActive(ctx context.Context) ([]Record, error) {
	q, args, err := r.sb.Select(columns...).
		From("access_tokens").
		Where(sq.Eq{"status": string(StatusActive)}).
		OrderBy("created_at ASC", "email ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	out := []Record{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list active access tokens: %w", err)
	}
	return out, nil
}

// UpdateStatus moves the account for email to status and bumps updated_at.
func (r *Repository) UpdateStatus(ctx context.Context, email string, status Status) error {
	q, args, err := r.sb.Update("access_tokens").
		Set("status", string(status)).
		Set("updated_at", r.now()).
		Where(sq.Eq{"email": NormaliseEmail(email)}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update access token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update access token: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Insert stores rec, filling id, token, status, and timestamps when empty.
func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	prepare(rec, r.now())
	q, args, err := r.sb.Insert("access_tokens").
		Columns(columns...).
		Values(rec.ID, rec.Name, rec.Email, rec.Token, string(rec.Status), rec.CreatedAt, rec.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert access token: %w", err)
	}
	return nil
}
