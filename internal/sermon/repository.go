package sermon

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/sermonario/internal/database"
)

var columns = []string{
	"id", "user_id", "title", "theme", "main_verse", "verse_text",
	"objective", "sermon_date", "sermon_json", "created_at", "updated_at",
}

// Repository is the SQL-backed Store.
type Repository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// NewRepository binds a repository to db; driver selects placeholder style.
func NewRepository(db *sqlx.DB, driver string) *Repository {
	return &Repository{db: db, sb: database.Builder(driver)}
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Sermon, error) {
	q, args, err := r.sb.Select(columns...).From("sermons").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []Sermon
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, errorf("list", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Sermon, error) {
	q, args, err := r.sb.Select(columns...).From("sermons").
		Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return Sermon{}, err
	}
	var s Sermon
	if err := r.db.GetContext(ctx, &s, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Sermon{}, ErrNotFound
		}
		return Sermon{}, errorf("get", err)
	}
	return s, nil
}

func (r *Repository) Insert(ctx context.Context, s *Sermon) error {
	q, args, err := r.sb.Insert("sermons").Columns(columns...).Values(
		s.ID, s.UserID, s.Title, s.Theme, s.MainVerse, s.VerseText,
		s.Objective, s.Date, s.SermonJSON, s.CreatedAt, s.UpdatedAt,
	).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return errorf("insert", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, s *Sermon) error {
	q, args, err := r.sb.Update("sermons").SetMap(map[string]any{
		"title":       s.Title,
		"theme":       s.Theme,
		"main_verse":  s.MainVerse,
		"verse_text":  s.VerseText,
		"objective":   s.Objective,
		"sermon_date": s.Date,
		"sermon_json": s.SermonJSON,
		"updated_at":  s.UpdatedAt,
	}).Where(sq.Eq{"id": s.ID}).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, "update", q, args)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	q, args, err := r.sb.Delete("sermons").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, "delete", q, args)
}

func (r *Repository) execOne(ctx context.Context, op, q string, args []any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errorf(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errorf(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
