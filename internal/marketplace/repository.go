package marketplace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/sermonario/internal/database"
)

var (
	sermonColumns = []string{
		"id", "title", "theme", "main_verse", "objective", "description",
		"price_in_cents", "checkout_url", "created_at", "updated_at",
	}
	fileColumns = []string{"id", "sermon_id", "type", "url"}
)

// Repository is the SQL-backed Catalog.
type Repository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

var _ Catalog = (*Repository)(nil)

// NewRepository binds a repository to db; driver selects placeholder style.
func NewRepository(db *sqlx.DB, driver string) *Repository {
	return &Repository{db: db, sb: database.Builder(driver)}
}

// ListSermons loads every catalog sermon and its files in two queries.
func (r *Repository) ListSermons(ctx context.Context) ([]Sermon, error) {
	q, args, err := r.sb.Select(sermonColumns...).From("catalog_sermons").
		OrderBy("created_at").ToSql()
	if err != nil {
		return nil, err
	}
	var sermons []Sermon
	if err := r.db.SelectContext(ctx, &sermons, q, args...); err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if len(sermons) == 0 {
		return sermons, nil
	}

	ids := make([]string, len(sermons))
	for i, s := range sermons {
		ids[i] = s.ID
	}
	q, args, err = r.sb.Select(fileColumns...).From("catalog_sermon_files").
		Where(sq.Eq{"sermon_id": ids}).OrderBy("created_at").ToSql()
	if err != nil {
		return nil, err
	}
	var files []File
	if err := r.db.SelectContext(ctx, &files, q, args...); err != nil {
		return nil, fmt.Errorf("list catalog files: %w", err)
	}
	byID := make(map[string]int, len(sermons))
	for i, s := range sermons {
		byID[s.ID] = i
	}
	for _, f := range files {
		if i, ok := byID[f.SermonID]; ok {
			sermons[i].Files = append(sermons[i].Files, f)
		}
	}
	return sermons, nil
}

// GetSermon loads one catalog sermon without files.
func (r *Repository) GetSermon(ctx context.Context, id string) (Sermon, error) {
	q, args, err := r.sb.Select(sermonColumns...).From("catalog_sermons").
		Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return Sermon{}, err
	}
	var s Sermon
	if err := r.db.GetContext(ctx, &s, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Sermon{}, ErrNotFound
		}
		return Sermon{}, fmt.Errorf("get catalog sermon: %w", err)
	}
	return s, nil
}

// FindFile returns the file of fileType for sermonID.
func (r *Repository) FindFile(ctx context.Context, sermonID, fileType string) (File, error) {
	q, args, err := r.sb.Select(fileColumns...).From("catalog_sermon_files").
		Where(sq.Eq{"sermon_id": sermonID, "type": fileType}).Limit(1).ToSql()
	if err != nil {
		return File{}, err
	}
	var f File
	if err := r.db.GetContext(ctx, &f, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("find catalog file: %w", err)
	}
	return f, nil
}

// HasGrant reports whether token holds an approved grant for sermonID.
func (r *Repository) HasGrant(ctx context.Context, token, sermonID string) (bool, error) {
	q, args, err := r.sb.Select("1").From("access_sermons").
		Where(sq.Eq{"client_token": token, "sermon_id": sermonID, "status": GrantApproved}).
		Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	if err := r.db.GetContext(ctx, &one, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("grant lookup: %w", err)
	}
	return true, nil
}
