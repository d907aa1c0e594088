// internal/sermon/sermon.go
//
// Per-account sermon library.
//
// Every operation takes the owner's account id from the resolved session
// identity.  The Service enforces ownership; the Store is a dumb table
// mapper.
//
//	List(owner)              newest first
//	Create(owner, Draft)
//	Get(owner, id)           ErrNotFound | ErrForbidden
//	Update(owner, id, Patch) partial; sermon_json must be valid JSON
//	Delete(owner, id)
//
//------------------------------------------------------------------------------

package sermon

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("sermon: not found")
	ErrForbidden = errors.New("sermon: owned by another account")
)

// InvalidError wraps validation failures so handlers can answer 400.
type InvalidError struct{ Fields []string }

func (e *InvalidError) Error() string {
	return "sermon: invalid " + strings.Join(e.Fields, ", ")
}

// Sermon is one stored sermon.
type Sermon struct {
	ID         string     `db:"id"          json:"id"`
	UserID     string     `db:"user_id"     json:"user_id"`
	Title      string     `db:"title"       json:"title"`
	Theme      string     `db:"theme"       json:"theme"`
	MainVerse  string     `db:"main_verse"  json:"main_verse"`
	VerseText  *string    `db:"verse_text"  json:"verse_text"`
	Objective  *string    `db:"objective"   json:"objective"`
	Date       *time.Time `db:"sermon_date" json:"date"`
	SermonJSON *string    `db:"sermon_json" json:"sermon_json"`
	CreatedAt  time.Time  `db:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updatedAt"`
}

// Draft is the create payload.
type Draft struct {
	Title      string  `json:"title"       validate:"required,max=300"`
	Theme      string  `json:"theme"       validate:"max=300"`
	MainVerse  string  `json:"main_verse"  validate:"max=200"`
	VerseText  *string `json:"verse_text"`
	Objective  *string `json:"objective"`
	Date       *string `json:"date"        validate:"omitempty,datetime=2006-01-02"`
	SermonJSON *string `json:"sermon_json" validate:"omitempty,json"`
}

// Patch is the partial-update payload.  Nil fields are left untouched; an
// empty Date clears it.
type Patch struct {
	Title      *string `json:"title"       validate:"omitnil,min=1,max=300"`
	Theme      *string `json:"theme"       validate:"omitempty,max=300"`
	MainVerse  *string `json:"main_verse"  validate:"omitempty,max=200"`
	VerseText  *string `json:"verse_text"`
	Objective  *string `json:"objective"`
	Date       *string `json:"date"        validate:"omitempty,datetime=2006-01-02"`
	SermonJSON *string `json:"sermon_json" validate:"omitempty,json"`
}

// Store persists sermons.
type Store interface {
	ListByUser(ctx context.Context, userID string) ([]Sermon, error)
	Get(ctx context.Context, id string) (Sermon, error)
	Insert(ctx context.Context, s *Sermon) error
	Update(ctx context.Context, s *Sermon) error
	Delete(ctx context.Context, id string) error
}

// Service applies ownership and validation on top of a Store.
type Service struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
}

// NewService wraps store.
func NewService(store Store) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Service{
		store:    store,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns owner's sermons, newest first.
func (s *Service) List(ctx context.Context, owner string) ([]Sermon, error) {
	out, err := s.store.ListByUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Sermon{}
	}
	return out, nil
}

// Create stores a new sermon for owner.
func (s *Service) Create(ctx context.Context, owner string, d Draft) (Sermon, error) {
	d.Title = strings.TrimSpace(d.Title)
	if err := s.check(d); err != nil {
		return Sermon{}, err
	}
	date, err := parseDate(d.Date)
	if err != nil {
		return Sermon{}, err
	}
	now := s.now()
	rec := Sermon{
		ID:         uuid.NewString(),
		UserID:     owner,
		Title:      d.Title,
		Theme:      d.Theme,
		MainVerse:  d.MainVerse,
		VerseText:  d.VerseText,
		Objective:  d.Objective,
		Date:       date,
		SermonJSON: d.SermonJSON,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Insert(ctx, &rec); err != nil {
		return Sermon{}, err
	}
	return rec, nil
}

// Get returns one of owner's sermons.
func (s *Service) Get(ctx context.Context, owner, id string) (Sermon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Sermon{}, ErrNotFound
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Sermon{}, err
	}
	if rec.UserID != owner {
		return Sermon{}, ErrForbidden
	}
	return rec, nil
}

// Update applies p to one of owner's sermons.
func (s *Service) Update(ctx context.Context, owner, id string, p Patch) (Sermon, error) {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if err := s.check(p); err != nil {
		return Sermon{}, err
	}
	rec, err := s.Get(ctx, owner, id)
	if err != nil {
		return Sermon{}, err
	}
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Theme != nil {
		rec.Theme = *p.Theme
	}
	if p.MainVerse != nil {
		rec.MainVerse = *p.MainVerse
	}
	if p.VerseText != nil {
		rec.VerseText = p.VerseText
	}
	if p.Objective != nil {
		rec.Objective = p.Objective
	}
	if p.Date != nil {
		if rec.Date, err = parseDate(p.Date); err != nil {
			return Sermon{}, err
		}
	}
	if p.SermonJSON != nil {
		rec.SermonJSON = p.SermonJSON
	}
	rec.UpdatedAt = s.now()
	if err := s.store.Update(ctx, &rec); err != nil {
		return Sermon{}, err
	}
	return rec, nil
}

// Delete removes one of owner's sermons.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field())
	}
	return &InvalidError{Fields: fields}
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, &InvalidError{Fields: []string{"date"}}
	}
	return &t, nil
}

// errorf keeps storage errors distinguishable from the sentinels.
func errorf(op string, err error) error { return fmt.Errorf("sermon: %s: %w", op, err) }
