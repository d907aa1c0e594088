package sermon

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner = "6f1c1d0e-0000-4000-8000-000000000001"
	other = "6f1c1d0e-0000-4000-8000-000000000002"
)

func strp(s string) *string { return &s }

func newService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewMemoryStore())
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc
}

func TestCreateAndList_NewestFirst(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, owner, Draft{Title: "Grace", Date: strp("2025-06-08")})
	require.NoError(t, err)
	second, err := svc.Create(ctx, owner, Draft{Title: "Faith"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, Draft{Title: "Hope"})
	require.NoError(t, err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	require.NotNil(t, list[1].Date)
	assert.Equal(t, "2025-06-08", list[1].Date.Format(time.DateOnly))
}

func TestList_EmptyIsNotNil(t *testing.T) {
	list, err := newService(t).List(context.Background(), owner)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCreate_Invalid(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var inv *InvalidError
	_, err := svc.Create(ctx, owner, Draft{})
	require.ErrorAs(t, err, &inv)
	assert.Contains(t, inv.Fields, "title")

	_, err = svc.Create(ctx, owner, Draft{Title: "   "})
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, []string{"title"}, inv.Fields)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Create(ctx, owner, Draft{Title: "x", SermonJSON: strp("{not json")})
	require.ErrorAs(t, err, &inv)
	assert.Contains(t, inv.Fields, "sermon_json")

	_, err = svc.Create(ctx, owner, Draft{Title: "x", Date: strp("08/06/2025")})
	require.ErrorAs(t, err, &inv)
}

func TestGet_Ownership(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	s, err := svc.Create(ctx, owner, Draft{Title: "Grace"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Title)

	_, err = svc.Get(ctx, other, s.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, owner, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, owner, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_Partial(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	s, err := svc.Create(ctx, owner, Draft{
		Title: "Grace", Theme: "Mercy", Date: strp("2025-06-08"), SermonJSON: strp(`{"a":1}`),
	})
	require.NoError(t, err)

	up, err := svc.Update(ctx, owner, s.ID, Patch{Theme: strp("Love"), SermonJSON: strp(`{"a":2}`)})
	require.NoError(t, err)
	assert.Equal(t, "Grace", up.Title)
	assert.Equal(t, "Love", up.Theme)
	assert.Equal(t, `{"a":2}`, *up.SermonJSON)
	assert.True(t, up.UpdatedAt.After(s.UpdatedAt))
	assert.Equal(t, s.CreatedAt, up.CreatedAt)

	up, err = svc.Update(ctx, owner, s.ID, Patch{Date: strp("")})
	require.NoError(t, err)
	assert.Nil(t, up.Date)

	var inv *InvalidError
	_, err = svc.Update(ctx, owner, s.ID, Patch{SermonJSON: strp("[1,")})
	assert.ErrorAs(t, err, &inv)
	_, err = svc.Update(ctx, owner, s.ID, Patch{Title: strp("")})
	assert.ErrorAs(t, err, &inv)
	_, err = svc.Update(ctx, owner, s.ID, Patch{Title: strp("  ")})
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, []string{"title"}, inv.Fields)

	got, err := svc.Get(ctx, owner, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Title)

	up, err = svc.Update(ctx, owner, s.ID, Patch{Title: strp("  Grace Abounds ")})
	require.NoError(t, err)
	assert.Equal(t, "Grace Abounds", up.Title)

	_, err = svc.Update(ctx, other, s.ID, Patch{Theme: strp("x")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	s, err := svc.Create(ctx, owner, Draft{Title: "Grace"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, other, s.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, owner, s.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, s.ID), ErrNotFound)
}
