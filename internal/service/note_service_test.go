package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stevearchuleta/javascripteverywhere/internal/auth"
	dom "github.com/stevearchuleta/javascripteverywhere/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// fakeNoteRepo is an in-memory NoteRepo. ToggleFavorite mirrors the store
// contract: membership and count change together in one operation.
type fakeNoteRepo struct {
	notes      map[int64]dom.Note
	nextID     int64
	failDelete bool
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[int64]dom.Note), nextID: 1}
}

func (f *fakeNoteRepo) Create(_ context.Context, content string, authorID int64) (dom.Note, error) {
	n := dom.Note{
		ID:        f.nextID,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.nextID++
	f.notes[n.ID] = n
	return n, nil
}

func (f *fakeNoteRepo) GetByID(_ context.Context, id int64) (dom.Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return dom.Note{}, pgx.ErrNoRows
	}
	return n, nil
}

func (f *fakeNoteRepo) List(_ context.Context) ([]dom.Note, error) {
	out := f.sorted(false)
	return out, nil
}

func (f *fakeNoteRepo) UpdateContent(_ context.Context, id int64, content string) (dom.Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return dom.Note{}, pgx.ErrNoRows
	}
	n.Content = content
	n.UpdatedAt = time.Now()
	f.notes[id] = n
	return n, nil
}

func (f *fakeNoteRepo) Delete(_ context.Context, id int64) error {
	if f.failDelete {
		return errors.New("store delete failed")
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNoteRepo) FindWindow(_ context.Context, before int64, limit int) ([]dom.Note, error) {
	var out []dom.Note
	for _, n := range f.sorted(true) {
		if before > 0 && n.ID >= before {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNoteRepo) ToggleFavorite(_ context.Context, id, userID int64) (dom.Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return dom.Note{}, pgx.ErrNoRows
	}
	idx := -1
	for i, u := range n.FavoritedBy {
		if u == userID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		n.FavoritedBy = append(append([]int64{}, n.FavoritedBy[:idx]...), n.FavoritedBy[idx+1:]...)
		n.FavoriteCount--
	} else {
		n.FavoritedBy = append(append([]int64{}, n.FavoritedBy...), userID)
		n.FavoriteCount++
	}
	n.UpdatedAt = time.Now()
	f.notes[id] = n
	return n, nil
}

func (f *fakeNoteRepo) ListByAuthor(_ context.Context, authorID int64) ([]dom.Note, error) {
	var out []dom.Note
	for _, n := range f.sorted(true) {
		if n.AuthorID == authorID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNoteRepo) ListFavoritedBy(_ context.Context, userID int64) ([]dom.Note, error) {
	var out []dom.Note
	for _, n := range f.sorted(true) {
		for _, u := range n.FavoritedBy {
			if u == userID {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeNoteRepo) sorted(desc bool) []dom.Note {
	out := make([]dom.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func seedNotes(t *testing.T, svc *NoteService, count int, authorID int64) {
	t.Helper()
	identity := &auth.Identity{UserID: authorID}
	for i := 1; i <= count; i++ {
		_, err := svc.Create(context.Background(), identity, fmt.Sprintf("note %d", i))
		require.NoError(t, err)
	}
}

func noteIDs(notes []dom.Note) []int64 {
	out := make([]int64, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestFeed_FirstAndSecondPage(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)
	seedNotes(t, svc, 15, 1)
	ctx := context.Background()

	first, err := svc.Feed(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []int64{15, 14, 13, 12, 11, 10, 9, 8, 7, 6}, noteIDs(first.Notes))
	require.True(t, first.HasNextPage)
	id, err := decodeCursor(first.Cursor)
	require.NoError(t, err)
	require.Equal(t, int64(6), id)

	second, err := svc.Feed(ctx, first.Cursor)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 4, 3, 2, 1}, noteIDs(second.Notes))
	require.False(t, second.HasNextPage)
}

func TestFeed_CursorBeyondOldest(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)
	seedNotes(t, svc, 3, 1)

	page, err := svc.Feed(context.Background(), encodeCursor(1))
	require.NoError(t, err)
	require.Empty(t, page.Notes)
	require.False(t, page.HasNextPage)
	require.Empty(t, page.Cursor)
}

func TestFeed_EmptyStore(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)

	page, err := svc.Feed(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, page.Notes)
	require.False(t, page.HasNextPage)
	require.Empty(t, page.Cursor)
}

func TestFeed_ExactlyOnePage(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)
	seedNotes(t, svc, 10, 1)

	page, err := svc.Feed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, page.Notes, 10)
	require.False(t, page.HasNextPage)
	require.NotEmpty(t, page.Cursor)
}

func TestFeed_MalformedCursor(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)

	_, err := svc.Feed(context.Background(), "not a cursor!!")
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestToggleFavorite_CountTracksMembership(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)
	seedNotes(t, svc, 1, 1)
	ctx := context.Background()
	alice := &auth.Identity{UserID: 2}
	bob := &auth.Identity{UserID: 3}

	n, err := svc.ToggleFavorite(ctx, alice, 1)
	require.NoError(t, err)
	require.Equal(t, n.FavoriteCount, len(n.FavoritedBy))
	require.Equal(t, 1, n.FavoriteCount)

	n, err = svc.ToggleFavorite(ctx, bob, 1)
	require.NoError(t, err)
	require.Equal(t, n.FavoriteCount, len(n.FavoritedBy))
	require.Equal(t, 2, n.FavoriteCount)

	// Toggling twice by the same user is a round trip.
	n, err = svc.ToggleFavorite(ctx, alice, 1)
	require.NoError(t, err)
	require.Equal(t, n.FavoriteCount, len(n.FavoritedBy))
	require.Equal(t, 1, n.FavoriteCount)
	require.NotContains(t, n.FavoritedBy, alice.UserID)
	require.Contains(t, n.FavoritedBy, bob.UserID)
}

func TestToggleFavorite_Guards(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)
	seedNotes(t, svc, 1, 1)
	ctx := context.Background()

	_, err := svc.ToggleFavorite(ctx, nil, 1)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.ToggleFavorite(ctx, &auth.Identity{UserID: 2}, 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_AuthorizationOrder(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)
	seedNotes(t, svc, 1, 1)
	ctx := context.Background()
	stranger := &auth.Identity{UserID: 2}

	_, err := svc.Update(ctx, nil, 1, "new")
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Update(ctx, stranger, 1, "new")
	require.ErrorIs(t, err, ErrForbidden)

	// Existence fires before ownership: a stranger probing a missing id sees
	// not found, never forbidden.
	_, err = svc.Update(ctx, stranger, 99, "new")
	require.ErrorIs(t, err, ErrNotFound)

	n, err := svc.Update(ctx, &auth.Identity{UserID: 1}, 1, "  new content  ")
	require.NoError(t, err)
	require.Equal(t, "new content", n.Content)
}

func TestUpdate_EmptyContent(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)
	seedNotes(t, svc, 1, 1)

	_, err := svc.Update(context.Background(), &auth.Identity{UserID: 1}, 1, "   ")
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestDelete_AuthzErrorsPropagate(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)
	seedNotes(t, svc, 1, 1)
	ctx := context.Background()

	_, err := svc.Delete(ctx, nil, 1)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Delete(ctx, &auth.Identity{UserID: 2}, 1)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Delete(ctx, &auth.Identity{UserID: 1}, 99)
	require.ErrorIs(t, err, ErrNotFound)

	deleted, err := svc.Delete(ctx, &auth.Identity{UserID: 1}, 1)
	require.NoError(t, err)
	require.True(t, deleted)
}

func TestDelete_StoreFailureIsFalseNotError(t *testing.T) {
	t.Parallel()

	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil)
	seedNotes(t, svc, 1, 1)
	repo.failDelete = true

	deleted, err := svc.Delete(context.Background(), &auth.Identity{UserID: 1}, 1)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestCreate_AuthorIsAlwaysTheCaller(t *testing.T) {
	t.Parallel()

	svc := NewNoteService(newFakeNoteRepo(), nil)

	n, err := svc.Create(context.Background(), &auth.Identity{UserID: 7}, "hello")
	require.NoError(t, err)
	require.Equal(t, int64(7), n.AuthorID)

	_, err = svc.Create(context.Background(), nil, "hello")
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Create(context.Background(), &auth.Identity{UserID: 7}, "   ")
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	id, err := decodeCursor(encodeCursor(42))
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	_, err = decodeCursor("")
	require.ErrorIs(t, err, ErrInvalidCursor)
}
