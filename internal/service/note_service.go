package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stevearchuleta/javascripteverywhere/internal/auth"
	"github.com/stevearchuleta/javascripteverywhere/internal/cache"
	dom "github.com/stevearchuleta/javascripteverywhere/internal/domain"
	"github.com/stevearchuleta/javascripteverywhere/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrUnauthenticated: the operation needs a caller identity and none was supplied.
	ErrUnauthenticated = errors.New("you must be signed in")
	// ErrForbidden: the caller is authenticated but does not own the note.
	ErrForbidden = errors.New("you do not have permission to modify this note")
	ErrNotFound  = errors.New("not found")
	// ErrStoreUnavailable wraps a failed store call; the cause is preserved.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrEmptyContent     = errors.New("note content must not be empty")
	ErrInvalidCursor    = errors.New("invalid cursor")
)

// feedLimit is the fixed feed page size.
const feedLimit = 10

// FeedPage is one page of the note feed. Cursor is an opaque token resuming
// the walk strictly after the last returned note; it is empty when the page is.
type FeedPage struct {
	Notes       []dom.Note
	Cursor      string
	HasNextPage bool
}

// NoteService holds the note business rules: who may create, edit, delete and
// favorite, and how the feed is paginated. If c is nil, caching is disabled.
type NoteService struct {
	repo  repo.NoteRepo
	cache *cache.NoteCache
	sf    singleflight.Group
}

// NewNoteService creates a NoteService. If c is nil, caching is disabled.
func NewNoteService(r repo.NoteRepo, c *cache.NoteCache) *NoteService {
	return &NoteService{repo: r, cache: c}
}

// Create stores a new note authored by the caller. The author is always the
// caller identity; client-supplied author values are never consulted.
func (s *NoteService) Create(ctx context.Context, identity *auth.Identity, content string) (dom.Note, error) {
	if identity == nil {
		return dom.Note{}, ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return dom.Note{}, ErrEmptyContent
	}
	n, err := s.repo.Create(ctx, content, identity.UserID)
	if err != nil {
		return dom.Note{}, storeErr(err)
	}
	s.invalidateCache(ctx)
	return n, nil
}

// Get returns a note by id.
func (s *NoteService) Get(ctx context.Context, id int64) (dom.Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Note{}, translate(err)
	}
	return n, nil
}

// List returns all notes.
func (s *NoteService) List(ctx context.Context) ([]dom.Note, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("list", func() (interface{}, error) {
			if list, err := s.cache.GetList(ctx); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.List(ctx)
			if err != nil {
				return nil, storeErr(err)
			}
			_ = s.cache.SetList(ctx, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Note), nil
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

// Update replaces the note content. Requires the caller to be signed in and
// to own the note; the existence check runs before the ownership check, so a
// missing note is reported as not found rather than forbidden.
func (s *NoteService) Update(ctx context.Context, identity *auth.Identity, id int64, content string) (dom.Note, error) {
	existing, err := s.authorizeOwner(ctx, identity, id)
	if err != nil {
		return dom.Note{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return dom.Note{}, ErrEmptyContent
	}
	n, err := s.repo.UpdateContent(ctx, existing.ID, content)
	if err != nil {
		return dom.Note{}, translate(err)
	}
	s.invalidateCache(ctx)
	return n, nil
}

// Delete removes the note. Authorization failures surface as errors, but a
// failure of the store delete itself degrades to a false result.
func (s *NoteService) Delete(ctx context.Context, identity *auth.Identity, id int64) (bool, error) {
	existing, err := s.authorizeOwner(ctx, identity, id)
	if err != nil {
		return false, err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return false, nil
	}
	s.invalidateCache(ctx)
	return true, nil
}

// ToggleFavorite flips the caller's favorite on the note. Membership and
// count move together in a single store statement; any signed-in user may
// favorite any note.
func (s *NoteService) ToggleFavorite(ctx context.Context, identity *auth.Identity, id int64) (dom.Note, error) {
	if identity == nil {
		return dom.Note{}, ErrUnauthenticated
	}
	n, err := s.repo.ToggleFavorite(ctx, id, identity.UserID)
	if err != nil {
		return dom.Note{}, translate(err)
	}
	s.invalidateCache(ctx)
	return n, nil
}

// Feed returns one page of the note feed, newest first. An empty cursor
// starts at the newest note; otherwise the page starts strictly after the
// note the cursor refers to.
func (s *NoteService) Feed(ctx context.Context, cursor string) (FeedPage, error) {
	var before int64
	if cursor != "" {
		id, err := decodeCursor(cursor)
		if err != nil {
			return FeedPage{}, err
		}
		before = id
	}

	// One extra row probes whether another page exists.
	notes, err := s.findWindow(ctx, before, feedLimit+1)
	if err != nil {
		return FeedPage{}, err
	}

	page := FeedPage{Notes: notes}
	if len(notes) > feedLimit {
		page.HasNextPage = true
		page.Notes = notes[:feedLimit]
	}
	// An empty page has no last item, so it carries no cursor.
	if len(page.Notes) > 0 {
		page.Cursor = encodeCursor(page.Notes[len(page.Notes)-1].ID)
	}
	return page, nil
}

// ListByAuthor returns the notes written by a user, newest first.
func (s *NoteService) ListByAuthor(ctx context.Context, authorID int64) ([]dom.Note, error) {
	list, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

// ListFavoritedBy returns the notes a user has favorited, newest first.
func (s *NoteService) ListFavoritedBy(ctx context.Context, userID int64) ([]dom.Note, error) {
	list, err := s.repo.ListFavoritedBy(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

// authorizeOwner runs the mutation guard: identity first, then existence,
// then ownership. The distinct error kinds matter to callers.
func (s *NoteService) authorizeOwner(ctx context.Context, identity *auth.Identity, id int64) (dom.Note, error) {
	if identity == nil {
		return dom.Note{}, ErrUnauthenticated
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Note{}, translate(err)
	}
	if n.AuthorID != identity.UserID {
		return dom.Note{}, ErrForbidden
	}
	return n, nil
}

// findWindow serves the first feed window from cache when possible; windows
// behind a cursor always hit the store.
func (s *NoteService) findWindow(ctx context.Context, before int64, limit int) ([]dom.Note, error) {
	if s.cache == nil || before > 0 {
		notes, err := s.repo.FindWindow(ctx, before, limit)
		if err != nil {
			return nil, storeErr(err)
		}
		return notes, nil
	}
	v, err, _ := s.sf.Do("feed", func() (interface{}, error) {
		if notes, err := s.cache.GetFeedWindow(ctx); err == nil && notes != nil {
			return notes, nil
		}
		notes, err := s.repo.FindWindow(ctx, 0, limit)
		if err != nil {
			return nil, storeErr(err)
		}
		_ = s.cache.SetFeedWindow(ctx, notes)
		return notes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Note), nil
}

func (s *NoteService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateAll(ctx)
	}
}

func encodeCursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

func decodeCursor(cursor string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidCursor
	}
	return id, nil
}

// translate maps a store lookup error to a service error kind.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return storeErr(err)
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
