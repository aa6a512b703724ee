package repo

import (
	"context"

	dom "github.com/stevearchuleta/javascripteverywhere/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NoteRepo provides note persistence and queries.
type NoteRepo interface {
	Create(ctx context.Context, content string, authorID int64) (dom.Note, error)
	GetByID(ctx context.Context, id int64) (dom.Note, error)
	List(ctx context.Context) ([]dom.Note, error)
	UpdateContent(ctx context.Context, id int64, content string) (dom.Note, error)
	Delete(ctx context.Context, id int64) error
	// FindWindow returns up to limit notes ordered by id descending. A before
	// value > 0 restricts the window to notes with id strictly below it.
	FindWindow(ctx context.Context, before int64, limit int) ([]dom.Note, error)
	// ToggleFavorite flips the (user, note) favorite membership and adjusts
	// favorite_count by ±1 in one atomic statement.
	ToggleFavorite(ctx context.Context, id, userID int64) (dom.Note, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]dom.Note, error)
	ListFavoritedBy(ctx context.Context, userID int64) ([]dom.Note, error)
}

const noteColumns = `id, content, author_id, favorite_count, favorited_by, created_at, updated_at`

// PGNoteRepo implements NoteRepo with Postgres.
type PGNoteRepo struct {
	db *pgxpool.Pool
}

// NewPGNoteRepo returns a new PGNoteRepo.
func NewPGNoteRepo(db *pgxpool.Pool) *PGNoteRepo {
	return &PGNoteRepo{db: db}
}

func (r *PGNoteRepo) Create(ctx context.Context, content string, authorID int64) (dom.Note, error) {
	query := `
		INSERT INTO notes (content, author_id)
		VALUES ($1, $2)
		RETURNING ` + noteColumns
	var n dom.Note
	err := r.db.QueryRow(ctx, query, content, authorID).Scan(
		&n.ID, &n.Content, &n.AuthorID, &n.FavoriteCount, &n.FavoritedBy,
		&n.CreatedAt, &n.UpdatedAt,
	)
	return n, err
}

func (r *PGNoteRepo) GetByID(ctx context.Context, id int64) (dom.Note, error) {
	var n dom.Note
	err := r.db.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`,
		id,
	).Scan(&n.ID, &n.Content, &n.AuthorID, &n.FavoriteCount, &n.FavoritedBy,
		&n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (r *PGNoteRepo) List(ctx context.Context) ([]dom.Note, error) {
	rows, err := r.db.Query(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

func (r *PGNoteRepo) UpdateContent(ctx context.Context, id int64, content string) (dom.Note, error) {
	query := `
		UPDATE notes SET content = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + noteColumns
	var n dom.Note
	err := r.db.QueryRow(ctx, query, id, content).Scan(
		&n.ID, &n.Content, &n.AuthorID, &n.FavoriteCount, &n.FavoritedBy,
		&n.CreatedAt, &n.UpdatedAt,
	)
	return n, err
}

func (r *PGNoteRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	return err
}

// FindWindow fetches the feed window: newest first, keyed on the monotonic id.
func (r *PGNoteRepo) FindWindow(ctx context.Context, before int64, limit int) ([]dom.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes WHERE ($1 <= 0 OR id < $1)
		ORDER BY id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

// ToggleFavorite flips membership and count in one statement; both CASE
// expressions see the pre-update row, so they stay consistent with each other
// under concurrent togglers.
func (r *PGNoteRepo) ToggleFavorite(ctx context.Context, id, userID int64) (dom.Note, error) {
	query := `
		UPDATE notes SET
			favorited_by = CASE WHEN $2 = ANY(favorited_by)
				THEN array_remove(favorited_by, $2)
				ELSE array_append(favorited_by, $2) END,
			favorite_count = CASE WHEN $2 = ANY(favorited_by)
				THEN favorite_count - 1
				ELSE favorite_count + 1 END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + noteColumns
	var n dom.Note
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&n.ID, &n.Content, &n.AuthorID, &n.FavoriteCount, &n.FavoritedBy,
		&n.CreatedAt, &n.UpdatedAt,
	)
	return n, err
}

func (r *PGNoteRepo) ListByAuthor(ctx context.Context, authorID int64) ([]dom.Note, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE author_id = $1 ORDER BY id DESC`,
		authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

func (r *PGNoteRepo) ListFavoritedBy(ctx context.Context, userID int64) ([]dom.Note, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE $1 = ANY(favorited_by) ORDER BY id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

func scanNotes(rows pgx.Rows) ([]dom.Note, error) {
	var list []dom.Note
	for rows.Next() {
		var n dom.Note
		if err := rows.Scan(&n.ID, &n.Content, &n.AuthorID, &n.FavoriteCount, &n.FavoritedBy,
			&n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}
