package domain

import "time"

// Note is the domain entity for a shared note.
// AuthorID is set from the caller identity at creation and never changes.
// Invariant: FavoriteCount == len(FavoritedBy) after any successful mutation;
// the store updates both in a single statement.
type Note struct {
	ID            int64
	Content       string
	AuthorID      int64
	FavoriteCount int
	FavoritedBy   []int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
