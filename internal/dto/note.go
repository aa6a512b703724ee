package dto

import "time"

// CreateNoteRequest is the JSON body for POST /notes. Any author field a
// client might send is simply not part of the shape: the author is always the
// caller.
type CreateNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

// UpdateNoteRequest is the JSON body for PATCH /notes/{id}.
type UpdateNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

// NoteResponse is the public shape of a note.
type NoteResponse struct {
	ID            int64     `json:"id"`
	Content       string    `json:"content"`
	AuthorID      int64     `json:"author_id"`
	FavoriteCount int       `json:"favorite_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListNotesResponse wraps a list of notes.
type ListNotesResponse struct {
	Items []NoteResponse `json:"items"`
}

// FeedResponse is one page of the note feed. Cursor is opaque and absent
// (empty) when the page is empty.
type FeedResponse struct {
	Notes       []NoteResponse `json:"notes"`
	Cursor      string         `json:"cursor,omitempty"`
	HasNextPage bool           `json:"has_next_page"`
}

// DeleteNoteResponse reports the soft delete result.
type DeleteNoteResponse struct {
	Deleted bool `json:"deleted"`
}
