package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/stevearchuleta/javascripteverywhere/internal/auth"
	dom "github.com/stevearchuleta/javascripteverywhere/internal/domain"
	"github.com/stevearchuleta/javascripteverywhere/internal/dto"
	"github.com/stevearchuleta/javascripteverywhere/internal/service"

	"github.com/gin-gonic/gin"
)

// NoteHandler handles note queries and mutations.
type NoteHandler struct {
	noteSvc *service.NoteService
	userSvc *service.UserService
}

// NewNoteHandler returns a new NoteHandler.
func NewNoteHandler(noteSvc *service.NoteService, userSvc *service.UserService) *NoteHandler {
	return &NoteHandler{noteSvc: noteSvc, userSvc: userSvc}
}

// Create godoc
// @Summary      Create a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateNoteRequest  true  "Note body"
// @Success      201   {object}  dto.NoteResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.noteSvc.Create(c.Request.Context(), auth.IdentityFromContext(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, noteToResponse(n))
}

// List godoc
// @Summary      List all notes
// @Tags         notes
// @Produce      json
// @Success      200  {object}  dto.ListNotesResponse
// @Failure      500  {object}  map[string]string
// @Router       /notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	list, err := h.noteSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListNotesResponse{Items: notesToResponses(list)})
}

// Feed godoc
// @Summary      Paginated note feed, newest first
// @Tags         notes
// @Produce      json
// @Param        cursor  query     string  false  "Opaque cursor from the previous page"
// @Success      200     {object}  dto.FeedResponse
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /notes/feed [get]
func (h *NoteHandler) Feed(c *gin.Context) {
	page, err := h.noteSvc.Feed(c.Request.Context(), c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FeedResponse{
		Notes:       notesToResponses(page.Notes),
		Cursor:      page.Cursor,
		HasNextPage: page.HasNextPage,
	})
}

// GetByID godoc
// @Summary      Get a note by ID
// @Tags         notes
// @Produce      json
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  dto.NoteResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notes/{id} [get]
func (h *NoteHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := h.noteSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, noteToResponse(n))
}

// Update godoc
// @Summary      Update a note's content (owner only)
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int  true  "Note ID"
// @Param        body  body      dto.UpdateNoteRequest  true  "New content"
// @Success      200   {object}  dto.NoteResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /notes/{id} [patch]
func (h *NoteHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.noteSvc.Update(c.Request.Context(), auth.IdentityFromContext(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, noteToResponse(n))
}

// Delete godoc
// @Summary      Delete a note (owner only)
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  dto.DeleteNoteResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.noteSvc.Delete(c.Request.Context(), auth.IdentityFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteNoteResponse{Deleted: deleted})
}

// ToggleFavorite godoc
// @Summary      Toggle the caller's favorite on a note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  dto.NoteResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notes/{id}/favorite [post]
func (h *NoteHandler) ToggleFavorite(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := h.noteSvc.ToggleFavorite(c.Request.Context(), auth.IdentityFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, noteToResponse(n))
}

// Author godoc
// @Summary      Get the author of a note
// @Tags         notes
// @Produce      json
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notes/{id}/author [get]
func (h *NoteHandler) Author(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := h.noteSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	u, err := h.userSvc.GetByID(c.Request.Context(), n.AuthorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(u))
}

// FavoritedBy godoc
// @Summary      List the users who favorited a note
// @Tags         notes
// @Produce      json
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  dto.ListUsersResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notes/{id}/favorited-by [get]
func (h *NoteHandler) FavoritedBy(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := h.noteSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	users, err := h.userSvc.ListByIDs(c.Request.Context(), n.FavoritedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListUsersResponse{Items: usersToResponses(users)})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps service error kinds to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func noteToResponse(n dom.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:            n.ID,
		Content:       n.Content,
		AuthorID:      n.AuthorID,
		FavoriteCount: n.FavoriteCount,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

func notesToResponses(list []dom.Note) []dto.NoteResponse {
	out := make([]dto.NoteResponse, len(list))
	for i := range list {
		out[i] = noteToResponse(list[i])
	}
	return out
}
