package handlers

import (
	"net/http"

	"github.com/stevearchuleta/javascripteverywhere/internal/auth"
	dom "github.com/stevearchuleta/javascripteverywhere/internal/domain"
	"github.com/stevearchuleta/javascripteverywhere/internal/dto"
	"github.com/stevearchuleta/javascripteverywhere/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user queries.
type UserHandler struct {
	userSvc *service.UserService
	noteSvc *service.NoteService
}

// NewUserHandler returns a new UserHandler.
func NewUserHandler(userSvc *service.UserService, noteSvc *service.NoteService) *UserHandler {
	return &UserHandler{userSvc: userSvc, noteSvc: noteSvc}
}

// List godoc
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Success      200  {object}  dto.ListUsersResponse
// @Failure      500  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	list, err := h.userSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListUsersResponse{Items: usersToResponses(list)})
}

// GetByUsername godoc
// @Summary      Get a user by username
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  dto.UserResponse
// @Failure      404       {object}  map[string]string
// @Router       /users/{username} [get]
func (h *UserHandler) GetByUsername(c *gin.Context) {
	u, err := h.userSvc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(u))
}

// Me godoc
// @Summary      Get the authenticated caller's account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.userSvc.Me(c.Request.Context(), auth.IdentityFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(u))
}

// Notes godoc
// @Summary      List a user's notes, newest first
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  dto.ListNotesResponse
// @Failure      404       {object}  map[string]string
// @Router       /users/{username}/notes [get]
func (h *UserHandler) Notes(c *gin.Context) {
	u, err := h.userSvc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.noteSvc.ListByAuthor(c.Request.Context(), u.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListNotesResponse{Items: notesToResponses(list)})
}

// Favorites godoc
// @Summary      List the notes a user has favorited, newest first
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  dto.ListNotesResponse
// @Failure      404       {object}  map[string]string
// @Router       /users/{username}/favorites [get]
func (h *UserHandler) Favorites(c *gin.Context) {
	u, err := h.userSvc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.noteSvc.ListFavoritedBy(c.Request.Context(), u.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListNotesResponse{Items: notesToResponses(list)})
}

func userToResponse(u dom.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func usersToResponses(list []dom.User) []dto.UserResponse {
	out := make([]dto.UserResponse, len(list))
	for i := range list {
		out[i] = userToResponse(list[i])
	}
	return out
}
