package handlers

import (
	"errors"
	"net/http"

	"github.com/stevearchuleta/javascripteverywhere/internal/dto"
	"github.com/stevearchuleta/javascripteverywhere/internal/service"
	"github.com/stevearchuleta/javascripteverywhere/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles sign-up and sign-in.
type AuthHandler struct {
	userSvc *service.UserService
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(userSvc *service.UserService) *AuthHandler {
	return &AuthHandler{userSvc: userSvc}
}

// SignUp godoc
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignUpRequest  true  "Account details"
// @Success      201   {object}  dto.TokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.userSvc.SignUp(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccountCreation) {
			// One error kind for every sign-up failure; the status still
			// distinguishes a duplicate username/email for API clients.
			status := http.StatusBadRequest
			if utils.IsPGUniqueViolation(err) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": service.ErrAccountCreation.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, dto.TokenResponse{Token: token})
}

// SignIn godoc
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignInRequest  true  "Credentials"
// @Success      200   {object}  dto.TokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.userSvc.SignIn(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthentication) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrAuthentication.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}
