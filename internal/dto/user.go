package dto

import "time"

// SignUpRequest is the JSON body for POST /auth/signup.
type SignUpRequest struct {
	Username string `json:"username" binding:"required,min=1,max=120"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=1"`
}

// SignInRequest is the JSON body for POST /auth/signin.
// Either username or email identifies the account; password is required.
type SignInRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries a signed session credential.
type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse is the public shape of a user.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListUsersResponse wraps a list of users.
type ListUsersResponse struct {
	Items []UserResponse `json:"items"`
}
