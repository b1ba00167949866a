package dto

import dom "github.com/birlikkoshan/todo-api/internal/domain"

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,min=6,max=72"`
	Name     *string `json:"name" binding:"omitempty,max=255"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

func NewUserResponse(u dom.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Email: u.Email, Name: u.Name}
}
