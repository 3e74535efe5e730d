package dto

import "reviewhub/internal/httpapi/models"

// CreateUserRequest: admin-side user creation. Password is optional; when
// absent the account has no usable password, same as self-signup.
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Email     string `json:"email" binding:"required,max=254"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Bio       string `json:"bio" binding:"max=1000"`
	Role      string `json:"role" binding:"omitempty,oneof=user moderator admin"`
	Password  string `json:"password" binding:"omitempty,min=8"`
}

// UpdateUserRequest: partial update. Nil pointers leave fields untouched.
// Role is honored on admin updates and silently ignored on /users/me.
type UpdateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string `json:"bio" binding:"omitempty,max=1000"`
	Role      *string `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

// UserResponse is the public view of a user. The staff flag stays internal.
type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

// FromModelToUserResponse converts a User model to UserResponse DTO
func FromModelToUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Role:      user.Role,
	}
}
