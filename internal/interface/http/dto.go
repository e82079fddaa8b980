package handlers

import (
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd,max=255"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd,max=255"`
}

type updateUserRequest struct {
	Email           *string `json:"email" binding:"omitempty,email"`
	Username        *string `json:"username" binding:"omitempty,min=3,max=50"`
	Password        *string `json:"password" binding:"omitempty,pwd,max=255"`
	CurrentPassword *string `json:"current_password" binding:"omitempty,max=255"`
	IsVerified      *bool   `json:"is_verified"`
	Role            *string `json:"role" binding:"omitempty,oneof=ADMIN"`
	Provider        *string `json:"provider" binding:"omitempty,provider"`
}

func (r updateUserRequest) toUpdate() application.UserUpdate {
	return application.UserUpdate{
		Email:           r.Email,
		Username:        r.Username,
		Password:        r.Password,
		CurrentPassword: r.CurrentPassword,
		IsVerified:      r.IsVerified,
		Role:            r.Role,
		Provider:        r.Provider,
	}
}

type filterUserQuery struct {
	UserID         string `form:"userId"`
	Username       string `form:"username" binding:"omitempty,min=3,max=50"`
	Email          string `form:"email" binding:"omitempty,email"`
	IsVerified     *bool  `form:"is_verified"`
	OrderBy        string `form:"order_by"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Page           int    `form:"page" binding:"omitempty,min=1"`
	CreatedAt      string `form:"created_at" binding:"omitempty,datetime=2006-01-02"`
	CreatedAtStart string `form:"created_at_start" binding:"omitempty,datetime=2006-01-02"`
	CreatedAtEnd   string `form:"created_at_end" binding:"omitempty,datetime=2006-01-02"`
}

// userView is a user as returned to clients; the password hash never leaves the service.
type userView struct {
	ID          string                     `json:"id"`
	Username    string                     `json:"username"`
	Email       string                     `json:"email"`
	Authorities []application.RoleResponse `json:"authorities"`
	Provider    string                     `json:"provider"`
	IsVerified  bool                       `json:"is_verified"`
	CreatedAt   time.Time                  `json:"created_at,omitzero"`
}

func toView(u *application.UserResponse) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Authorities: u.Authorities,
		Provider:    u.Provider,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

func toViews(users []application.UserResponse) []userView {
	out := make([]userView, 0, len(users))
	for i := range users {
		out = append(out, toView(&users[i]))
	}
	return out
}
