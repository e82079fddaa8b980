package application

import (
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

type RoleResponse struct {
	RoleID    int    `json:"role_id"`
	Authority string `json:"authority"`
}

// UserResponse is the serializable projection of a user, used for the cache
// and at every boundary. Password is the stored hash.
type UserResponse struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	Authorities []RoleResponse `json:"authorities"`
	Provider    string         `json:"provider"`
	IsVerified  bool           `json:"is_verified"`
	CreatedAt   time.Time      `json:"created_at,omitzero"`
}

// HasAuthority reports whether the user holds the given authority.
func (r *UserResponse) HasAuthority(authority string) bool {
	for _, a := range r.Authorities {
		if a.Authority == authority {
			return true
		}
	}
	return false
}

type UserPage struct {
	Data       []UserResponse `json:"data"`
	Total      int            `json:"total"`
	Limit      int            `json:"limit"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

func ToResponse(u entity.User) *UserResponse {
	roles := u.Roles().Roles()
	authorities := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		authorities = append(authorities, RoleResponse{RoleID: r.ID, Authority: r.Authority})
	}
	return &UserResponse{
		ID:          u.ID().String(),
		Username:    u.Username(),
		Email:       u.Email().String(),
		Password:    u.Password(),
		Authorities: authorities,
		Provider:    u.Provider().String(),
		IsVerified:  u.IsVerified(),
		CreatedAt:   u.CreatedAt(),
	}
}

func ToResponses(users []entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *ToResponse(u))
	}
	return out
}

// ToDomain rebuilds a fresh aggregate from a response. Account-status flags
// are not part of the projection and come back in their default state.
func ToDomain(r *UserResponse) (entity.User, error) {
	id, err := valueobject.ParseUserID(r.ID)
	if err != nil {
		return entity.User{}, err
	}
	email, err := valueobject.NewEmail(r.Email)
	if err != nil {
		return entity.User{}, err
	}
	provider, err := valueobject.NewProvider(r.Provider)
	if err != nil {
		return entity.User{}, err
	}
	roles := entity.NewRoleSet()
	for _, a := range r.Authorities {
		roles = roles.Add(entity.NewRole(a.RoleID, a.Authority))
	}
	return entity.NewUser(entity.UserParams{
		ID:         id,
		Username:   r.Username,
		Email:      email,
		Password:   r.Password,
		Roles:      roles,
		Provider:   provider,
		IsVerified: r.IsVerified,
		CreatedAt:  r.CreatedAt,
	}), nil
}

func toUserPage(p *repository.Page) *UserPage {
	return &UserPage{
		Data:       ToResponses(p.Data),
		Total:      p.Total,
		Limit:      p.Limit,
		Page:       p.Page,
		TotalPages: p.TotalPages,
	}
}
