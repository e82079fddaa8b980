package application

import (
	"context"
	"fmt"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

// Action names one of the closed set of user update operations.
type Action int

const (
	ActionChangeEmail Action = iota + 1
	ActionChangePassword
	ActionChangeUsername
	ActionUpdateProvider
	ActionUpdateAuthorities
	ActionVerifyUser
)

var actionNames = map[Action]string{
	ActionChangeEmail:       "changeEmail",
	ActionChangePassword:    "changePassword",
	ActionChangeUsername:    "changeUsername",
	ActionUpdateProvider:    "updateProvider",
	ActionUpdateAuthorities: "updateAuthorities",
	ActionVerifyUser:        "verifyUser",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps an action name to its Action.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, &UnknownActionError{Name: name}
}

// UserUpdate is the payload of an update action. A nil field was not sent.
type UserUpdate struct {
	Email           *string `json:"email"`
	Username        *string `json:"username"`
	Password        *string `json:"password"`
	CurrentPassword *string `json:"current_password"`
	IsVerified      *bool   `json:"is_verified"`
	Role            *string `json:"role"`
	Provider        *string `json:"provider"`
}

func present(s *string) bool { return s != nil && *s != "" }

// UpdateUser loads the user registered under email and applies the named action.
func (s *Service) UpdateUser(ctx context.Context, email, actionName string, payload UserUpdate) (bool, error) {
	action, err := ParseAction(actionName)
	if err != nil {
		return false, err
	}
	current, err := s.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return s.HandleUserAction(ctx, action, current, payload)
}

// HandleUserAction validates payload against current, persists the mutated
// user and refreshes both cache entries. It returns false without touching
// the cache when the store reports nothing was written.
func (s *Service) HandleUserAction(ctx context.Context, action Action, current *UserResponse, payload UserUpdate) (bool, error) {
	if current == nil {
		return false, ErrUserNotFound
	}

	var (
		next    entity.User
		persist func(context.Context, entity.User) (bool, error)
		err     error
	)
	switch action {
	case ActionChangeEmail:
		next, err = s.changeEmail(current, payload)
		persist = s.Users.ChangeEmail
	case ActionChangePassword:
		next, err = s.changePassword(current, payload)
		persist = s.Users.ChangePassword
	case ActionChangeUsername:
		next, err = s.changeUsername(current, payload)
		persist = s.Users.ChangeUsername
	case ActionUpdateProvider:
		next, err = s.updateProvider(current, payload)
		persist = s.Users.UpdateProvider
	case ActionUpdateAuthorities:
		next, err = s.updateAuthorities(current, payload)
		persist = s.Users.UpdateAuthorities
	case ActionVerifyUser:
		next, err = s.verifyUser(current, payload)
		persist = s.Users.VerifyUser
	default:
		return false, &UnknownActionError{Name: action.String()}
	}
	if err != nil {
		return false, err
	}

	ok, err := persist(ctx, next)
	if err != nil {
		return false, fmt.Errorf("%s: %w", action, err)
	}
	if !ok {
		return false, nil
	}

	resp := ToResponse(next)
	if err := s.cacheUser(ctx, resp); err != nil {
		return false, fmt.Errorf("%s: cache user: %w", action, err)
	}
	// The old address no longer resolves to this account.
	if action == ActionChangeEmail && current.Email != resp.Email {
		if err := s.Cache.Del(ctx, UserCacheKey(current.Email)); err != nil {
			return false, fmt.Errorf("%s: evict previous email: %w", action, err)
		}
	}
	s.indexUser(ctx, resp)
	s.notifyChange(ctx, action, current, resp)
	return true, nil
}

func (s *Service) notifyChange(ctx context.Context, action Action, previous, updated *UserResponse) {
	if s.Notifier == nil {
		return
	}
	var err error
	switch action {
	case ActionChangeEmail:
		err = s.Notifier.EmailChanged(ctx, previous.Email, updated)
	case ActionChangePassword:
		err = s.Notifier.PasswordChanged(ctx, updated)
	default:
		return
	}
	if err != nil {
		s.Logger.WithError(err).WithField("action", action.String()).Warn("change notification failed")
	}
}

func (s *Service) changeEmail(current *UserResponse, p UserUpdate) (entity.User, error) {
	if !present(p.Email) || !present(p.CurrentPassword) {
		return entity.User{}, invalidInput("New email/old password cannot be undefined")
	}
	if *p.Email == current.Email {
		return entity.User{}, invalidInput("Email cannot be the same as the older one")
	}
	if !s.Hasher.Compare(*p.CurrentPassword, current.Password) {
		return entity.User{}, invalidInput(MsgPasswordNotMatch)
	}
	email, err := valueobject.NewEmail(*p.Email)
	if err != nil {
		return entity.User{}, err
	}
	u, err := ToDomain(current)
	if err != nil {
		return entity.User{}, err
	}
	return u.WithEmail(email), nil
}

func (s *Service) changePassword(current *UserResponse, p UserUpdate) (entity.User, error) {
	if !present(p.Password) || !present(p.CurrentPassword) {
		return entity.User{}, invalidInput("New password/old password cannot be undefined")
	}
	if *p.Password == *p.CurrentPassword {
		return entity.User{}, invalidInput("Password cannot be the same as the older one")
	}
	if !s.Hasher.Compare(*p.CurrentPassword, current.Password) {
		return entity.User{}, invalidInput(MsgPasswordNotMatch)
	}
	hash, err := s.Hasher.Hash(*p.Password)
	if err != nil {
		return entity.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := ToDomain(current)
	if err != nil {
		return entity.User{}, err
	}
	return u.WithPassword(hash), nil
}

func (s *Service) changeUsername(current *UserResponse, p UserUpdate) (entity.User, error) {
	if !present(p.Username) {
		return entity.User{}, invalidInput("New username cannot be undefined")
	}
	if *p.Username == current.Username {
		return entity.User{}, invalidInput("Username cannot be the same as the older one")
	}
	u, err := ToDomain(current)
	if err != nil {
		return entity.User{}, err
	}
	return u.WithUsername(*p.Username), nil
}

func (s *Service) updateProvider(current *UserResponse, p UserUpdate) (entity.User, error) {
	if !present(p.Provider) {
		return entity.User{}, invalidInput("New provider cannot be undefined")
	}
	if *p.Provider == current.Provider {
		return entity.User{}, invalidInput("New provider cannot be the same as the older one")
	}
	provider, err := valueobject.NewProvider(*p.Provider)
	if err != nil {
		return entity.User{}, err
	}
	u, err := ToDomain(current)
	if err != nil {
		return entity.User{}, err
	}
	return u.WithProvider(provider), nil
}

// updateAuthorities appends the requested role to the existing set. Only the
// first held authority is compared against the request.
func (s *Service) updateAuthorities(current *UserResponse, p UserUpdate) (entity.User, error) {
	if !present(p.Role) {
		return entity.User{}, invalidInput("New authorities cannot be undefined")
	}
	if len(current.Authorities) > 0 && *p.Role == current.Authorities[0].Authority {
		return entity.User{}, invalidInput("New authorities cannot be the same as the older one")
	}
	u, err := ToDomain(current)
	if err != nil {
		return entity.User{}, err
	}
	return u.WithRoles(u.Roles().Add(entity.NewRole(entity.RoleIDAdmin, *p.Role))), nil
}

func (s *Service) verifyUser(current *UserResponse, p UserUpdate) (entity.User, error) {
	if p.IsVerified == nil {
		return entity.User{}, invalidInput("New value cannot be undefined")
	}
	if *p.IsVerified == current.IsVerified {
		return entity.User{}, invalidInput("New value cannot be the same as the older one")
	}
	u, err := ToDomain(current)
	if err != nil {
		return entity.User{}, err
	}
	return u.WithVerified(*p.IsVerified), nil
}
