package service

import (
	"context"
	"time"

	"github.com/tesseramedia/tessera/internal/user/domain"
	"github.com/tesseramedia/tessera/internal/user/repository"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/errors"
	"github.com/tesseramedia/tessera/pkg/events"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/pagination"
)

// userCacheTTL bounds how stale a cached profile can get.
const userCacheTTL = 5 * time.Minute

func userCacheKey(username string) string {
	return "user:" + username
}

// CreateParams are the fields an administrator can set when creating a
// user directly.
type CreateParams struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      auth.Role
}

// UpdateParams are the patchable user fields. Nil means leave as is.
type UpdateParams struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *auth.Role
}

// UserService handles user management operations.
type UserService struct {
	repo     repository.Repository
	eventBus interfaces.EventBus
	cache    interfaces.Cache
	logger   interfaces.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	repo repository.Repository,
	eventBus interfaces.EventBus,
	cache interfaces.Cache,
	logger interfaces.Logger,
) *UserService {
	return &UserService{
		repo:     repo,
		eventBus: eventBus,
		cache:    cache,
		logger:   logger,
	}
}

// CreateUser creates a user on behalf of an administrator. The user is
// created without a confirmation code; a later signup for the same
// (username, email) pair issues one.
func (s *UserService) CreateUser(ctx context.Context, params CreateParams) (*domain.User, error) {
	role := params.Role
	if role == "" {
		role = auth.RoleUser
	}

	fields := make(map[string][]string)
	if msgs := domain.ValidateUsername(params.Username); len(msgs) > 0 {
		fields["username"] = msgs
	}
	if msgs := domain.ValidateEmail(params.Email); len(msgs) > 0 {
		fields["email"] = msgs
	}
	if msgs := domain.ValidateName(params.FirstName); len(msgs) > 0 {
		fields["first_name"] = msgs
	}
	if msgs := domain.ValidateName(params.LastName); len(msgs) > 0 {
		fields["last_name"] = msgs
	}
	if msgs := domain.ValidateRole(role); len(msgs) > 0 {
		fields["role"] = msgs
	}
	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	if err := s.checkCollisions(ctx, params.Username, params.Email); err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:  params.Username,
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Bio:       params.Bio,
		Role:      role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		interfaces.String("user_id", user.ID.String()),
		interfaces.String("username", user.Username),
		interfaces.String("role", string(user.Role)))

	return user, nil
}

// checkCollisions reports per-field errors when the username or email
// is already taken.
func (s *UserService) checkCollisions(ctx context.Context, username, email string) error {
	fields := make(map[string][]string)

	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		fields["username"] = []string{"a user with that username already exists"}
	} else if !errors.IsNotFound(err) {
		return err
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		fields["email"] = []string{"a user with that email already exists"}
	} else if !errors.IsNotFound(err) {
		return err
	}

	if len(fields) > 0 {
		return errors.Validation(fields)
	}
	return nil
}

// GetUserByUsername retrieves a user by username, serving repeat
// lookups from the cache.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if cached, err := s.cache.Get(ctx, userCacheKey(username)); err == nil {
		if user, ok := cached.(*domain.User); ok {
			return user, nil
		}
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, userCacheKey(username), user, userCacheTTL)
	return user, nil
}

// ListUsers returns a page of users filtered by username substring.
func (s *UserService) ListUsers(ctx context.Context, search string, params pagination.Params) ([]*domain.User, int64, error) {
	total, err := s.repo.CountUsers(ctx, search)
	if err != nil {
		return nil, 0, err
	}
	users, err := s.repo.ListUsers(ctx, search, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateUser applies a partial update to the named user. Only
// administrators may change the role; a non-admin caller patching
// their own profile keeps the stored role regardless of the payload.
func (s *UserService) UpdateUser(ctx context.Context, username string, params UpdateParams, callerIsAdmin bool) (*domain.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	fields := make(map[string][]string)
	if params.Email != nil {
		if msgs := domain.ValidateEmail(*params.Email); len(msgs) > 0 {
			fields["email"] = msgs
		}
	}
	if params.FirstName != nil {
		if msgs := domain.ValidateName(*params.FirstName); len(msgs) > 0 {
			fields["first_name"] = msgs
		}
	}
	if params.LastName != nil {
		if msgs := domain.ValidateName(*params.LastName); len(msgs) > 0 {
			fields["last_name"] = msgs
		}
	}
	if params.Role != nil && callerIsAdmin {
		if msgs := domain.ValidateRole(*params.Role); len(msgs) > 0 {
			fields["role"] = msgs
		}
	}
	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	if params.Email != nil && *params.Email != user.Email {
		if _, err := s.repo.GetUserByEmail(ctx, *params.Email); err == nil {
			return nil, errors.FieldError("email", "a user with that email already exists")
		} else if !errors.IsNotFound(err) {
			return nil, err
		}
		user.Email = *params.Email
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Bio != nil {
		user.Bio = *params.Bio
	}
	if params.Role != nil && callerIsAdmin {
		user.Role = *params.Role
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.Username))

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.UserUpdated, map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}))

	return user, nil
}

// DeleteUser removes the named user.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, user.ID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.Username))

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.UserDeleted, map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}))

	s.logger.Info("User deleted",
		interfaces.String("username", user.Username))

	return nil
}
