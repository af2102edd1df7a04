package service

import (
	"context"

	"github.com/tesseramedia/tessera/internal/user/domain"
	"github.com/tesseramedia/tessera/internal/user/repository"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/errors"
	"github.com/tesseramedia/tessera/pkg/events"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/mailer"
	"github.com/tesseramedia/tessera/pkg/metrics"
)

// AuthService handles registration and token issuance.
type AuthService struct {
	repo       repository.Repository
	jwtManager *auth.JWTManager
	mailer     mailer.Mailer
	eventBus   interfaces.EventBus
	logger     interfaces.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	repo repository.Repository,
	jwtManager *auth.JWTManager,
	m mailer.Mailer,
	eventBus interfaces.EventBus,
	logger interfaces.Logger,
) *AuthService {
	return &AuthService{
		repo:       repo,
		jwtManager: jwtManager,
		mailer:     m,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Signup registers a user or refreshes the confirmation code for an
// existing (username, email) pair. Repeating a signup with the same
// pair succeeds and invalidates the previous code. A username or email
// already bound to a different account is a per-field validation error.
func (s *AuthService) Signup(ctx context.Context, email, username string) (*domain.User, error) {
	fields := make(map[string][]string)
	if msgs := domain.ValidateEmail(email); len(msgs) > 0 {
		fields["email"] = msgs
	}
	if msgs := domain.ValidateUsername(username); len(msgs) > 0 {
		fields["username"] = msgs
	}
	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	byUsername, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	byEmail, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	if byUsername != nil && byUsername.Email == email {
		return s.refreshConfirmationCode(ctx, byUsername)
	}

	collisions := make(map[string][]string)
	if byUsername != nil {
		collisions["username"] = []string{"a user with that username already exists"}
	}
	if byEmail != nil {
		collisions["email"] = []string{"a user with that email already exists"}
	}
	if len(collisions) > 0 {
		return nil, errors.Validation(collisions)
	}

	user := &domain.User{
		Username: username,
		Email:    email,
		Role:     auth.RoleUser,
	}
	if err := s.issueConfirmationCode(ctx, user); err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.UserRegistered, map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}))

	s.logger.Info("User registered",
		interfaces.String("user_id", user.ID.String()),
		interfaces.String("username", user.Username))

	return user, nil
}

// refreshConfirmationCode regenerates and resends the code for an
// existing user.
func (s *AuthService) refreshConfirmationCode(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.issueConfirmationCode(ctx, user); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Confirmation code refreshed",
		interfaces.String("username", user.Username))

	return user, nil
}

// issueConfirmationCode generates a code, stores its hash on the user
// and sends it. Delivery failures are logged, not returned; the code
// can always be requested again.
func (s *AuthService) issueConfirmationCode(ctx context.Context, user *domain.User) error {
	code, err := auth.GenerateConfirmationCode()
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to generate confirmation code", err)
	}
	hash, err := auth.HashConfirmationCode(code)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInternal, "failed to hash confirmation code", err)
	}
	user.ConfirmationHash = hash
	metrics.ConfirmationCodesIssued.Inc()

	if err := s.mailer.SendConfirmationCode(ctx, user.Email, user.Username, code); err != nil {
		s.logger.Error("Failed to send confirmation code",
			interfaces.Error(err),
			interfaces.String("username", user.Username))
	}
	return nil
}

// IssueToken exchanges a username and confirmation code for an access
// token. An unknown username is 404; a wrong code is a field error on
// confirmation_code.
func (s *AuthService) IssueToken(ctx context.Context, username, code string) (string, error) {
	fields := make(map[string][]string)
	if username == "" {
		fields["username"] = []string{"this field is required"}
	}
	if code == "" {
		fields["confirmation_code"] = []string{"this field is required"}
	}
	if len(fields) > 0 {
		return "", errors.Validation(fields)
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	if !auth.CheckConfirmationCode(user.ConfirmationHash, code) {
		return "", errors.FieldError("confirmation_code", "invalid confirmation code")
	}

	token, err := s.jwtManager.GenerateAccessToken(user.Identity())
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeInternal, "failed to issue token", err)
	}
	metrics.TokensIssued.Inc()

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.UserTokenIssued, map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}))

	return token, nil
}
