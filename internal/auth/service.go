package auth

import (
	"log/slog"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
)

// Service handles registration, login and credential lifecycle.
type Service struct {
	store       domain.Store
	hasher      PasswordHasher
	tokens      *TokenManager
	revocations *RevocationList
	logger      *slog.Logger
}

func NewService(
	store domain.Store,
	hasher PasswordHasher,
	tokens *TokenManager,
	revocations *RevocationList,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
	}
}

type RegisterRequest struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Register creates a new principal. Duplicate email or phone surfaces as a
// conflict, distinct from validation errors.
func (s *Service) Register(req RegisterRequest) (*domain.User, error) {
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to hash password")
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Role:         domain.RoleUser,
	}

	if err := s.store.User().CreateUser(user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and issues a signed token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.store.User().GetUserByEmail(email)
	if err != nil {
		return "", errors.ErrUnauthorized
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Warn("Failed login attempt", "email", email)
		return "", errors.ErrUnauthorized
	}

	token, err := s.tokens.Generate(user.Email, user.Role)
	if err != nil {
		s.logger.Error("Failed to generate token", "error", err)
		return "", errors.NewAppError(errors.InternalError, "failed to generate token")
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return token, nil
}

// Authenticate verifies the token, consults the revocation list and
// resolves the principal.
func (s *Service) Authenticate(token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, errors.ErrUnauthorized
	}

	if s.revocations.IsRevoked(token) {
		return nil, errors.ErrUnauthorized
	}

	user, err := s.store.User().GetUserByEmail(claims.Subject)
	if err != nil {
		return nil, errors.ErrUnauthorized
	}
	return user, nil
}

// Logout revokes the presented credential until its natural expiry.
func (s *Service) Logout(token string) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		// Invalid or already expired; nothing worth tracking.
		return
	}
	s.revocations.Revoke(token, claims.ExpiresAt.Time)
}

// ChangePassword re-verifies the current password, stores the new hash and
// revokes the presented credential. No replacement token is issued; the
// caller must log in again.
func (s *Service) ChangePassword(email, currentPassword, newPassword, presentedToken string) error {
	user, err := s.store.User().GetUserByEmail(email)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return errors.NewAppError(errors.Unauthorized, "current password is incorrect")
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("Failed to hash password", "error", err)
		return errors.NewAppError(errors.InternalError, "failed to hash password")
	}

	if err := s.store.User().UpdateUserPassword(user.ID, passwordHash); err != nil {
		return err
	}

	s.Logout(presentedToken)
	s.logger.Info("Password changed", "user_id", user.ID)
	return nil
}

// UpdateProfile applies non-blank profile fields, leaving others as-is.
func (s *Service) UpdateProfile(email, firstName, lastName, phoneNumber string) (*domain.User, error) {
	user, err := s.store.User().GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if firstName != "" {
		user.FirstName = firstName
	}
	if lastName != "" {
		user.LastName = lastName
	}
	if phoneNumber != "" {
		user.PhoneNumber = phoneNumber
	}

	if err := s.store.User().UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentUser resolves the principal's profile.
func (s *Service) CurrentUser(email string) (*domain.User, error) {
	return s.store.User().GetUserByEmail(email)
}
