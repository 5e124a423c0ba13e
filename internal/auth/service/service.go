package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"webchat/internal/auth/policy"
	commoncrypto "webchat/internal/common/crypto"
	apperrors "webchat/internal/common/errors"
	"webchat/internal/common/logger"
	"webchat/internal/observability/metrics"
	"webchat/internal/storage"
	userdomain "webchat/internal/user/domain"
)

// UserStore is the slice of the storage backend the identity service needs.
type UserStore interface {
	SaveUser(ctx context.Context, user userdomain.User) (userdomain.User, error)
	FindUserByUsername(ctx context.Context, username string) (userdomain.User, error)
}

// IdentityService registers new accounts and authenticates login attempts.
type IdentityService struct {
	store  UserStore
	hasher commoncrypto.PasswordHasher
	ids    commoncrypto.IDGenerator
	log    *logger.Logger
}

func NewIdentityService(
	store UserStore,
	hasher commoncrypto.PasswordHasher,
	ids commoncrypto.IDGenerator,
	log *logger.Logger,
) *IdentityService {
	return &IdentityService{
		store:  store,
		hasher: hasher,
		ids:    ids,
		log:    log,
	}
}

// Register creates a new account. The raw password is policy-checked and
// hashed exactly once here; it never reaches the store.
func (s *IdentityService) Register(ctx context.Context, username, password, displayName string) (userdomain.User, error) {
	s.log.WithFields(logger.Fields{
		"username": username,
		"action":   "register_attempt",
	}).Info("register attempt")

	if _, err := s.store.FindUserByUsername(ctx, username); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("exists").Inc()
		return userdomain.User{}, userExistsError(username)
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		s.log.Errorf("register failed: user lookup error: %v", err)
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return userdomain.User{}, dbError("User could not be registered.", err)
	}

	if violations := policy.Validate(password); len(violations) > 0 {
		metrics.RegistrationsTotal.WithLabelValues("weak_password").Inc()
		return userdomain.User{}, apperrors.Client(
			"WeakPassword",
			http.StatusBadRequest,
			"Invalid password: %s",
			strings.Join(violations, " "),
		)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Errorf("register failed: password hash error: %v", err)
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return userdomain.User{}, dbError("User could not be registered.", err)
	}

	id, err := s.ids.NewID()
	if err != nil {
		s.log.Errorf("register failed: id generation error: %v", err)
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return userdomain.User{}, dbError("User could not be registered.", err)
	}

	user := userdomain.User{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
	}

	saved, err := s.store.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			// lost the registration race to a concurrent request
			metrics.RegistrationsTotal.WithLabelValues("exists").Inc()
			return userdomain.User{}, userExistsError(username)
		}
		s.log.Errorf("register failed: %v", err)
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return userdomain.User{}, dbError("User could not be registered.", err)
	}

	s.log.WithFields(logger.Fields{
		"username": saved.Username,
		"user_id":  saved.ID,
		"action":   "register_success",
	}).Info("register success")
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	return saved, nil
}

// Authenticate verifies a login attempt and returns the stored account
// unchanged. The UserNotFound and IncorrectPassword outcomes are reported
// distinctly, as the clients expect.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (userdomain.User, error) {
	s.log.WithFields(logger.Fields{
		"username": username,
		"action":   "login_attempt",
	}).Info("login attempt")

	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			return userdomain.User{}, apperrors.Client(
				"UserNotFound",
				http.StatusBadRequest,
				"User %s does not exist. Please register first.",
				username,
			)
		}
		s.log.Errorf("login failed: user lookup error: %v", err)
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return userdomain.User{}, dbError("User could not be authenticated.", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.log.WithFields(logger.Fields{
			"username": username,
			"action":   "login_invalid_password",
		}).Warn("login failed: invalid password")
		metrics.LoginsTotal.WithLabelValues("incorrect_password").Inc()
		return userdomain.User{}, apperrors.Client(
			"IncorrectPassword",
			http.StatusBadRequest,
			"Incorrect password.",
		)
	}

	s.log.WithFields(logger.Fields{
		"username": user.Username,
		"user_id":  user.ID,
		"action":   "login_success",
	}).Info("login success")
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return user, nil
}

func userExistsError(username string) *apperrors.AppError {
	return apperrors.Client(
		"UserExists",
		http.StatusBadRequest,
		"%s is already registered. Please login or choose a different email.",
		username,
	)
}

func dbError(message string, cause error) *apperrors.AppError {
	return apperrors.Server("DBError", "%s", message).WithCause(cause)
}
