// internal/domain/auth/service.go
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"roamly/internal/metrics"
	apperrors "roamly/pkg/errors"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

type AuthService struct {
	userRepo  UserRepository
	authStore AuthStore
	validator Validator
	tokens    *TokenIssuer
	announcer Announcer
	logger    *slog.Logger
}

type Option func(*AuthService)

// WithAnnouncer publishes new members after a successful signup.
func WithAnnouncer(a Announcer) Option {
	return func(s *AuthService) { s.announcer = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *AuthService) { s.logger = l }
}

func NewAuthService(ur UserRepository, as AuthStore, v Validator, t *TokenIssuer, opts ...Option) *AuthService {
	s := &AuthService{
		userRepo:  ur,
		authStore: as,
		validator: v,
		tokens:    t,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) SignUp(ctx context.Context, req *SignupRequest) (*AuthPayload, error) {
	if err := s.validator.Validate(req); err != nil {
		metrics.ObserveAuth("signup", "invalid")
		return nil, apperrors.NewValidationError(err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}

	stored := *req
	stored.Password = string(hashedPassword)
	user, err := s.userRepo.CreateUser(ctx, &stored)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			metrics.ObserveAuth("signup", "conflict")
			return nil, apperrors.NewConflictError("username or email already in use")
		}
		return nil, apperrors.WrapInternal(err)
	}

	payload, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.announcer != nil {
		if err := s.announcer.AnnounceMember(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "announce new member", "username", user.Username, "error", err)
		}
	}

	metrics.ObserveAuth("signup", "ok")
	s.logger.InfoContext(ctx, "account created", "user_id", user.ID, "username", user.Username)
	return payload, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthPayload, error) {
	if err := s.validator.Validate(req); err != nil {
		metrics.ObserveAuth("login", "invalid")
		return nil, apperrors.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.WrapInternal(err)
		}
		metrics.ObserveAuth("login", "denied")
		return nil, apperrors.NewAuthenticationError("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.ObserveAuth("login", "denied")
		return nil, apperrors.NewAuthenticationError("invalid credentials")
	}

	payload, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	metrics.ObserveAuth("login", "ok")
	return payload, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.authStore.DeleteSession(ctx, sessionID); err != nil {
		return apperrors.WrapInternal(err)
	}
	return nil
}

// Authenticate resolves a bearer token into the identity behind it. The token
// must verify and its session must still exist.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.NewAuthenticationError(err.Error())
	}

	session := s.authStore.GetSession(ctx, claims.ID)
	if !session.Valid || session.UserID != claims.Subject {
		return nil, apperrors.NewAuthenticationError("session expired")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, apperrors.NewAuthenticationError("invalid subject")
	}

	return &Identity{
		UserID:    userID,
		Username:  claims.Data.Username,
		Email:     claims.Data.Email,
		SessionID: claims.ID,
	}, nil
}

func (s *AuthService) UserByID(ctx context.Context, id int64) (*User, error) {
	return s.lookup(s.userRepo.GetUserByID(ctx, id))
}

func (s *AuthService) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.lookup(s.userRepo.GetUserByUsername(ctx, username))
}

func (s *AuthService) lookup(user *User, err error) (*User, error) {
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, apperrors.WrapInternal(err)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *User) (*AuthPayload, error) {
	sessionID, err := s.authStore.CreateSession(ctx, strconv.FormatInt(user.ID, 10), s.tokens.TTL())
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}

	token, err := s.tokens.Issue(user, sessionID)
	if err != nil {
		return nil, apperrors.WrapInternal(err)
	}

	return &AuthPayload{Token: token, User: user}, nil
}
