package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/model"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/repository"
	apperrors "github.com/KilloQ/StudentsClubs/pkg/errors"
	"github.com/KilloQ/StudentsClubs/pkg/jwt"
	"github.com/KilloQ/StudentsClubs/pkg/metrics"
)

// ── auth errors ──

var (
	ErrInvalidCredentials = apperrors.New(apperrors.KindUnauthenticated, 20001, "incorrect username or password")
	ErrSessionInvalid     = apperrors.New(apperrors.KindUnauthenticated, 20002, "could not validate credentials")
	ErrUsernameTaken      = apperrors.New(apperrors.KindValidation, 20003, "username already registered")
	ErrPasswordMismatch   = apperrors.New(apperrors.KindValidation, 20004, "passwords do not match")
	ErrUserNotFound       = apperrors.New(apperrors.KindNotFound, 20005, "user not found")
)

const (
	maxUsernameLen   = 50
	maxFullNameLen   = 200
	minPasswordLen   = 6
	maxPasswordBytes = 72 // bcrypt input limit
	passwordHashCost = bcrypt.DefaultCost
	bearerTokenType  = "bearer"
)

// AuthService registration, login and session resolution
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	// CreateTeacher is the administrative path for teacher accounts; it is not exposed over HTTP.
	CreateTeacher(ctx context.Context, username, fullName, password string) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	ResolveSession(ctx context.Context, token string) (*policy.Actor, error)
	Logout(ctx context.Context, actor *policy.Actor) error
	Me(ctx context.Context, userID uint) (*dto.UserResponse, error)
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		metrics:   m,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if req.Password != req.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}
	return s.createUser(ctx, req.Username, req.FullName, req.Password, false)
}

func (s *authService) CreateTeacher(ctx context.Context, username, fullName, password string) (*dto.UserResponse, error) {
	return s.createUser(ctx, username, fullName, password, true)
}

func (s *authService) createUser(ctx context.Context, username, fullName, password string, isTeacher bool) (*dto.UserResponse, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)

	switch {
	case username == "":
		return nil, apperrors.Validation("username is required")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return nil, apperrors.Validation("username must be at most 50 characters")
	case fullName == "":
		return nil, apperrors.Validation("full_name is required")
	case utf8.RuneCountInString(fullName) > maxFullNameLen:
		return nil, apperrors.Validation("full_name must be at most 200 characters")
	case utf8.RuneCountInString(password) < minPasswordLen:
		return nil, apperrors.Validation("password must be at least 6 characters")
	case len(password) > maxPasswordBytes:
		return nil, apperrors.Validation("password must be at most 72 bytes")
	}

	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("lookup user failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		FullName:     fullName,
		PasswordHash: string(hash),
		IsTeacher:    isTeacher,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same name
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("create user failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.Bool("is_teacher", user.IsTeacher),
	)
	return toUserResponse(user), nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.Login("invalid")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.Login("invalid")
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtMgr.GenerateAccessToken(user.ID, user.IsTeacher)
	if err != nil {
		s.logger.Error("sign access token failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	s.metrics.Login("ok")
	return &dto.TokenResponse{AccessToken: token, TokenType: bearerTokenType}, nil
}

// ────────────────────── ResolveSession ──────────────────────

// ResolveSession verifies the token, rejects revoked ones and reloads the user so that
// deleted accounts lose access immediately.
func (s *authService) ResolveSession(ctx context.Context, token string) (*policy.Actor, error) {
	if token == "" {
		return nil, policy.ErrUnauthenticated
	}

	claims, err := s.jwtMgr.ParseToken(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	if s.blacklist != nil && claims.ID != "" {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("token blacklist unavailable", zap.Error(err))
		} else if revoked {
			return nil, ErrSessionInvalid
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		s.logger.Error("lookup session user failed", zap.Uint("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	actor := &policy.Actor{
		UserID:    user.ID,
		IsTeacher: user.IsTeacher,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		actor.ExpiresAt = claims.ExpiresAt.Time
	}
	return actor, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, actor *policy.Actor) error {
	if err := policy.Check(actor, policy.AnyAuthenticated, 0); err != nil {
		return err
	}
	if s.blacklist == nil {
		s.logger.Warn("logout without token revocation, redis unavailable", zap.Uint("user_id", actor.UserID))
		return nil
	}
	if actor.TokenID == "" {
		return nil
	}

	ttl := time.Until(actor.ExpiresAt)
	if err := s.blacklist.BlacklistToken(ctx, actor.TokenID, ttl); err != nil {
		s.logger.Error("blacklist token failed", zap.Uint("user_id", actor.UserID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		IsTeacher: u.IsTeacher,
	}
}
