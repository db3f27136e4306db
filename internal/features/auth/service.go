package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	common_models "go-social/internal/common/models"
	"go-social/internal/config"
	"go-social/internal/features/audit"
	"go-social/internal/features/user"
	"go-social/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*user.User, error)
	Login(ctx context.Context, email, password string) (string, *user.User, error)
}

type AuthServiceImpl struct {
	UserRepo     user.UserRepository
	InfoRepo     user.UserInfoRepository
	AuditService audit.AuditService
	TokenTTL     time.Duration
	Log          *zap.Logger
}

func NewAuthService(userRepo user.UserRepository, infoRepo user.UserInfoRepository, auditService audit.AuditService, cfg *config.Config, log *zap.Logger) AuthService {
	return &AuthServiceImpl{
		UserRepo:     userRepo,
		InfoRepo:     infoRepo,
		AuditService: auditService,
		TokenTTL:     cfg.TokenTTL,
		Log:          log,
	}
}

// Register creates the account and its empty profile
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	newUser := &user.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.UserRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	info := &user.UserInfo{
		UserID:    newUser.ID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := s.InfoRepo.Create(ctx, info); err != nil {
		// the account exists; the profile can be filled in later
		s.Log.Warn("Failed to create user info", zap.String("member_id", newUser.ID.Hex()), zap.Error(err))
	}

	changes := map[string]common_models.Change{
		"name":  {New: newUser.Name},
		"email": {New: newUser.Email},
	}
	if err := s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "users", newUser.ID.Hex(), changes); err != nil {
		s.Log.Warn("Failed to write audit log", zap.Error(err))
	}

	return newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	usr, err := s.UserRepo.FindByEmail(ctx, email)
	if errors.Is(err, user.ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(usr.ID, usr.Email, s.TokenTTL)
	if err != nil {
		return "", nil, err
	}

	ctx = context.WithValue(ctx, utils.UserClaimsKey, &utils.UserClaims{UserID: usr.ID.Hex(), Email: usr.Email})
	if err := s.AuditService.LogChange(ctx, common_models.AuditActionLogin, "users", usr.ID.Hex(), nil); err != nil {
		s.Log.Warn("Failed to write audit log", zap.Error(err))
	}

	return token, usr, nil
}
