// Package auth 提供注册、登录与令牌刷新
package auth

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"

	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
	"avangard-rag-api/pkg/logger"
	"avangard-rag-api/pkg/utils"
)

var tracer = otel.Tracer("auth")

var (
	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserInactive 用户已被停用
	ErrUserInactive = errors.New("user is inactive")

	// ErrInvalidRefreshToken 刷新令牌无效
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// TokenPair 访问令牌与刷新令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service 认证服务
type Service struct {
	users repository.UserRepository
	jwt   *utils.JWTManager
}

// NewService 创建认证服务
func NewService(users repository.UserRepository, jwt *utils.JWTManager) *Service {
	return &Service{users: users, jwt: jwt}
}

// RegisterInput 注册请求
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register 注册新用户
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer span.End()

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	user := entity.NewUser(in.Email, in.Name)
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login 校验凭据并签发令牌
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *entity.User, error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to update last login", "error", err, "user_id", user.ID)
	}

	return pair, user, nil
}

// Refresh 用刷新令牌换取新的令牌对
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	ctx, span := tracer.Start(ctx, "auth.Refresh")
	defer span.End()

	claims, err := s.jwt.ParseToken(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokens(user)
}

func (s *Service) issueTokens(user *entity.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.OrganizationID, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID, user.OrganizationID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
