package service

import (
	"context"
	"fmt"
	"strings"

	"go-blog/internal/model"
	"go-blog/pkg/logger"
	"go-blog/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 处理注册和登录
type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) Register(ctx context.Context, in SignupInput) (*model.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	ve := &ValidationError{}
	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		ve.Add("username", "A user with that username already exists.")
	}
	existingEmail, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingEmail != nil {
		ve.Add("email", "A user with that email already exists.")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:  username,
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.L.Info("User registered", zap.Uint("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

// 返回 JWT 和用户
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *model.User, error) {
	if err := in.Validate(); err != nil {
		return "", nil, err
	}
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// 令牌对应的用户已被删除时返回 Anonymous
func (s *AuthService) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return Anonymous, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return Anonymous, err
	}
	if user == nil {
		return Anonymous, ErrUnauthorized
	}
	return Identity{UserID: user.ID, Username: user.Username}, nil
}
