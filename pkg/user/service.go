package user

import (
	"context"
	"errors"
	"fmt"

	"appshell/pkg/generator"

	"golang.org/x/crypto/bcrypt"
)

type ServiceInterface interface {
	Register(ctx context.Context, username, password string) (*User, error)
	Login(ctx context.Context, username, password string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
}

type Service struct {
	Repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo}
}

func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	exist, err := s.Repo.FindByUsername(ctx, username)
	if exist != nil && err == nil {
		return nil, ErrUserExists
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password error: %w", err)
	}

	userID, err := generator.NewID()
	if err != nil {
		return nil, fmt.Errorf("UserID gen error: %w", err)
	}

	user := &User{
		ID:       userID,
		Username: username,
		Password: string(hashedPassword),
	}

	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.Repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) ByID(ctx context.Context, id string) (*User, error) {
	return s.Repo.FindByID(ctx, id)
}
