// Package users manages the people who own, maintain and audit assets.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/pkg/logger"
)

// Service manages user records.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New constructs a user service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// Input carries the fields accepted when creating a user.
type Input struct {
	FullName string `json:"nombre_completo"`
	Email    string `json:"email"`
	Role     string `json:"rol"`
}

// Create registers a new user. Emails are unique and stored lowercase.
func (s *Service) Create(ctx context.Context, in Input) (user.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.FullName == "" {
		return user.User{}, fmt.Errorf("nombre_completo is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return user.User{}, fmt.Errorf("email is required and must contain @")
	}
	role, err := user.ParseRole(strings.TrimSpace(in.Role))
	if err != nil {
		return user.User{}, err
	}

	created, err := s.store.CreateUser(ctx, user.User{
		FullName: in.FullName,
		Email:    in.Email,
		Role:     role,
	})
	if err != nil {
		return user.User{}, err
	}
	s.log.WithField("user_id", created.ID).
		WithField("rol", string(role)).
		Info("user created")
	return created, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	if strings.TrimSpace(id) == "" {
		return user.User{}, fmt.Errorf("user id is required")
	}
	return s.store.GetUser(ctx, id)
}

// GetByEmail fetches a user by email, case-insensitively.
func (s *Service) GetByEmail(ctx context.Context, email string) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return user.User{}, fmt.Errorf("email is required")
	}
	return s.store.GetUserByEmail(ctx, email)
}

// List returns all users ordered by name.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	return s.store.ListUsers(ctx)
}
