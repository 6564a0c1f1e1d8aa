// Package accounts — service.go содержит регистрацию и чтение пользователей.
package accounts

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/karma-tracker/internal/common"
)

// Store — операции хранилища, нужные сервису. *Repository реализует его.
type Store interface {
	InsertUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, username string) (User, error)
}

// Service управляет учётными записями.
type Service struct {
	repo Store
}

// NewService создаёт сервис учётных записей.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Register проверяет имя и пароль, хеширует пароль и сохраняет пользователя.
// Ошибки проверки возвращаются как есть и до хранилища не доходят.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	user, err := NewUser(username, password)
	if err != nil {
		return User{}, err
	}

	saved, err := s.repo.InsertUser(ctx, user)
	if err != nil {
		return User{}, &common.ServiceError{Op: "register", Err: err}
	}

	log.WithField("username", saved.Username.String()).Info("Зарегистрирован пользователь")
	return saved, nil
}

// GetUser возвращает пользователя по имени.
func (s *Service) GetUser(ctx context.Context, username string) (User, error) {
	user, err := s.repo.GetUser(ctx, username)
	if err != nil {
		return User{}, &common.ServiceError{Op: "get_user", Err: err}
	}
	return user, nil
}
