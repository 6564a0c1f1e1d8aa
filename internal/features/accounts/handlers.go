// Package accounts — handlers.go обрабатывает команды учётных записей.
// Наружу уходит только Profile: хеш пароля GUI никогда не видит.
package accounts

import (
	"context"
	"encoding/json"
	"errors"

	"serotonyl.ru/karma-tracker/internal/api"
	"serotonyl.ru/karma-tracker/internal/common"
	"serotonyl.ru/karma-tracker/internal/storage"
)

// ServiceProvider отдаёт сервис учётных записей.
type ServiceProvider func(ctx context.Context) (*Service, error)

type Handler struct {
	services ServiceProvider
}

func NewHandler(services ServiceProvider) *Handler {
	return &Handler{services: services}
}

// Register регистрирует команды учётных записей в маршрутизаторе.
func (h *Handler) Register(r *api.Router) {
	r.Handle("register_user", h.RegisterUser)
	r.Handle("get_user", h.GetUser)
}

type registerArgs struct {
	Username string `json:"username" validate:"required,max=250"`
	Password string `json:"password" validate:"required"`
}

type usernameArgs struct {
	Username string `json:"username" validate:"required,max=250"`
}

// RegisterUser — команда register_user(username, password).
func (h *Handler) RegisterUser(ctx context.Context, raw json.RawMessage) (any, error) {
	var args registerArgs
	if err := api.Bind(raw, &args); err != nil {
		return nil, err
	}

	// проверки до обращения к хранилищу
	if _, err := NewUsername(args.Username); err != nil {
		return nil, api.Invalid(api.KindInvalidUsername, args.Username, err)
	}
	if err := validatePassword(args.Password); err != nil {
		return nil, invalidPassword(err)
	}

	svc, err := h.services(ctx)
	if err != nil {
		return nil, api.Failed(api.KindDBCreation, err)
	}
	user, err := svc.Register(ctx, args.Username, args.Password)
	if err != nil {
		return nil, failure(args.Username, err)
	}
	return user.Profile(), nil
}

// GetUser — команда get_user(username).
func (h *Handler) GetUser(ctx context.Context, raw json.RawMessage) (any, error) {
	var args usernameArgs
	if err := api.Bind(raw, &args); err != nil {
		return nil, err
	}

	svc, err := h.services(ctx)
	if err != nil {
		return nil, api.Failed(api.KindDBCreation, err)
	}
	user, err := svc.GetUser(ctx, args.Username)
	if err != nil {
		return nil, failure(args.Username, err)
	}
	return user.Profile(), nil
}

func failure(username string, err error) error {
	switch {
	case errors.Is(err, common.ErrUsernameSize), errors.Is(err, common.ErrUsernameFirstChar):
		return api.Invalid(api.KindInvalidUsername, username, err)
	case errors.Is(err, common.ErrPasswordSize),
		errors.Is(err, common.ErrPasswordNoDigit),
		errors.Is(err, common.ErrPasswordNoSpecialChar),
		errors.Is(err, common.ErrPasswordNoUppercase):
		return invalidPassword(err)
	case errors.Is(err, storage.ErrDuplicate):
		return api.FailedWith(api.KindUserExists, username, err)
	case errors.Is(err, storage.ErrNotFound):
		return api.FailedWith(api.KindUserNotFound, username, err)
	}
	return api.Failed(api.KindUserFailed, err)
}

// invalidPassword не несёт Value: сам пароль в ответ не попадает.
func invalidPassword(err error) error {
	return &api.Error{Kind: api.KindInvalidPassword, Message: err.Error(), Err: err}
}
