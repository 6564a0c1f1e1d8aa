// Package karma — handlers.go обрабатывает команды GUI-оболочки, связанные с кармой.
package karma

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"serotonyl.ru/karma-tracker/internal/api"
	"serotonyl.ru/karma-tracker/internal/common"
	"serotonyl.ru/karma-tracker/internal/storage"
)

// ServiceProvider отдаёт сервис кармы; обычно — из ленивого контроллера приложения.
type ServiceProvider func(ctx context.Context) (*Service, error)

// Handler обрабатывает команды кармы.
type Handler struct {
	services ServiceProvider
	now      func() time.Time
}

// NewHandler создаёт обработчик кармы.
func NewHandler(services ServiceProvider) *Handler {
	return &Handler{services: services, now: time.Now}
}

// Register регистрирует команды кармы в маршрутизаторе.
func (h *Handler) Register(r *api.Router) {
	r.Handle("create_karma", h.CreateKarma)
	r.Handle("get_karma", h.GetKarma)
	r.Handle("start_karma", h.StartKarma)
	r.Handle("close_karma", h.CloseKarma)
	r.Handle("get_karma_status", h.GetKarmaStatus)
}

type createKarmaArgs struct {
	Name    string `json:"name" validate:"required,max=50"`
	Purpose string `json:"purpose"`
}

type nameArgs struct {
	Name string `json:"name" validate:"required,max=50"`
}

type startKarmaArgs struct {
	Name      string `json:"name" validate:"required,max=50"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
}

type closeKarmaArgs struct {
	Name       string `json:"name" validate:"required,max=50"`
	ClosedWith int    `json:"closed_with"`
	Timestamp  int64  `json:"timestamp" validate:"gte=0"`
}

// CreateKarma — команда create_karma(name, purpose). Результата нет.
func (h *Handler) CreateKarma(ctx context.Context, raw json.RawMessage) (any, error) {
	var args createKarmaArgs
	if err := api.Bind(raw, &args); err != nil {
		return nil, err
	}

	// назначение проверяем до любого обращения к хранилищу
	purpose, err := ParsePurpose(args.Purpose)
	if err != nil {
		return nil, api.Invalid(api.KindInvalidKarmaType, args.Purpose, err)
	}

	svc, err := h.service(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := svc.CreateKarma(ctx, NewKarmaPoint(purpose, args.Name)); err != nil {
		return nil, failure(api.KindKarmaCreationFailed, args.Name, err)
	}
	return nil, nil
}

// GetKarma — команда get_karma(name).
func (h *Handler) GetKarma(ctx context.Context, raw json.RawMessage) (any, error) {
	var args nameArgs
	if err := api.Bind(raw, &args); err != nil {
		return nil, err
	}

	svc, err := h.service(ctx)
	if err != nil {
		return nil, err
	}
	point, err := svc.GetKarma(ctx, args.Name)
	if err != nil {
		return nil, failure(api.KindKarmaLookupFailed, args.Name, err)
	}
	return point, nil
}

// StartKarma — команда start_karma(name, timestamp). Без timestamp берётся текущее время.
func (h *Handler) StartKarma(ctx context.Context, raw json.RawMessage) (any, error) {
	var args startKarmaArgs
	if err := api.Bind(raw, &args); err != nil {
		return nil, err
	}

	svc, err := h.service(ctx)
	if err != nil {
		return nil, err
	}
	status, err := svc.StartKarma(ctx, args.Name, h.timestamp(args.Timestamp))
	if err != nil {
		return nil, failure(api.KindKarmaStatusFailed, args.Name, err)
	}
	return status, nil
}

// CloseKarma — команда close_karma(name, closed_with, timestamp).
// closed_with — код назначения 1–5 или 0, если очко закрыто как задумано.
func (h *Handler) CloseKarma(ctx context.Context, raw json.RawMessage) (any, error) {
	var args closeKarmaArgs
	if err := api.Bind(raw, &args); err != nil {
		return nil, err
	}

	closedWith := NoKarmaType
	if args.ClosedWith != 0 {
		t, err := KarmaTypeFromCode(args.ClosedWith)
		if err != nil {
			return nil, api.Invalid(api.KindInvalidNumericKarmaType, strconv.Itoa(args.ClosedWith), err)
		}
		closedWith = t
	}

	svc, err := h.service(ctx)
	if err != nil {
		return nil, err
	}
	status, err := svc.CloseKarma(ctx, args.Name, closedWith, h.timestamp(args.Timestamp))
	if err != nil {
		return nil, failure(api.KindKarmaStatusFailed, args.Name, err)
	}
	return status, nil
}

// GetKarmaStatus — команда get_karma_status(name).
func (h *Handler) GetKarmaStatus(ctx context.Context, raw json.RawMessage) (any, error) {
	var args nameArgs
	if err := api.Bind(raw, &args); err != nil {
		return nil, err
	}

	svc, err := h.service(ctx)
	if err != nil {
		return nil, err
	}
	status, err := svc.GetStatus(ctx, args.Name)
	if err != nil {
		return nil, failure(api.KindKarmaStatusFailed, args.Name, err)
	}
	return status, nil
}

func (h *Handler) service(ctx context.Context) (*Service, error) {
	svc, err := h.services(ctx)
	if err != nil {
		return nil, api.Failed(api.KindDBCreation, err)
	}
	return svc, nil
}

func (h *Handler) timestamp(ts int64) int64 {
	if ts > 0 {
		return ts
	}
	return h.now().Unix()
}

// failure переводит ошибку сервиса в ошибку команды.
func failure(kind api.Kind, name string, err error) error {
	switch {
	case errors.Is(err, common.ErrKarmaNameEmpty),
		errors.Is(err, common.ErrKarmaPurposeInvalid),
		errors.Is(err, common.ErrKarmaStatusInvalid),
		errors.Is(err, common.ErrKarmaAlreadyPersisted):
		return api.Invalid(api.KindInvalidArguments, name, err)
	case errors.Is(err, storage.ErrDuplicate):
		return api.FailedWith(api.KindKarmaExists, name, err)
	case errors.Is(err, storage.ErrNotFound):
		return api.FailedWith(api.KindKarmaNotFound, name, err)
	}
	return api.Failed(kind, err)
}
