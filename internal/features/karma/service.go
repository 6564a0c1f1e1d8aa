// Package karma — service.go содержит бизнес-логику кармы.
package karma

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/karma-tracker/internal/common"
)

// Store — операции хранилища, нужные сервису. *Repository реализует его.
type Store interface {
	InsertKarma(ctx context.Context, point KarmaPoint) (KarmaPoint, error)
	GetKarmaByName(ctx context.Context, name string) (KarmaPoint, error)
	InsertStatus(ctx context.Context, status KarmaStatus) (KarmaStatus, error)
	GetStatus(ctx context.Context, point KarmaPoint) (KarmaStatus, error)
}

// Service управляет очками кармы и их состояниями.
type Service struct {
	repo Store
}

// NewService создаёт сервис кармы.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// CreateKarma проверяет и сохраняет новое очко кармы.
func (s *Service) CreateKarma(ctx context.Context, point KarmaPoint) (KarmaPoint, error) {
	if err := validatePoint(point); err != nil {
		return KarmaPoint{}, err
	}

	created, err := s.repo.InsertKarma(ctx, point)
	if err != nil {
		return KarmaPoint{}, &common.ServiceError{Op: "create_karma", Err: err}
	}

	log.WithFields(log.Fields{
		"id":      created.ID,
		"name":    created.Name,
		"purpose": created.Purpose,
	}).Info("Создано очко кармы")
	return created, nil
}

// GetKarma возвращает очко кармы по имени.
func (s *Service) GetKarma(ctx context.Context, name string) (KarmaPoint, error) {
	point, err := s.repo.GetKarmaByName(ctx, name)
	if err != nil {
		return KarmaPoint{}, &common.ServiceError{Op: "get_karma", Err: err}
	}
	return point, nil
}

// SetStatus добавляет запись состояния для уже сохранённого очка.
func (s *Service) SetStatus(ctx context.Context, status KarmaStatus) (KarmaStatus, error) {
	if status.KarmaID <= 0 || (status.State != Active && status.State != Closed) {
		return KarmaStatus{}, common.ErrKarmaStatusInvalid
	}
	if status.ClosedWith != NoKarmaType && !status.ClosedWith.Valid() {
		return KarmaStatus{}, common.ErrKarmaPurposeInvalid
	}

	saved, err := s.repo.InsertStatus(ctx, status)
	if err != nil {
		return KarmaStatus{}, &common.ServiceError{Op: "set_status", Err: err}
	}
	return saved, nil
}

// StartKarma отмечает очко активным на момент timestamp.
func (s *Service) StartKarma(ctx context.Context, name string, timestamp int64) (KarmaStatus, error) {
	point, err := s.GetKarma(ctx, name)
	if err != nil {
		return KarmaStatus{}, err
	}
	return s.SetStatus(ctx, NewKarmaStatus(point.ID, Active, timestamp))
}

// CloseKarma закрывает очко. closedWith — назначение, под которым оно реально закрыто;
// NoKarmaType означает «как задумано».
func (s *Service) CloseKarma(ctx context.Context, name string, closedWith KarmaType, timestamp int64) (KarmaStatus, error) {
	if closedWith != NoKarmaType && !closedWith.Valid() {
		return KarmaStatus{}, common.ErrKarmaPurposeInvalid
	}
	point, err := s.GetKarma(ctx, name)
	if err != nil {
		return KarmaStatus{}, err
	}
	return s.SetStatus(ctx, WithClosedReason(point.ID, Closed, timestamp, closedWith))
}

// GetStatus возвращает последнее состояние очка кармы с данным именем.
func (s *Service) GetStatus(ctx context.Context, name string) (KarmaStatus, error) {
	status, err := s.repo.GetStatus(ctx, KarmaPoint{Name: name})
	if err != nil {
		return KarmaStatus{}, &common.ServiceError{Op: "get_status", Err: err}
	}
	return status, nil
}

func validatePoint(point KarmaPoint) error {
	if point.Persisted() {
		return common.ErrKarmaAlreadyPersisted
	}
	if strings.TrimSpace(point.Name) == "" {
		return common.ErrKarmaNameEmpty
	}
	if !point.Purpose.Valid() {
		return common.ErrKarmaPurposeInvalid
	}
	return nil
}
