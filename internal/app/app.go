// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: открывает хранилище, создаёт репозитории, сервисы
// и планировщик обслуживания, собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/karma-tracker/internal/api"
	"serotonyl.ru/karma-tracker/internal/config"
	"serotonyl.ru/karma-tracker/internal/features/accounts"
	"serotonyl.ru/karma-tracker/internal/features/karma"
	"serotonyl.ru/karma-tracker/internal/jobs"
	"serotonyl.ru/karma-tracker/internal/storage"
)

// App содержит все компоненты приложения.
type App struct {
	Storage   *storage.Manager
	Karma     *karma.Service
	Accounts  *accounts.Service
	Scheduler *jobs.Scheduler // nil, если обслуживание выключено
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	manager, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Репозитории ===
	karmaRepo := karma.NewRepository(manager.DB())
	accountsRepo := accounts.NewRepository(manager.DB())

	// === 3. Сервисы ===
	a := &App{
		Storage:  manager,
		Karma:    karma.NewService(karmaRepo),
		Accounts: accounts.NewService(accountsRepo),
	}

	// === 4. Планировщик обслуживания ===
	if cfg.MaintenanceEnabled {
		scheduler, err := jobs.NewScheduler(cfg.MaintenanceSchedule, manager.Maintain)
		if err != nil {
			manager.Close()
			return nil, fmt.Errorf("ошибка создания планировщика: %w", err)
		}
		// Задачи живут дольше вызова, который создал приложение
		scheduler.Start(context.WithoutCancel(ctx))
		a.Scheduler = scheduler
	}

	log.WithField("backend", manager.Backend()).Info("Приложение инициализировано")
	return a, nil
}

// Close останавливает планировщик и закрывает хранилище.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	return a.Storage.Close()
}

// NewRouter регистрирует все команды. Сервисы берутся из контроллера при
// первом вызове команды, так что хранилище открывается лениво.
func NewRouter(c *Controller) *api.Router {
	r := api.NewRouter()

	karma.NewHandler(func(ctx context.Context) (*karma.Service, error) {
		a, err := c.Get(ctx)
		if err != nil {
			return nil, err
		}
		return a.Karma, nil
	}).Register(r)

	accounts.NewHandler(func(ctx context.Context) (*accounts.Service, error) {
		a, err := c.Get(ctx)
		if err != nil {
			return nil, err
		}
		return a.Accounts, nil
	}).Register(r)

	return r
}
