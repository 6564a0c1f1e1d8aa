// Package app — controller.go хранит единственный на процесс экземпляр App.
// App создаётся лениво при первом обращении, ровно один раз даже при
// одновременных вызовах. Неудачная сборка не запоминается: следующий вызов
// попробует снова.
package app

import (
	"context"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/karma-tracker/internal/config"
)

// BuildFunc собирает App.
type BuildFunc func(ctx context.Context) (*App, error)

// Controller лениво создаёт App.
type Controller struct {
	app   atomic.Pointer[App]
	guard chan struct{} // занятый слот — кто-то собирает App
	build BuildFunc
}

// NewController создаёт контроллер с заданной функцией сборки.
func NewController(build BuildFunc) *Controller {
	return &Controller{
		guard: make(chan struct{}, 1),
		build: build,
	}
}

// Get возвращает App, собирая его при первом вызове.
// Ожидающие сборки можно отменить через ctx.
func (c *Controller) Get(ctx context.Context) (*App, error) {
	if a := c.app.Load(); a != nil {
		return a, nil
	}

	select {
	case c.guard <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.guard }()

	// Пока ждали, App мог собрать другой вызов
	if a := c.app.Load(); a != nil {
		return a, nil
	}

	a, err := c.build(ctx)
	if err != nil {
		log.WithError(err).Error("Не удалось инициализировать приложение")
		return nil, err
	}
	c.app.Store(a)
	return a, nil
}

// Loaded сообщает, собран ли App.
func (c *Controller) Loaded() bool {
	return c.app.Load() != nil
}

var defaultController = NewController(func(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
})

// Default — контроллер процесса; конфигурация читается из окружения при первой сборке.
func Default() *Controller {
	return defaultController
}

// Get — App процесса.
func Get(ctx context.Context) (*App, error) {
	return defaultController.Get(ctx)
}
