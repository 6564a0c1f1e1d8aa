// Package api — router.go регистрирует команды и вызывает их по имени.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"
)

// HandlerFunc обрабатывает одну команду. args — JSON-объект аргументов.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Router хранит команды, доступные GUI-оболочке.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRouter создаёт пустой маршрутизатор команд.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Handle регистрирует команду. Повторная регистрация имени — ошибка программиста.
func (r *Router) Handle(name string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[name]; ok {
		panic(fmt.Sprintf("api: команда %q уже зарегистрирована", name))
	}
	r.handlers[name] = h
}

// Commands возвращает имена зарегистрированных команд по алфавиту.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoke вызывает команду по имени. Ошибка, если есть, всегда *Error.
func (r *Router) Invoke(ctx context.Context, name string, args json.RawMessage) (result any, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = recoveredPanic(name, p)
			result = nil
		}
		logInvocation(name, time.Since(start), err)
	}()

	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, Invalid(KindUnknownCommand, name, fmt.Errorf("неизвестная команда %q", name))
	}

	result, err = h(ctx, args)
	if apiErr := asError(err); apiErr != nil {
		return nil, apiErr
	}
	return result, nil
}
