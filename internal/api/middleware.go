// Package api — middleware.go: логирование вызовов и восстановление после паники.
package api

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"
)

// logInvocation логирует вызов команды: имя, длительность и вид ошибки.
func logInvocation(name string, took time.Duration, err error) {
	entry := log.WithFields(log.Fields{
		"command": name,
		"took":    took.Round(time.Microsecond).String(),
	})
	if err == nil {
		entry.Debug("Команда выполнена")
		return
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		entry = entry.WithField("kind", apiErr.Kind)
	}
	entry.WithError(err).Warn("Команда завершилась ошибкой")
}

// recoveredPanic логирует панику в обработчике и превращает её в внешнюю ошибку.
func recoveredPanic(name string, p any) error {
	log.WithFields(log.Fields{
		"component": "panic_recovery",
		"command":   name,
		"panic":     fmt.Sprintf("%v", p),
		"stack":     string(debug.Stack()),
	}).Error("ПАНИКА в обработчике — восстановлено")
	return External(fmt.Errorf("паника в команде %q: %v", name, p))
}
