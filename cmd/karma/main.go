// Package main — точка входа бэкенда karma-tracker.
// GUI-оболочка запускает "karma serve" и общается с ним JSON-строками через stdin/stdout.
// Для отладки каждую команду можно вызвать и напрямую: "karma invoke get_karma '{...}'".
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Настраиваем логирование
	setupLogging()

	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("Команда завершилась с ошибкой")
		os.Exit(1)
	}
}

// setupLogging настраивает формат логов.
// Логи идут в stderr: stdout занят ответами для GUI.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.DebugLevel)
}
