// Package config загружает конфигурацию приложения из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	// Путь к файлу SQLite или URL. Для postgres:// используется PostgreSQL.
	DBURL             string        `envconfig:"KARMA_DB_URL" default:"karma_db.sqlite"`
	DBMaxConns        int           `envconfig:"KARMA_DB_MAX_CONNS" default:"4"`
	DBMinConns        int           `envconfig:"KARMA_DB_MIN_CONNS" default:"1"`
	DBBusyTimeout     time.Duration `envconfig:"KARMA_DB_BUSY_TIMEOUT" default:"5s"`
	DBConnMaxLifetime time.Duration `envconfig:"KARMA_DB_CONN_MAX_LIFETIME" default:"1h"`

	// --- Application ---
	AppEnv      string `envconfig:"KARMA_APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"KARMA_LOG_LEVEL" default:"debug"`

	// --- Maintenance ---
	// Расписание обслуживания БД (формат robfig/cron, дескрипторы @every тоже работают)
	MaintenanceEnabled  bool   `envconfig:"KARMA_MAINTENANCE_ENABLED" default:"true"`
	MaintenanceSchedule string `envconfig:"KARMA_MAINTENANCE_SCHEDULE" default:"@every 1h"`
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBURL) == "" {
		return fmt.Errorf("KARMA_DB_URL не задан")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные KARMA_DB_MIN_CONNS/KARMA_DB_MAX_CONNS")
	}
	if c.DBBusyTimeout < 0 {
		return fmt.Errorf("KARMA_DB_BUSY_TIMEOUT должен быть >= 0")
	}
	if c.MaintenanceEnabled {
		if _, err := cron.ParseStandard(c.MaintenanceSchedule); err != nil {
			return fmt.Errorf("KARMA_MAINTENANCE_SCHEDULE: %w", err)
		}
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
