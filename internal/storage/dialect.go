// Package storage — dialect.go разбирает адрес хранилища и описывает
// различия SQLite и PostgreSQL: драйвер, DSN, схему и обслуживание.
package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // драйвер "pgx"
)

type dialect struct {
	name        string
	driver      string
	dsn         string
	path        string // файл SQLite, пусто для PostgreSQL
	migrations  []migration
	maintenance []string
}

// resolveDialect определяет бэкенд по адресу:
// postgres:// и postgresql:// уходят в PostgreSQL, остальное считается файлом SQLite.
func resolveDialect(locator string, busyTimeout time.Duration) (*dialect, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, fmt.Errorf("адрес хранилища не задан")
	}

	if strings.HasPrefix(locator, "postgres://") || strings.HasPrefix(locator, "postgresql://") {
		return &dialect{
			name:        "postgres",
			driver:      "pgx",
			dsn:         locator,
			migrations:  postgresMigrations,
			maintenance: []string{"ANALYZE"},
		}, nil
	}

	path, err := sqlitePath(locator)
	if err != nil {
		return nil, err
	}
	busy := int(busyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate",
		path, busy,
	)
	return &dialect{
		name:       "sqlite",
		driver:     "sqlite",
		dsn:        dsn,
		path:       path,
		migrations: sqliteMigrations,
		maintenance: []string{
			"PRAGMA optimize",
			"PRAGMA wal_checkpoint(TRUNCATE)",
		},
	}, nil
}

// sqlitePath превращает путь, file: или sqlite: URL в абсолютный путь к файлу.
func sqlitePath(locator string) (string, error) {
	raw := locator
	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		raw = strings.TrimPrefix(raw, "sqlite://")
	case strings.HasPrefix(raw, "sqlite:"):
		raw = strings.TrimPrefix(raw, "sqlite:")
	case strings.HasPrefix(raw, "file:"):
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("некорректный адрес %q: %w", locator, err)
		}
		raw = u.Opaque
		if raw == "" {
			raw = u.Path
		}
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" || raw == ":memory:" {
		return "", fmt.Errorf("нужен путь к файлу БД, получено %q", locator)
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("не удалось получить путь к БД: %w", err)
	}
	return abs, nil
}

// exists проверяет, есть ли уже хранилище.
// PostgreSQL-база должна существовать заранее, поэтому для неё всегда true.
func (d *dialect) exists() (bool, error) {
	if d.path == "" {
		return true, nil
	}
	_, err := os.Stat(d.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// create создаёт каталог под файл БД. Сам файл создаёт драйвер при первом соединении.
func (d *dialect) create() error {
	if d.path == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(d.path), 0o755)
}
