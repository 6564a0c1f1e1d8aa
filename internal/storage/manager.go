// Package storage управляет хранилищем приложения: создаёт файл БД,
// применяет схему и отдаёт пул соединений репозиториям.
//
// Пул (*sqlx.DB поверх database/sql) сам выдаёт и возвращает соединения,
// поэтому внешняя синхронизация вызывающим не нужна.
package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/karma-tracker/internal/config"
)

// Manager владеет пулом соединений к хранилищу.
type Manager struct {
	db      *sqlx.DB
	dialect *dialect
	created bool
}

// Open открывает хранилище по адресу из конфигурации.
// Если хранилища нет — создаёт его и схему. Если есть — схема не пересоздаётся.
// Любая ошибка возвращается как ErrOpenConnection, частичный Manager не отдаётся.
//
// Пример:
//
//	m, err := storage.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
func Open(ctx context.Context, cfg *config.Config) (*Manager, error) {
	m, err := open(ctx, cfg)
	if err != nil {
		return nil, &Error{Op: "open", Kind: ErrOpenConnection, Err: err}
	}
	return m, nil
}

func open(ctx context.Context, cfg *config.Config) (*Manager, error) {
	d, err := resolveDialect(cfg.DBURL, cfg.DBBusyTimeout)
	if err != nil {
		return nil, err
	}

	existed, err := d.exists()
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки хранилища: %w", err)
	}
	if !existed {
		log.WithField("path", d.path).Info("Создаём базу данных")
		if err := d.create(); err != nil {
			return nil, fmt.Errorf("ошибка создания хранилища: %w", err)
		}
	}

	db, err := sqlx.Open(d.driver, d.dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия %s: %w", d.name, err)
	}

	// Настройки пула соединений
	db.SetMaxOpenConns(cfg.DBMaxConns)
	db.SetMaxIdleConns(max(cfg.DBMinConns, 1))
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	// Проверяем, что база доступна
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	applied, err := runMigrations(ctx, db, d.migrations)
	if err != nil {
		db.Close()
		return nil, err
	}

	created := slices.Contains(applied, initialSchemaVersion)
	fields := log.Fields{"backend": d.name, "path": d.path}
	if created {
		log.WithFields(fields).Info("Схема базы данных создана")
	} else {
		log.WithFields(fields).Info("Создание схемы пропущено: база данных уже существует")
	}

	return &Manager{db: db, dialect: d, created: created}, nil
}

// DB отдаёт пул соединений для репозиториев.
func (m *Manager) DB() *sqlx.DB {
	return m.db
}

// Backend возвращает имя бэкенда: "sqlite" или "postgres".
func (m *Manager) Backend() string {
	return m.dialect.name
}

// Created сообщает, создал ли этот Open начальную схему.
func (m *Manager) Created() bool {
	return m.created
}

// Maintain выполняет обслуживание: статистику планировщика запросов и чекпоинт WAL.
func (m *Manager) Maintain(ctx context.Context) error {
	for _, stmt := range m.dialect.maintenance {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return Wrap("maintain", err)
		}
	}
	log.WithField("backend", m.dialect.name).Debug("Обслуживание БД выполнено")
	return nil
}

// Close закрывает пул соединений.
func (m *Manager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}
