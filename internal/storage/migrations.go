// Package storage — migrations.go содержит схему и применение миграций.
// Каждая миграция выполняется в одной транзакции вместе с записью своей версии,
// поэтому частично созданной схемы не бывает.
package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// initialSchemaVersion — миграция, создающая таблицы users, karma и karma_status.
const initialSchemaVersion = 1

type migration struct {
	version    int
	statements []string
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// SQL-миграции встроены в код, отдельных файлов нет.

var sqliteMigrations = []migration{
	{initialSchemaVersion, []string{
		`CREATE TABLE IF NOT EXISTS users (
    username VARCHAR(250) NOT NULL UNIQUE,
    password VARCHAR(250) NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS karma (
    id INTEGER PRIMARY KEY NOT NULL UNIQUE,
    purpose INTEGER NOT NULL,
    name VARCHAR(50) NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS karma_status (
    id INTEGER PRIMARY KEY NOT NULL UNIQUE,
    karma_id INTEGER NOT NULL,
    closed_with INTEGER,
    current_state VARCHAR(50) NOT NULL,
    timestamp INTEGER NOT NULL,
    FOREIGN KEY(karma_id) REFERENCES karma(id)
)`,
	}},
	{2, []string{
		`CREATE INDEX IF NOT EXISTS idx_karma_status_karma_ts ON karma_status(karma_id, timestamp DESC)`,
	}},
}

var postgresMigrations = []migration{
	{initialSchemaVersion, []string{
		`CREATE TABLE IF NOT EXISTS users (
    username VARCHAR(250) NOT NULL UNIQUE,
    password VARCHAR(250) NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS karma (
    id BIGSERIAL PRIMARY KEY,
    purpose INTEGER NOT NULL,
    name VARCHAR(50) NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS karma_status (
    id BIGSERIAL PRIMARY KEY,
    karma_id BIGINT NOT NULL REFERENCES karma(id),
    closed_with INTEGER,
    current_state VARCHAR(50) NOT NULL,
    timestamp BIGINT NOT NULL
)`,
	}},
	{2, []string{
		`CREATE INDEX IF NOT EXISTS idx_karma_status_karma_ts ON karma_status(karma_id, timestamp DESC)`,
	}},
}

// runMigrations применяет все миграции по порядку и возвращает номера
// применённых в этот раз версий.
func runMigrations(ctx context.Context, db *sqlx.DB, migrations []migration) ([]int, error) {
	var applied []int
	for _, m := range migrations {
		ok, err := execMigration(ctx, db, m)
		if err != nil {
			return applied, fmt.Errorf("миграция %d: %w", m.version, err)
		}
		if ok {
			log.Infof("Миграция %d применена", m.version)
			applied = append(applied, m.version)
		}
	}
	return applied, nil
}

// execMigration выполняет одну миграцию в транзакции.
// Если запрос упадёт — транзакция откатится целиком.
func execMigration(ctx context.Context, db *sqlx.DB, m migration) (bool, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createMigrationsTable); err != nil {
		return false, fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	// Проверяем, не была ли эта миграция уже применена
	var count int
	err = tx.QueryRowxContext(ctx,
		tx.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), m.version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	for i, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return false, fmt.Errorf("ошибка выполнения запроса %d: %w", i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		tx.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), m.version,
	); err != nil {
		return false, fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("ошибка фиксации миграции: %w", err)
	}
	return true, nil
}
