// Package karma — repository.go выполняет операции с таблицами karma и karma_status.
package karma

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"serotonyl.ru/karma-tracker/internal/storage"
)

// Repository работает с таблицами karma и karma_status.
type Repository struct {
	db *sqlx.DB
}

// NewRepository создаёт репозиторий кармы.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type pointRow struct {
	ID      int64  `db:"id"`
	Purpose int    `db:"purpose"`
	Name    string `db:"name"`
}

type statusRow struct {
	KarmaID      int64         `db:"karma_id"`
	ClosedWith   sql.NullInt64 `db:"closed_with"`
	CurrentState string        `db:"current_state"`
	Timestamp    int64         `db:"timestamp"`
}

// InsertKarma добавляет очко кармы и возвращает его с назначенным id.
// Занятое имя даёт storage.ErrDuplicate.
func (r *Repository) InsertKarma(ctx context.Context, point KarmaPoint) (KarmaPoint, error) {
	query := r.db.Rebind(`INSERT INTO karma (purpose, name) VALUES (?, ?) RETURNING id`)

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, point.Purpose.Code(), point.Name).Scan(&id); err != nil {
		return KarmaPoint{}, storage.Wrap("insert karma", err)
	}
	point.ID = id
	return point, nil
}

// GetKarmaByName возвращает очко кармы по уникальному имени.
// Если не найдено — storage.ErrNotFound.
func (r *Repository) GetKarmaByName(ctx context.Context, name string) (KarmaPoint, error) {
	query := r.db.Rebind(`SELECT id, purpose, name FROM karma WHERE name = ?`)

	var row pointRow
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		return KarmaPoint{}, storage.Wrap("get karma", err)
	}

	purpose, err := KarmaTypeFromCode(row.Purpose)
	if err != nil {
		return KarmaPoint{}, storage.Decode("get karma", err)
	}
	return KarmaPoint{ID: row.ID, Purpose: purpose, Name: row.Name}, nil
}

// InsertStatus добавляет запись в историю состояний.
// Существование karma_id проверяет внешний ключ хранилища (storage.ErrForeignKey).
func (r *Repository) InsertStatus(ctx context.Context, status KarmaStatus) (KarmaStatus, error) {
	query := r.db.Rebind(`
		INSERT INTO karma_status (karma_id, closed_with, current_state, timestamp)
		VALUES (?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		status.KarmaID, status.ClosedWith.Code(), status.State.String(), status.Timestamp,
	)
	if err != nil {
		return KarmaStatus{}, storage.Wrap("insert karma status", err)
	}
	return status, nil
}

// GetStatus находит очко по имени и возвращает его последнее состояние
// (по timestamp, при равенстве — последнее вставленное).
func (r *Repository) GetStatus(ctx context.Context, point KarmaPoint) (KarmaStatus, error) {
	canonical, err := r.GetKarmaByName(ctx, point.Name)
	if err != nil {
		return KarmaStatus{}, err
	}

	query := r.db.Rebind(`
		SELECT karma_id, closed_with, current_state, timestamp
		FROM karma_status
		WHERE karma_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`)
	var row statusRow
	if err := r.db.GetContext(ctx, &row, query, canonical.ID); err != nil {
		return KarmaStatus{}, storage.Wrap("get karma status", err)
	}
	return row.decode()
}

func (row statusRow) decode() (KarmaStatus, error) {
	state := StateFromString(row.CurrentState)
	if !row.ClosedWith.Valid || row.ClosedWith.Int64 == 0 {
		return NewKarmaStatus(row.KarmaID, state, row.Timestamp), nil
	}

	closedWith, err := KarmaTypeFromCode(int(row.ClosedWith.Int64))
	if err != nil {
		return KarmaStatus{}, storage.Decode("get karma status", err)
	}
	return WithClosedReason(row.KarmaID, state, row.Timestamp, closedWith), nil
}
