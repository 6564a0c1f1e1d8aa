// Package storage — errors.go классифицирует ошибки драйверов БД.
// Репозитории оборачивают любую ошибку драйвера в *Error с одним из
// видов ниже, чтобы верхние слои различали ситуации через errors.Is.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Виды ошибок хранилища
var (
	// ErrOpenConnection — хранилище не удалось создать, открыть или мигрировать
	ErrOpenConnection = errors.New("не удалось открыть соединение с БД")
	// ErrNotFound — запрос одной строки не вернул ни одной
	ErrNotFound = errors.New("запись не найдена")
	// ErrDuplicate — нарушено ограничение уникальности
	ErrDuplicate = errors.New("запись уже существует")
	// ErrForeignKey — ссылка на несуществующую запись
	ErrForeignKey = errors.New("нарушен внешний ключ")
	// ErrConstraint — прочие нарушения ограничений
	ErrConstraint = errors.New("нарушено ограничение схемы")
	// ErrDecode — строку не удалось превратить в доменный объект
	ErrDecode = errors.New("не удалось разобрать строку БД")
	// ErrQuery — любая другая ошибка запроса или соединения
	ErrQuery = errors.New("ошибка запроса к БД")
)

// Error — ошибка хранилища: операция, вид и исходная причина.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap отдаёт и вид, и причину: errors.Is работает для обоих.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// MarshalJSON никогда не выдаёт причину наружу: только факт внешней ошибки.
func (e *Error) MarshalJSON() ([]byte, error) {
	return []byte(`{"kind":"external"}`), nil
}

// Wrap классифицирует ошибку драйвера и оборачивает её в *Error.
// Уже обёрнутые ошибки возвращаются как есть.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Kind: kindOf(err), Err: err}
}

// Decode создаёт ошибку разбора строки.
func Decode(op string, err error) error {
	return &Error{Op: op, Kind: ErrDecode, Err: err}
}

func kindOf(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return sqliteKind(liteErr)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return ErrDuplicate
		case pgErr.Code == "23503":
			return ErrForeignKey
		case strings.HasPrefix(pgErr.Code, "23"):
			return ErrConstraint
		}
	}
	return ErrQuery
}

func sqliteKind(err *sqlite.Error) error {
	switch err.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return ErrDuplicate
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ErrForeignKey
	}
	if err.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return ErrQuery
	}
	// без расширенных кодов остаётся только текст сообщения
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrDuplicate
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrForeignKey
	}
	return ErrConstraint
}
