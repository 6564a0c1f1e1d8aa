// Package accounts — repository.go выполняет операции с таблицей users.
package accounts

import (
	"context"

	"github.com/jmoiron/sqlx"

	"serotonyl.ru/karma-tracker/internal/storage"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type userRow struct {
	Username string `db:"username"`
	Password string `db:"password"`
}

// InsertUser записывает имя и хеш пароля. Занятое имя даёт storage.ErrDuplicate.
func (r *Repository) InsertUser(ctx context.Context, user User) (User, error) {
	query := r.db.Rebind(`INSERT INTO users (username, password) VALUES (?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, user.Username.String(), user.Password.Hash()); err != nil {
		return User{}, storage.Wrap("insert user", err)
	}
	return user, nil
}

// GetUser читает пользователя по имени. Имя из БД проверяется теми же правилами,
// что и при создании: если оно им уже не соответствует — storage.ErrDecode.
func (r *Repository) GetUser(ctx context.Context, username string) (User, error) {
	query := r.db.Rebind(`SELECT username, password FROM users WHERE username = ?`)

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, username); err != nil {
		return User{}, storage.Wrap("get user", err)
	}

	name, err := NewUsername(row.Username)
	if err != nil {
		return User{}, storage.Decode("get user", err)
	}
	return User{Username: name, Password: PasswordFromHash(row.Password)}, nil
}
