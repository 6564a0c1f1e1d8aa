// Package accounts хранит учётные записи владельца приложения.
// models.go описывает проверенные имя пользователя и пароль.
package accounts

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"serotonyl.ru/karma-tracker/internal/common"
)

const (
	minUsernameLength = 6
	minPasswordLength = 8

	// specialChars — допустимые спецсимволы пароля
	specialChars = "!@#$%^&*().,:; "
)

// Username — имя пользователя, прошедшее проверку.
type Username struct {
	value string
}

// NewUsername проверяет имя: не короче 6 символов, первая буква строчная.
func NewUsername(raw string) (Username, error) {
	if utf8.RuneCountInString(raw) < minUsernameLength {
		return Username{}, common.ErrUsernameSize
	}
	first, _ := utf8.DecodeRuneInString(raw)
	if !unicode.IsLower(first) {
		return Username{}, common.ErrUsernameFirstChar
	}
	return Username{value: raw}, nil
}

func (u Username) String() string {
	return u.value
}

// Password хранит только bcrypt-хеш. Открытый текст после создания не сохраняется.
type Password struct {
	hash string
}

// NewPassword проверяет пароль и хеширует его.
// Порядок проверок: длина, цифра, спецсимвол, заглавная буква.
func NewPassword(raw string) (Password, error) {
	if err := validatePassword(raw); err != nil {
		return Password{}, err
	}
	hash, err := bcrypt.GenerateFromPassword(prehash(raw), bcrypt.DefaultCost)
	if err != nil {
		return Password{}, err
	}
	return Password{hash: string(hash)}, nil
}

// PasswordFromHash восстанавливает пароль из хранилища без повторного хеширования.
func PasswordFromHash(hash string) Password {
	return Password{hash: hash}
}

// Hash — хеш для записи в БД.
func (p Password) Hash() string {
	return p.hash
}

// Verify сравнивает открытый текст с хешем.
func (p Password) Verify(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.hash), prehash(plain)) == nil
}

// prehash сводит пароль любой длины к 44 байтам: bcrypt не принимает больше 72.
func prehash(raw string) []byte {
	sum := sha256.Sum256([]byte(raw))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// String никогда не раскрывает хеш.
func (p Password) String() string {
	return "********"
}

func validatePassword(raw string) error {
	if utf8.RuneCountInString(raw) < minPasswordLength {
		return common.ErrPasswordSize
	}
	if !strings.ContainsFunc(raw, isASCIIDigit) {
		return common.ErrPasswordNoDigit
	}
	if !strings.ContainsAny(raw, specialChars) {
		return common.ErrPasswordNoSpecialChar
	}
	if !strings.ContainsFunc(raw, unicode.IsUpper) {
		return common.ErrPasswordNoUppercase
	}
	return nil
}

// isASCIIDigit — только 0–9; цифры других алфавитов не считаются.
func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// User — учётная запись.
type User struct {
	Username Username
	Password Password
}

// NewUser проверяет имя и пароль и хеширует пароль.
func NewUser(username, password string) (User, error) {
	name, err := NewUsername(username)
	if err != nil {
		return User{}, err
	}
	pass, err := NewPassword(password)
	if err != nil {
		return User{}, err
	}
	return User{Username: name, Password: pass}, nil
}

// Profile — то, что можно отдать GUI. Хеша пароля здесь нет.
type Profile struct {
	Username string `json:"username"`
}

// Profile возвращает публичное представление пользователя.
func (u User) Profile() Profile {
	return Profile{Username: u.Username.String()}
}
