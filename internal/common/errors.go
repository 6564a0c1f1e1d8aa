// Package common — errors.go определяет ошибки валидации, которые используются
// во всех модулях. Они позволяют обработчикам команд различать типы проблем
// и отдавать GUI понятный вид ошибки ещё до обращения к хранилищу.
package common

import (
	"errors"
	"fmt"
)

// Ошибки кармы
var (
	// ErrKarmaNameEmpty — у очка кармы пустое имя
	ErrKarmaNameEmpty = errors.New("имя очка кармы не может быть пустым")
	// ErrKarmaAlreadyPersisted — очко уже сохранено и имеет идентификатор
	ErrKarmaAlreadyPersisted = errors.New("очко кармы уже сохранено")
	// ErrKarmaPurposeInvalid — назначение вне Work…Sleeping
	ErrKarmaPurposeInvalid = errors.New("некорректное назначение очка кармы")
	// ErrKarmaStatusInvalid — запись состояния без очка или с неизвестным состоянием
	ErrKarmaStatusInvalid = errors.New("некорректная запись состояния кармы")
)

// Ошибки имени пользователя
var (
	// ErrUsernameSize — имя короче минимума
	ErrUsernameSize = errors.New("имя пользователя должно быть не короче 6 символов")
	// ErrUsernameFirstChar — имя начинается не со строчной буквы
	ErrUsernameFirstChar = errors.New("имя пользователя должно начинаться со строчной буквы")
)

// Ошибки пароля
var (
	// ErrPasswordSize — пароль короче минимума
	ErrPasswordSize = errors.New("пароль должен быть не короче 8 символов")
	// ErrPasswordNoDigit — в пароле нет цифры
	ErrPasswordNoDigit = errors.New("пароль должен содержать хотя бы 1 цифру")
	// ErrPasswordNoSpecialChar — в пароле нет спецсимвола
	ErrPasswordNoSpecialChar = errors.New("пароль должен содержать хотя бы 1 спецсимвол")
	// ErrPasswordNoUppercase — в пароле нет заглавной буквы
	ErrPasswordNoUppercase = errors.New("пароль должен содержать хотя бы 1 заглавную букву")
)

// ServiceError — любая ошибка хранилища, поднятая на уровень сервиса.
// Вид один — "storage"; подробности доступны через errors.Is/As по цепочке.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("хранилище не выполнило %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// MarshalJSON сообщает только вид ошибки; причина всегда внешняя.
func (e *ServiceError) MarshalJSON() ([]byte, error) {
	return []byte(`{"kind":"storage","cause":{"kind":"external"}}`), nil
}
