// Package api — граница команд между GUI-оболочкой и бэкендом.
// errors.go определяет ошибку, которая пересекает эту границу.
// Наружу уходят только вид ошибки и, где это безопасно, отклонённый ввод;
// внутренние причины (ошибки драйверов и т.п.) заменяются на kind "external".
package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind — дискриминант ошибки для GUI.
type Kind string

const (
	KindInvalidArguments        Kind = "invalid_arguments"
	KindInvalidKarmaType        Kind = "invalid_karma_type"
	KindInvalidNumericKarmaType Kind = "invalid_numeric_karma_type"
	KindInvalidUsername         Kind = "invalid_username"
	KindInvalidPassword         Kind = "invalid_password"
	KindUnknownCommand          Kind = "unknown_command"

	KindDBCreation          Kind = "db_creation"
	KindKarmaCreationFailed Kind = "karma_creation_failed"
	KindKarmaExists         Kind = "karma_already_exists"
	KindKarmaNotFound       Kind = "karma_not_found"
	KindKarmaLookupFailed   Kind = "karma_lookup_failed"
	KindKarmaStatusFailed   Kind = "karma_status_failed"
	KindUserExists          Kind = "user_already_exists"
	KindUserNotFound        Kind = "user_not_found"
	KindUserFailed          Kind = "user_failed"

	KindExternal Kind = "external"
)

var externalJSON = json.RawMessage(`{"kind":"external"}`)

// Error — ошибка команды.
type Error struct {
	Kind Kind
	// Value — отклонённый ввод (метка, имя), только для безопасных видов
	Value string
	// Message — понятный текст ошибки валидации
	Message string
	// Err — внутренняя причина
	Err error

	hasValue bool
}

// Invalid — ошибка валидации ввода. Текст доменной ошибки уходит в Message.
func Invalid(kind Kind, value string, err error) *Error {
	e := &Error{Kind: kind, Value: value, Err: err, hasValue: true}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// Failed — сбой нижнего слоя. Причина сериализуется только если умеет это сама.
func Failed(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// FailedWith — сбой, связанный с конкретным вводом (например, имя уже занято).
func FailedWith(kind Kind, value string, err error) *Error {
	return &Error{Kind: kind, Value: value, Err: err, hasValue: true}
}

// External — причина, о которой наружу сообщается только сам факт.
func External(err error) *Error {
	return &Error{Kind: KindExternal, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type wireError struct {
	Kind    Kind            `json:"kind"`
	Value   *string         `json:"value,omitempty"`
	Message string          `json:"message,omitempty"`
	Cause   json.RawMessage `json:"cause,omitempty"`
}

// MarshalJSON сериализует ошибку без внутренних подробностей.
func (e *Error) MarshalJSON() ([]byte, error) {
	w := wireError{Kind: e.Kind, Message: e.Message}
	if e.hasValue {
		v := e.Value
		w.Value = &v
	}
	if e.Kind != KindExternal && e.Message == "" && e.Err != nil {
		w.Cause = causeJSON(e.Err)
	}
	return json.Marshal(w)
}

// causeJSON сериализует причину, если она сама это умеет, иначе — "external".
func causeJSON(err error) json.RawMessage {
	m, ok := err.(json.Marshaler)
	if !ok {
		return externalJSON
	}
	data, mErr := m.MarshalJSON()
	if mErr != nil || !json.Valid(data) {
		return externalJSON
	}
	return data
}

// asError приводит любую ошибку к *Error.
func asError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return External(err)
}
