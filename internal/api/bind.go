// Package api — bind.go разбирает и проверяет аргументы команд.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// argsValidate проверяет структуры аргументов по тегам validate.
// В сообщениях используются JSON-имена полей.
var argsValidate *validator.Validate

func init() {
	argsValidate = validator.New(validator.WithRequiredStructEnabled())
	argsValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Bind декодирует JSON-аргументы в dst и проверяет их.
// Пустые аргументы считаются пустым объектом.
func Bind(args json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return malformed(err)
	}

	err := argsValidate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Invalid(KindInvalidArguments, "", err)
	}

	fields := make([]string, 0, len(fieldErrs))
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
		problems = append(problems, fmt.Sprintf("поле %s не прошло проверку %s", fe.Field(), fe.Tag()))
	}
	return Invalid(KindInvalidArguments, strings.Join(fields, ","), errors.New(strings.Join(problems, "; ")))
}

// malformed описывает ошибку декодирования без подробностей encoding/json:
// наружу уходит только JSON-имя поля, если оно известно. Исходная ошибка
// остаётся в Err для логов.
func malformed(err error) *Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &Error{
			Kind:     KindInvalidArguments,
			Value:    typeErr.Field,
			Message:  fmt.Sprintf("некорректное значение поля %s", typeErr.Field),
			Err:      err,
			hasValue: true,
		}
	}
	return &Error{Kind: KindInvalidArguments, Message: "некорректные аргументы", Err: err}
}
