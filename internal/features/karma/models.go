// Package karma реализует учёт очков кармы: единиц усилия с назначением
// (работа, общение, спорт, учёба, сон) и историей состояний.
// models.go описывает доменные типы и их преобразования.
package karma

import (
	"fmt"
	"strings"
)

// KarmaType — назначение очка кармы. Во внешнем и хранимом виде — число 1–5.
type KarmaType int

const (
	// NoKarmaType — «отсутствует», в closed_with хранится как 0
	NoKarmaType KarmaType = 0

	Work     KarmaType = 1
	Social   KarmaType = 2
	Sport    KarmaType = 3
	Learning KarmaType = 4
	Sleeping KarmaType = 5
)

// InvalidNumericKarmaTypeError — число вне диапазона 1–5.
type InvalidNumericKarmaTypeError struct {
	Value int
}

func (e *InvalidNumericKarmaTypeError) Error() string {
	return fmt.Sprintf("не удалось преобразовать %d в тип кармы", e.Value)
}

// InvalidKarmaTypeError — неподдерживаемая текстовая метка назначения.
type InvalidKarmaTypeError struct {
	Label string
}

func (e *InvalidKarmaTypeError) Error() string {
	return fmt.Sprintf("не удалось преобразовать %q в тип кармы", e.Label)
}

// UnsupportedStatusError — строка не является состоянием.
type UnsupportedStatusError struct {
	Value string
}

func (e *UnsupportedStatusError) Error() string {
	return fmt.Sprintf("не удалось преобразовать %q в состояние", e.Value)
}

// KarmaTypeFromCode декодирует числовой код назначения.
func KarmaTypeFromCode(code int) (KarmaType, error) {
	switch t := KarmaType(code); t {
	case Work, Social, Sport, Learning, Sleeping:
		return t, nil
	}
	return NoKarmaType, &InvalidNumericKarmaTypeError{Value: code}
}

// purposeLabels — поддерживаемые текстовые метки. Пока только "work".
var purposeLabels = map[string]KarmaType{
	"work": Work,
}

// ParsePurpose разбирает текстовую метку назначения. Строка сравнивается как есть.
func ParsePurpose(label string) (KarmaType, error) {
	if t, ok := purposeLabels[label]; ok {
		return t, nil
	}
	return NoKarmaType, &InvalidKarmaTypeError{Label: label}
}

// Code возвращает числовой код для хранения.
func (t KarmaType) Code() int {
	return int(t)
}

// Valid — true для Work…Sleeping.
func (t KarmaType) Valid() bool {
	return t >= Work && t <= Sleeping
}

func (t KarmaType) String() string {
	switch t {
	case Work:
		return "work"
	case Social:
		return "social"
	case Sport:
		return "sport"
	case Learning:
		return "learning"
	case Sleeping:
		return "sleeping"
	case NoKarmaType:
		return "none"
	}
	return fmt.Sprintf("KarmaType(%d)", int(t))
}

// KarmaPoint — именованное очко кармы.
// ID равен 0, пока точка не сохранена; после вставки не меняется.
type KarmaPoint struct {
	ID      int64     `json:"id,omitempty"`
	Purpose KarmaType `json:"purpose"`
	Name    string    `json:"name"`
}

// NewKarmaPoint создаёт ещё не сохранённое очко кармы.
func NewKarmaPoint(purpose KarmaType, name string) KarmaPoint {
	return KarmaPoint{Purpose: purpose, Name: name}
}

// Persisted сообщает, назначен ли хранилищем идентификатор.
func (p KarmaPoint) Persisted() bool {
	return p.ID != 0
}

// State — состояние очка кармы.
type State int

const (
	Active State = iota + 1
	Closed
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "closed"
}

// MarshalText кодирует состояние строкой в нижнем регистре.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateFromString — нестрогий разбор, как при чтении из БД:
// всё, кроме "active" без учёта регистра, считается Closed.
func StateFromString(value string) State {
	if strings.ToLower(value) == "active" {
		return Active
	}
	return Closed
}

// ParseState — строгий разбор для внешнего ввода.
func ParseState(value string) (State, error) {
	switch value {
	case "active":
		return Active, nil
	case "closed":
		return Closed, nil
	}
	return 0, &UnsupportedStatusError{Value: value}
}

// KarmaStatus — запись о состоянии очка кармы в момент времени.
// ClosedWith — назначение, с которым очко на самом деле закрыто (NoKarmaType, если нет).
type KarmaStatus struct {
	KarmaID    int64     `json:"karma_id"`
	State      State     `json:"state"`
	Timestamp  int64     `json:"timestamp"`
	ClosedWith KarmaType `json:"closed_with,omitempty"`
}

// NewKarmaStatus создаёт запись без причины закрытия.
func NewKarmaStatus(karmaID int64, state State, timestamp int64) KarmaStatus {
	return KarmaStatus{KarmaID: karmaID, State: state, Timestamp: timestamp}
}

// WithClosedReason создаёт запись с назначением, под которым очко закрыто.
func WithClosedReason(karmaID int64, state State, timestamp int64, closedWith KarmaType) KarmaStatus {
	return KarmaStatus{KarmaID: karmaID, State: state, Timestamp: timestamp, ClosedWith: closedWith}
}
