package accounts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/karma-tracker/internal/common"
)

func TestNewUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"валидное", "johnny", nil},
		{"кириллица", "владимир", nil},
		{"короткое", "john", common.ErrUsernameSize},
		{"пять символов", "abcde", common.ErrUsernameSize},
		{"пустое", "", common.ErrUsernameSize},
		{"заглавная", "Johnny", common.ErrUsernameFirstChar},
		{"цифра", "1johnny", common.ErrUsernameFirstChar},
		{"подчёркивание", "_johnny", common.ErrUsernameFirstChar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUsername(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, u.String())
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"валидный", "Passw0rd!", nil},
		{"пробел как спецсимвол", "Pass w0rd", nil},
		{"короткий", "Pa0!", common.ErrPasswordSize},
		{"короткий без всего", "abc", common.ErrPasswordSize},
		{"без цифры", "Password!", common.ErrPasswordNoDigit},
		{"без спецсимвола", "Passw0rds", common.ErrPasswordNoSpecialChar},
		{"без заглавной", "passw0rd!", common.ErrPasswordNoUppercase},
		// порядок проверок: цифра раньше спецсимвола и заглавной
		{"ничего кроме длины", "password", common.ErrPasswordNoDigit},
		{"арабо-индийская цифра", "Passw٣rd!", common.ErrPasswordNoDigit},
		{"длиннее 72 байт", "Passw0rd!" + strings.Repeat("a", 80), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePassword(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewPassword_HashesAndVerifies(t *testing.T) {
	p, err := NewPassword("Passw0rd!")
	require.NoError(t, err)

	assert.NotEqual(t, "Passw0rd!", p.Hash())
	assert.NotContains(t, p.String(), p.Hash())
	assert.True(t, p.Verify("Passw0rd!"))
	assert.False(t, p.Verify("Passw0rd?"))

	// соль случайная: два хеша одного пароля различаются
	other, err := NewPassword("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, p.Hash(), other.Hash())
}

func TestPasswordFromHash_NeverRehashes(t *testing.T) {
	p, err := NewPassword("Secr3t.pass")
	require.NoError(t, err)

	restored := PasswordFromHash(p.Hash())
	assert.Equal(t, p.Hash(), restored.Hash())
	assert.True(t, restored.Verify("Secr3t.pass"))
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("johnny", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, Profile{Username: "johnny"}, u.Profile())

	_, err = NewUser("Johnny", "Passw0rd!")
	assert.ErrorIs(t, err, common.ErrUsernameFirstChar)

	_, err = NewUser("johnny", "weak")
	assert.ErrorIs(t, err, common.ErrPasswordSize)
}

func TestNewPassword_LongerThanBcryptLimit(t *testing.T) {
	raw := "Passw0rd!" + strings.Repeat("a", 80)

	p, err := NewPassword(raw)
	require.NoError(t, err)
	assert.True(t, p.Verify(raw))
	// отличие после 72-го байта тоже важно
	assert.False(t, p.Verify("Passw0rd!"+strings.Repeat("a", 79)+"b"))
}
