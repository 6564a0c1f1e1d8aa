package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/karma-tracker/internal/api"
	"serotonyl.ru/karma-tracker/internal/common"
)

func newTestRouter(t *testing.T, provider ServiceProvider) *api.Router {
	t.Helper()
	r := api.NewRouter()
	NewHandler(provider).Register(r)
	return r
}

func invoke(t *testing.T, r *api.Router, cmd, args string) (any, *api.Error) {
	t.Helper()
	res, err := r.Invoke(context.Background(), cmd, json.RawMessage(args))
	if err == nil {
		return res, nil
	}
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	return res, apiErr
}

func TestHandler_RegisterAndGetUser(t *testing.T) {
	svc := NewService(newTestRepository(t))
	r := newTestRouter(t, func(context.Context) (*Service, error) { return svc, nil })

	res, apiErr := invoke(t, r, "register_user", `{"username":"johnny","password":"Passw0rd!"}`)
	require.Nil(t, apiErr)
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"johnny"}`, string(data))

	res, apiErr = invoke(t, r, "get_user", `{"username":"johnny"}`)
	require.Nil(t, apiErr)
	assert.Equal(t, Profile{Username: "johnny"}, res)

	_, apiErr = invoke(t, r, "register_user", `{"username":"johnny","password":"Passw0rd!"}`)
	require.NotNil(t, apiErr)
	assert.Equal(t, api.KindUserExists, apiErr.Kind)
	assert.Equal(t, "johnny", apiErr.Value)

	_, apiErr = invoke(t, r, "get_user", `{"username":"stranger"}`)
	require.NotNil(t, apiErr)
	assert.Equal(t, api.KindUserNotFound, apiErr.Kind)
}

func TestHandler_ValidationBeforeStore(t *testing.T) {
	calls := 0
	r := newTestRouter(t, func(context.Context) (*Service, error) {
		calls++
		return nil, errors.New("must not be called")
	})

	_, apiErr := invoke(t, r, "register_user", `{"username":"Johnny","password":"Passw0rd!"}`)
	require.NotNil(t, apiErr)
	assert.Equal(t, api.KindInvalidUsername, apiErr.Kind)
	assert.Equal(t, "Johnny", apiErr.Value)
	assert.ErrorIs(t, apiErr, common.ErrUsernameFirstChar)

	_, apiErr = invoke(t, r, "register_user", `{"username":"johnny","password":"password1!"}`)
	require.NotNil(t, apiErr)
	assert.Equal(t, api.KindInvalidPassword, apiErr.Kind)
	assert.ErrorIs(t, apiErr, common.ErrPasswordNoUppercase)

	// пароль не попадает в сериализованную ошибку
	data, err := json.Marshal(apiErr)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password1!")

	assert.Zero(t, calls)
}

func TestService_RegisterWrapsStorage(t *testing.T) {
	svc := NewService(newTestRepository(t))
	ctx := context.Background()

	_, err := svc.Register(ctx, "johnny", "Passw0rd!")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "johnny", "Passw0rd!")
	var svcErr *common.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "register", svcErr.Op)

	_, err = svc.Register(ctx, "jo", "Passw0rd!")
	assert.ErrorIs(t, err, common.ErrUsernameSize)
	assert.False(t, errors.As(err, &svcErr))
}

func TestHandler_RegisterLongPassword(t *testing.T) {
	repo := newTestRepository(t)
	svc := NewService(repo)
	r := newTestRouter(t, func(context.Context) (*Service, error) { return svc, nil })

	password := "Passw0rd!" + strings.Repeat("a", 80)
	args, err := json.Marshal(map[string]string{"username": "johnny", "password": password})
	require.NoError(t, err)

	res, apiErr := invoke(t, r, "register_user", string(args))
	require.Nil(t, apiErr)
	assert.Equal(t, Profile{Username: "johnny"}, res)

	user, err := repo.GetUser(context.Background(), "johnny")
	require.NoError(t, err)
	assert.True(t, user.Password.Verify(password))
}
