package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/karma-tracker/internal/api"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommandsLists(t *testing.T) {
	t.Setenv("KARMA_DB_URL", filepath.Join(t.TempDir(), "unused.sqlite"))

	out, err := run(t, "commands")
	require.NoError(t, err)

	names := strings.Fields(out)
	assert.Contains(t, names, "create_karma")
	assert.Contains(t, names, "get_karma_status")
	assert.Contains(t, names, "register_user")
}

func TestInvokeUnknownCommand(t *testing.T) {
	t.Setenv("KARMA_DB_URL", filepath.Join(t.TempDir(), "unused.sqlite"))

	out, err := run(t, "invoke", "drop_tables")
	require.Error(t, err)

	var resp struct {
		OK    bool            `json:"ok"`
		Error json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.OK)
	assert.JSONEq(t, `{"kind":"unknown_command","value":"drop_tables","message":"неизвестная команда \"drop_tables\""}`, string(resp.Error))
}

func TestInvokeRejectsBadPurpose(t *testing.T) {
	t.Setenv("KARMA_DB_URL", filepath.Join(t.TempDir(), "unused.sqlite"))

	out, err := run(t, "invoke", "create_karma", `{"name":"x","purpose":"sport"}`)
	require.Error(t, err)

	var resp api.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, api.KindInvalidKarmaType, resp.Error.Kind)
}

func TestConfigErrorStopsCommand(t *testing.T) {
	t.Setenv("KARMA_DB_MAX_CONNS", "0")

	_, err := run(t, "commands")
	assert.Error(t, err)
}
