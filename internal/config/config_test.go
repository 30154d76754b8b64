package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLARITYCANVAS_CONFIG", filepath.Join(dir, "missing.toml"))
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", "")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Clarity Canvas", c.Session.AppName)
	require.Equal(t, "1234", c.Session.LockPIN)
	require.Equal(t, "offline", c.LLM.Provider)
	require.Equal(t, 60*time.Second, c.LLM.Timeout)
	require.Equal(t, 5<<20, c.Session.MaxBlobBytes)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, filepath.Join(dir, ".local", "share", "claritycanvas", "claritycanvas.db"), c.Database.Path)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[session]
app_name = "Mockups"
lock_pin = "4321"

[llm]
provider = "openai"
api_key_env = "MY_KEY"
timeout = "5s"
`), 0o644))
	t.Setenv("CLARITYCANVAS_CONFIG", path)
	t.Setenv("CLARITYCANVAS_SERVER_ADDR", "127.0.0.1:9999")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Mockups", c.Session.AppName)
	require.Equal(t, "4321", c.Session.LockPIN)
	require.Equal(t, "openai", c.LLM.Provider)
	require.Equal(t, "MY_KEY", c.LLM.APIKeyEnv)
	require.Equal(t, 5*time.Second, c.LLM.Timeout)
	require.Equal(t, "127.0.0.1:9999", c.Server.Addr)
}

func TestValidatePIN(t *testing.T) {
	for _, pin := range []string{"", "123", "12345", "12a4"} {
		c := Config{Session: SessionConfig{LockPIN: pin}}
		require.ErrorIs(t, c.Validate(), ErrInvalidPIN, pin)
	}
	require.NoError(t, Config{Session: SessionConfig{LockPIN: "0000"}}.Validate())
}

func TestEnsureProfileSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv("CLARITYCANVAS_CONFIG", path)

	c, err := Load()
	require.NoError(t, err)
	require.Empty(t, c.Session.Profile)

	created, err := EnsureProfile(&c)
	require.NoError(t, err)
	require.True(t, created)
	require.Len(t, c.Session.Profile, 36)

	again, err := Load()
	require.NoError(t, err)
	require.Equal(t, c.Session.Profile, again.Session.Profile)
	require.Equal(t, c.LLM.Timeout, again.LLM.Timeout)

	created, err = EnsureProfile(&again)
	require.NoError(t, err)
	require.False(t, created)
}

func TestEnsureProfileWritesOnlyProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[session]\napp_name = \"Mockups\"\n"), 0o644))
	t.Setenv("CLARITYCANVAS_CONFIG", path)
	t.Setenv("CLARITYCANVAS_LLM_API_KEY", "sk-from-env")
	t.Setenv("CLARITYCANVAS_SESSION_LOCK_PIN", "9876")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sk-from-env", c.LLM.APIKey)

	created, err := EnsureProfile(&c)
	require.NoError(t, err)
	require.True(t, created)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	require.Contains(t, text, c.Session.Profile)
	require.Contains(t, text, "Mockups")
	require.NotContains(t, text, "sk-from-env")
	require.NotContains(t, text, "9876")
	require.NotContains(t, text, "lock_pin")
}
