package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
telegram:
  token: "123:abc"
  admin_id: 42
  run_mode: longpoll
channel:
  id: "-1001234567890"
  name: "@devsque"
  subscribe_url: "https://youtube.com/@devsque"
store:
  driver: sqlite
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "devsque", cfg.Channel.Name)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, defaultSQLitePath, cfg.Store.SQLitePath)
	assert.Equal(t, defaultIdleTimeout, cfg.Session.Timeout())
	assert.Equal(t, defaultSweepSchedule, cfg.Session.SweepSchedule)
	assert.Equal(t, int64(42), cfg.CoreConfig().Telegram.AdminID)
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("CHANNEL_ID", "@otherchannel")
	t.Setenv("CHANNEL_NAME", "")
	t.Setenv("SESSION_IDLE_TIMEOUT", "0s")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "@otherchannel", cfg.Channel.ID)
	assert.Equal(t, "otherchannel", cfg.Channel.Name)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, time.Duration(0), cfg.Session.Timeout())
}

func TestLoadIdleTimeoutFromYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML+"session:\n  idle_timeout: 5m\n"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Session.Timeout())
}

func TestNormalizeErrors(t *testing.T) {
	cases := map[string]string{
		"missing channel": `
telegram: {token: "1:a", admin_id: 1, run_mode: longpoll}
channel: {subscribe_url: "https://x.y"}
store: {driver: memory}
`,
		"numeric channel without name": `
telegram: {token: "1:a", admin_id: 1, run_mode: longpoll}
channel: {id: "-100", subscribe_url: "https://x.y"}
store: {driver: memory}
`,
		"relative subscribe url": `
telegram: {token: "1:a", admin_id: 1, run_mode: longpoll}
channel: {id: "@c", subscribe_url: "youtube"}
store: {driver: memory}
`,
		"unknown driver": `
telegram: {token: "1:a", admin_id: 1, run_mode: longpoll}
channel: {id: "@c", subscribe_url: "https://x.y"}
store: {driver: mongo}
`,
		"postgres without host": `
telegram: {token: "1:a", admin_id: 1, run_mode: longpoll}
channel: {id: "@c", subscribe_url: "https://x.y"}
`,
		"bad schedule": `
telegram: {token: "1:a", admin_id: 1, run_mode: longpoll}
channel: {id: "@c", subscribe_url: "https://x.y"}
store: {driver: memory}
session: {sweep_schedule: "whenever"}
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestPostgresDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram: {token: "1:a", admin_id: 1, run_mode: longpoll}
channel: {id: "@c", subscribe_url: "https://x.y"}
database: {host: db, name: codegate, user: app}
`))
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}
