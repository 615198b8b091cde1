package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("TZ", "")
	t.Setenv("DATABASE_URL", "")
	p := write(t, `
bot_token: "123:abc"
db_path: /data/label.db
admin_ids: [100, 101]
timezone: UTC
form_ttl: 30m
schedule:
  overdue_every: 15m
  pitching_hour: 8
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, []int64{100, 101}, cfg.AdminIDs)
	assert.Equal(t, 30*time.Minute, cfg.FormTTL)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.OverdueEvery)
	assert.Equal(t, 8, cfg.Schedule.PitchingHour)
	assert.Equal(t, 10, cfg.Schedule.RemindersHour)
	assert.Equal(t, 3, cfg.Schedule.PitchingAlertDays)
	assert.Equal(t, "/data/label.db", cfg.DSN())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestEnvOverrides(t *testing.T) {
	p := write(t, "bot_token: file\ntimezone: UTC\n")
	t.Setenv("BOT_TOKEN", "env")
	t.Setenv("ADMIN_IDS", "7, 8;9")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/label")
	t.Setenv("YANDEX_DISK_TOKEN", "y0")
	t.Setenv("TZ", "Europe/Moscow")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "env", cfg.BotToken)
	assert.Equal(t, []int64{7, 8, 9}, cfg.AdminIDs)
	assert.Equal(t, "postgres://u:p@localhost/label", cfg.DSN())
	assert.Equal(t, "y0", cfg.YandexDisk.Token)
	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
}

func TestMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TZ", "UTC")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "label.db", cfg.DBPath)
	assert.Equal(t, "db", cfg.SessionStore)
}

func TestValidate(t *testing.T) {
	t.Setenv("TZ", "")
	_, err := Load(write(t, "session_store: redis\n"))
	assert.ErrorContains(t, err, "session_store")

	_, err = Load(write(t, "schedule:\n  smm_hour: 24\n"))
	assert.ErrorContains(t, err, "smm_hour")

	_, err = Load(write(t, "timezone: Mars/Olympus\n"))
	assert.ErrorContains(t, err, "timezone")

	t.Setenv("ADMIN_IDS", "boss")
	_, err = Load(write(t, ""))
	assert.ErrorContains(t, err, "ADMIN_IDS")
}
