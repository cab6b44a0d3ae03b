package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "awards.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 8, cfg.Simulation.Workers)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
db:
  path: ./pay.db
log:
  format: console
scheduler:
  enabled: true
  interval: 15m
  period_type: fortnightly
  anchor: "2024-07-01"
seed:
  presets: [childrens-services, general-retail]
`)
	// GIVEN: The environment overrides the file
	t.Setenv("AWARD_SERVER_PORT", "9100")
	t.Setenv("AWARD_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "./pay.db", cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, []string{"childrens-services", "general-retail"}, cfg.Seed.Presets)

	pc, err := cfg.Scheduler.PeriodConfig()
	require.NoError(t, err)
	assert.Equal(t, award.PeriodFortnightly, pc.Type)
	assert.Equal(t, time.Monday, pc.WeekStart)
	assert.Equal(t, award.NewDate(2024, 7, 1), pc.Anchor)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port out of range", "server: {port: 70000}"},
		{"empty db path", `db: {path: ""}`},
		{"unknown log format", "log: {format: xml}"},
		{"no workers", "simulation: {workers: 0}"},
		{"bad period type", "scheduler: {enabled: true, period_type: daily}"},
		{"bad week start", "scheduler: {enabled: true, week_start: someday}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
