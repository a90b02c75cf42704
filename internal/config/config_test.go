package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frontendtony/curfew/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Server.Command = "./run.sh"
	cfg.Schedule.Start = "08:00"
	cfg.Schedule.End = "22:00"
	return &cfg
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./run.sh", cfg.Server.Command)
	assert.Equal(t, "/srv/minecraft", cfg.Server.WorkingDir)
	assert.Equal(t, "-Xmx2G", cfg.Server.Env["JAVA_OPTS"])
	assert.Equal(t, 90*time.Second, cfg.Server.StopTimeout.Duration())
	assert.Equal(t, "22:00", cfg.Schedule.Start)
	assert.Equal(t, "08:00", cfg.Schedule.End)
	assert.Equal(t, "https://discord.example.com/api/webhooks/1/abc", cfg.Notify.WebhookURL)
	assert.Equal(t, "127.0.0.1:9464", cfg.Status.Listen)

	// Defaults survive for keys the file leaves out.
	assert.Equal(t, "stop", cfg.Server.StopCommand)
	assert.Equal(t, "say", cfg.Server.AnnounceCommand)
	assert.Equal(t, 10*time.Second, cfg.Server.KillGrace.Duration())
	assert.Equal(t, 5*time.Second, cfg.Notify.Timeout.Duration())
	assert.Equal(t, "info", cfg.Log.Level)

	require.NoError(t, Validate(cfg))
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "{{not yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  stop_timeout: soon\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decoding config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CURFEW_SCHEDULE_END", "23:30")
	t.Setenv("CURFEW_SERVER_STOP_TIMEOUT", "45s")
	t.Setenv("CURFEW_SCHEDULE_ALWAYS_ON", "true")
	t.Setenv("CURFEW_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "23:30", cfg.Schedule.End)
	assert.Equal(t, 45*time.Second, cfg.Server.StopTimeout.Duration())
	assert.True(t, cfg.Schedule.AlwaysOn)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "22:00", cfg.Schedule.Start)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "schedule.start", envKey("CURFEW_SCHEDULE_START"))
	assert.Equal(t, "server.stop_timeout", envKey("CURFEW_SERVER_STOP_TIMEOUT"))
	assert.Equal(t, "notify.webhook_url", envKey("CURFEW_NOTIFY_WEBHOOK_URL"))
	assert.Equal(t, "", envKey("CURFEW_CONFIG"))
	assert.Equal(t, "", envKey("CURFEW_VERBOSE"))
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_MissingCommand(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Command = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.command is required")
}

func TestValidate_InvalidTimes(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.Start = "25:00"
	cfg.Schedule.End = "noon"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schedule.start: invalid time "25:00"`)
	assert.Contains(t, err.Error(), `schedule.end: invalid time "noon"`)
}

func TestValidate_EqualTimesNeedAlwaysOn(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.End = cfg.Schedule.Start

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "always_on")

	cfg.Schedule.AlwaysOn = true
	assert.NoError(t, Validate(cfg))
}

func TestValidate_AlwaysOnWithoutTimes(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.Start = ""
	cfg.Schedule.End = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule.start is required")
	assert.Contains(t, err.Error(), "schedule.end is required")

	cfg.Schedule.AlwaysOn = true
	require.NoError(t, Validate(cfg))
	w, err := cfg.Window()
	require.NoError(t, err)
	assert.True(t, w.AlwaysOn)

	// a value that is set must still parse
	cfg.Schedule.Start = "noon"
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schedule.start: invalid time "noon"`)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.WebhookURL = "ftp://example.com/hook"
	cfg.Log.Format = "xml"
	cfg.Server.StopTimeout = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify.webhook_url")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "server.stop_timeout must be positive")
}

func TestWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.Start = "22:00"
	cfg.Schedule.End = "08:00"

	w, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, schedule.MustParseTimeOfDay("22:00"), w.Start)
	assert.True(t, w.Overnight())

	cfg.Schedule.AlwaysOn = true
	w, err = cfg.Window()
	require.NoError(t, err)
	assert.True(t, w.AlwaysOn)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
	}{
		{"2s", 2 * time.Second},
		{"500ms", 500 * time.Millisecond},
		{"1m30s", 90 * time.Second},
	}

	for _, tt := range tests {
		var d Duration
		require.NoError(t, d.UnmarshalText([]byte(tt.input)))
		assert.Equal(t, tt.expected, d.Duration(), "for input %q", tt.input)
	}

	var d Duration
	err := d.UnmarshalText([]byte("abc"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestExpandTilde(t *testing.T) {
	home := "/home/testuser"

	assert.Equal(t, home, expandTilde("~", home))
	assert.Equal(t, filepath.Join(home, "minecraft"), expandTilde("~/minecraft", home))
	assert.Equal(t, "/absolute/path", expandTilde("/absolute/path", home))
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	path := DefaultConfigPath()
	assert.Contains(t, path, "curfew")
	assert.Contains(t, path, "config.yaml")

	t.Setenv(PathEnvVar, "/etc/curfew.yaml")
	assert.Equal(t, "/etc/curfew.yaml", DefaultConfigPath())
}

func TestGenerateExample_LoadsAndValidates(t *testing.T) {
	cfg, err := Load(writeConfig(t, GenerateExample()))
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))
	assert.Equal(t, "08:00", cfg.Schedule.Start)
}
