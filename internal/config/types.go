package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so config files can say "2m" or "500ms".
// It decodes through encoding.TextUnmarshaler, which koanf's decoder
// understands, and encodes back to the same form for YAML output.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

type Config struct {
	Server   Server   `koanf:"server" yaml:"server"`
	Schedule Schedule `koanf:"schedule" yaml:"schedule"`
	Notify   Notify   `koanf:"notify" yaml:"notify"`
	Log      Log      `koanf:"log" yaml:"log"`
	Status   Status   `koanf:"status" yaml:"status"`
}

// Server describes the supervised process and how to talk to its console.
type Server struct {
	Command         string            `koanf:"command" yaml:"command" validate:"required"`
	WorkingDir      string            `koanf:"working_dir" yaml:"working_dir,omitempty"`
	Env             map[string]string `koanf:"env" yaml:"env,omitempty"`
	StopCommand     string            `koanf:"stop_command" yaml:"stop_command" validate:"required"`
	AnnounceCommand string            `koanf:"announce_command" yaml:"announce_command"`
	StopTimeout     Duration          `koanf:"stop_timeout" yaml:"stop_timeout" validate:"gt=0"`
	KillGrace       Duration          `koanf:"kill_grace" yaml:"kill_grace" validate:"gt=0"`
}

type Schedule struct {
	Start string `koanf:"start" yaml:"start" validate:"required_unless=AlwaysOn true,omitempty,timeofday"`
	End   string `koanf:"end" yaml:"end" validate:"required_unless=AlwaysOn true,omitempty,timeofday"`

	// AlwaysOn keeps the window open around the clock; Start and End may
	// then be left empty.
	AlwaysOn bool `koanf:"always_on" yaml:"always_on"`
}

type Notify struct {
	WebhookURL string   `koanf:"webhook_url" yaml:"webhook_url,omitempty" validate:"omitempty,http_url"`
	Username   string   `koanf:"username" yaml:"username"`
	Timeout    Duration `koanf:"timeout" yaml:"timeout" validate:"gt=0"`
}

type Log struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=console json"`
}

// Status configures the read-only metrics and status endpoint.
type Status struct {
	Listen string `koanf:"listen" yaml:"listen,omitempty" validate:"omitempty,hostname_port"`
}

func Defaults() Config {
	return Config{
		Server: Server{
			StopCommand:     "stop",
			AnnounceCommand: "say",
			StopTimeout:     Duration(2 * time.Minute),
			KillGrace:       Duration(10 * time.Second),
		},
		Notify: Notify{
			Username: "curfew",
			Timeout:  Duration(5 * time.Second),
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}
