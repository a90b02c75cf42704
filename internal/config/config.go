package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/frontendtony/curfew/internal/schedule"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override config file values,
// e.g. CURFEW_SCHEDULE_END=23:00 or CURFEW_NOTIFY_WEBHOOK_URL=...
const EnvPrefix = "CURFEW_"

// PathEnvVar overrides the config file location.
const PathEnvVar = "CURFEW_CONFIG"

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "curfew", "config.yaml")
}

// Load reads defaults, then the YAML file at path, then CURFEW_* environment
// variables, later layers winning. A missing or malformed file is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	expandPaths(&cfg)
	return &cfg, nil
}

// envKey maps CURFEW_SECTION_SOME_KEY to section.some_key. The first
// underscore after the prefix separates the section from the key.
func envKey(name string) string {
	if name == PathEnvVar {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" {
		return ""
	}
	return section + "." + rest
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
			_, err := schedule.ParseTimeOfDay(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks field values and cross-field rules. It returns all
// validation errors, not just the first.
func Validate(cfg *Config) error {
	var errs []string

	if err := validatorInstance().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describe(fe))
		}
	}

	if cfg.Schedule.Start != "" && cfg.Schedule.Start == cfg.Schedule.End && !cfg.Schedule.AlwaysOn {
		errs = append(errs, fmt.Sprintf(
			"schedule.start and schedule.end are both %s; set schedule.always_on to run continuously",
			cfg.Schedule.Start))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "timeofday":
		return fmt.Sprintf("%s: invalid time %q, want HH:MM", field, fe.Value())
	case "http_url":
		return fmt.Sprintf("%s: %q is not an http(s) URL", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of [%s]", field, fe.Value(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be positive", field)
	case "hostname_port":
		return fmt.Sprintf("%s: %q must be host:port", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Window converts the validated schedule section.
func (c *Config) Window() (schedule.Window, error) {
	if c.Schedule.AlwaysOn {
		return schedule.Window{AlwaysOn: true}, nil
	}
	start, err := schedule.ParseTimeOfDay(c.Schedule.Start)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("schedule.start: %w", err)
	}
	end, err := schedule.ParseTimeOfDay(c.Schedule.End)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("schedule.end: %w", err)
	}
	return schedule.Window{Start: start, End: end}, nil
}

// GenerateExample returns a commented example config YAML string.
func GenerateExample() string {
	return `# curfew configuration
# Keeps a game server running inside a daily time window.

server:
  # Launch target, run through "sh -c". Its stdin is the server console.
  command: "java -Xmx4G -jar server.jar nogui"
  working_dir: "~/minecraft"
  # Console command that shuts the server down cleanly.
  stop_command: "stop"
  # Console command used for countdown announcements.
  announce_command: "say"
  # How long to wait for a clean exit before terminating the process.
  stop_timeout: 2m
  kill_grace: 10s

schedule:
  # HH:MM local time. An end earlier than start spans midnight.
  start: "08:00"
  end: "22:00"
  always_on: false

notify:
  # Discord-compatible webhook. Leave empty to disable notifications.
  webhook_url: ""
  username: "curfew"
  timeout: 5s

log:
  level: info
  format: console

status:
  # Serves /metrics, /status and /healthz when set.
  listen: ""
`
}

func expandPaths(cfg *Config) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	cfg.Server.WorkingDir = os.ExpandEnv(expandTilde(cfg.Server.WorkingDir, home))
	for k, v := range cfg.Server.Env {
		cfg.Server.Env[k] = os.ExpandEnv(expandTilde(v, home))
	}
}

func expandTilde(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
