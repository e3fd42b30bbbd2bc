package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Environment variables that override file values.
const (
	EnvLogLevel  = "HOSTSNAP_LOG_LEVEL"
	EnvLogFormat = "HOSTSNAP_LOG_FORMAT"
	EnvTimeout   = "HOSTSNAP_TIMEOUT"
	EnvMaxOutput = "HOSTSNAP_MAX_OUTPUT"
	EnvOutput    = "HOSTSNAP_OUTPUT"
	EnvMaskIPs   = "HOSTSNAP_MASK_IPS"
)

// Config holds user-configurable defaults.
type Config struct {
	Log       LogConfig       `toml:"log" json:"log" yaml:"log"`
	Collector CollectorConfig `toml:"collector" json:"collector" yaml:"collector"`
	Output    OutputConfig    `toml:"output" json:"output" yaml:"output"`
}

type LogConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `toml:"format" json:"format" yaml:"format" validate:"oneof=console json"`
}

// CollectorConfig bounds every external command and pseudo-file read.
type CollectorConfig struct {
	CommandTimeout Duration `toml:"command_timeout" json:"command_timeout" yaml:"command_timeout"`
	MaxOutputBytes int64    `toml:"max_output_bytes" json:"max_output_bytes" yaml:"max_output_bytes" validate:"gt=0"`
}

type OutputConfig struct {
	Format  string `toml:"format" json:"format" yaml:"format" validate:"oneof=table json yaml"`
	MaskIPs bool   `toml:"mask_ips" json:"mask_ips" yaml:"mask_ips"`
}

// Duration wraps time.Duration so TOML files can say "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Collector: CollectorConfig{
			CommandTimeout: Duration{5 * time.Second},
			MaxOutputBytes: 8 << 20,
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}

// Path returns ~/.config/hostsnap/config.toml (or under XDG_CONFIG_HOME).
// Returns empty string if home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "hostsnap", "config.toml")
}

// Load builds the effective config: defaults, then the TOML file at path
// (Path() when empty), then .env and HOSTSNAP_* variables.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// .env is optional; its values never override the real environment.
	_ = godotenv.Load()
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v, ok := lookup(EnvOutput); ok && v != "" {
		cfg.Output.Format = strings.ToLower(v)
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Collector.CommandTimeout = Duration{d}
	}
	if v, ok := lookup(EnvMaxOutput); ok && v != "" {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxOutput, err)
		}
		cfg.Collector.MaxOutputBytes = n
	}
	if v, ok := lookup(EnvMaskIPs); ok && v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaskIPs, err)
		}
		cfg.Output.MaskIPs = b
	}
	return nil
}

var validate = validator.New()

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Collector.CommandTimeout.Duration <= 0 {
		return fmt.Errorf("invalid config: Config.Collector.CommandTimeout must be positive (got %s)", c.Collector.CommandTimeout)
	}
	return nil
}

// Save writes the config to path as TOML.
func Save(path string, cfg Config) error {
	if path == "" {
		path = Path()
	}
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
