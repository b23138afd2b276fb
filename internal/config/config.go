package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dataprep-cli/internal/ingest"
	"github.com/KaramelBytes/dataprep-cli/internal/logger"
	"github.com/KaramelBytes/dataprep-cli/internal/profile"
	"github.com/KaramelBytes/dataprep-cli/internal/snapshot"
)

// Global configuration structure.
type Global struct {
	Server   Server          `mapstructure:"server" yaml:"server"`
	Ingest   Ingest          `mapstructure:"ingest" yaml:"ingest"`
	Profile  Profile         `mapstructure:"profile" yaml:"profile"`
	Snapshot snapshot.Config `mapstructure:"snapshot" yaml:"snapshot"`
	Logging  logger.Config   `mapstructure:"logging" yaml:"logging"`
	Postgres Postgres        `mapstructure:"postgres" yaml:"postgres"`
}

// Server holds HTTP settings for `dataprep serve`.
type Server struct {
	Port           int           `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`
	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps" validate:"gte=0"`
	RateBurst      int      `mapstructure:"rate_burst" yaml:"rate_burst" validate:"gte=0"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Ingest holds table loading settings.
type Ingest struct {
	// Delimiter is "," ";" "|" "tab", or empty to pick by file extension.
	Delimiter           string   `mapstructure:"delimiter" yaml:"delimiter"`
	RowWarningThreshold int      `mapstructure:"row_warning_threshold" yaml:"row_warning_threshold" validate:"gte=0"`
	NAValues            []string `mapstructure:"na_values" yaml:"na_values"`
}

type Profile struct {
	Bins int `mapstructure:"bins" yaml:"bins" validate:"min=1,max=1000"`
}

type Postgres struct {
	DSN   string `mapstructure:"dsn" yaml:"dsn"`
	Table string `mapstructure:"table" yaml:"table"`
}

// ParseDelimiter maps a delimiter name to its rune. Empty means auto.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s", s)
	}
}

// IngestOptions returns loader options for the given upload limit.
func (c *Global) IngestOptions(maxBytes int64) (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	d, err := ParseDelimiter(c.Ingest.Delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	opt.NAValues = c.Ingest.NAValues
	opt.RowWarningThreshold = c.Ingest.RowWarningThreshold
	opt.MaxBytes = maxBytes
	return opt, nil
}

// ProfileOptions returns the visual summary settings.
func (c *Global) ProfileOptions() profile.Options {
	return profile.Options{Bins: c.Profile.Bins}
}

// Validate checks field constraints.
func Validate(c *Global) error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := ParseDelimiter(c.Ingest.Delimiter); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Dir returns ~/.dataprep.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".dataprep"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dataprep/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Env names use the DATAPREP_ prefix
// with dots replaced by underscores, e.g. DATAPREP_SERVER_PORT.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATAPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.max_upload_bytes", ingest.DefaultMaxBytes)
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("ingest.delimiter", "")
	v.SetDefault("ingest.row_warning_threshold", ingest.DefaultRowWarningThreshold)
	v.SetDefault("ingest.na_values", []string{})
	v.SetDefault("profile.bins", profile.DefaultBins)
	v.SetDefault("snapshot.backend", "memory")
	v.SetDefault("snapshot.ttl", time.Hour)
	v.SetDefault("snapshot.sweep_schedule", "@every 1m")
	v.SetDefault("snapshot.redis_url", "")
	v.SetDefault("snapshot.key_prefix", "dataprep:snapshot:")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.table", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine; a broken one is not
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
