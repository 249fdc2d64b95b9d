package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

// DefaultUpstreamURL is the location the company documents are published at.
const DefaultUpstreamURL = "https://raw.githubusercontent.com/MiddlewareNewZealand/evaluation-instructions/main/xml-api"

// EnvPrefix prefixes every environment override, e.g. COMPANYAPI_UPSTREAM_TIMEOUT.
const EnvPrefix = "COMPANYAPI"

const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig controls how documents are fetched from the XML source.
type UpstreamConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
	StatsWindow  time.Duration `mapstructure:"stats_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("upstream.base_url", DefaultUpstreamURL)
	v.SetDefault("upstream.timeout", 5*time.Second)
	v.SetDefault("upstream.max_redirects", 5)
	v.SetDefault("upstream.max_body_bytes", 10<<20) // 10MB
	v.SetDefault("upstream.user_agent", "companyapi/1.0")
	v.SetDefault("upstream.stats_window", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogFormatJSON)

	v.SetDefault("metrics.enabled", true)
}

// Load reads defaults, then the config file (path, or config.yaml in the
// working directory when path is empty), then COMPANYAPI_* environment
// variables. A missing default config file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Upstream),
		validation.Field(&c.Log),
	); err != nil {
		return err
	}

	// A response must be able to outlive the longest redirect chain the
	// fetcher will follow. Zero disables the write deadline.
	if worst := c.Upstream.WorstCaseFetch(); c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < worst {
		return validation.Errors{
			"server": validation.Errors{
				"write_timeout": validation.NewError("validation_write_timeout_too_short",
					fmt.Sprintf("must be at least %s (%d hops of %s)", worst, c.Upstream.MaxRedirects+1, c.Upstream.Timeout)),
			},
		}
	}
	return nil
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, is.Port),
		validation.Field(&s.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.WriteTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.ShutdownTimeout, validation.Required),
	)
}

func (u UpstreamConfig) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.BaseURL, validation.Required, is.URL, validation.By(httpScheme)),
		validation.Field(&u.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&u.MaxRedirects, validation.Required, validation.Min(1), validation.Max(20)),
		validation.Field(&u.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
	)
}

// WorstCaseFetch is the longest a single fetch can take: every allowed
// redirect plus the final request, each bounded by Timeout.
func (u UpstreamConfig) WorstCaseFetch() time.Duration {
	return time.Duration(u.MaxRedirects+1) * u.Timeout
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.Required, validation.In(LogFormatJSON, LogFormatText)),
	)
}

func httpScheme(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return validation.NewError("validation_invalid_scheme", "must use http or https")
	}
	return nil
}
