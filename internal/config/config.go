// Package config loads hatter's settings from defaults, an optional file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/v0xg/hatter/internal/browser"
)

// EnvPrefix prefixes every environment override, e.g. HATTER_SERVER_PORT.
const EnvPrefix = "HATTER"

// Script targets understood by the compiler.
const (
	TargetGo        = "go"
	TargetPuppeteer = "puppeteer"
)

type Config struct {
	Logger  LoggerConfig    `mapstructure:"logger"`
	Browser browser.Options `mapstructure:"browser"`
	Engine  EngineConfig    `mapstructure:"engine"`
	Server  ServerConfig    `mapstructure:"server"`
	AI      AIConfig        `mapstructure:"ai"`
}

// LoggerConfig holds the logging setup.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"` // console or json
	Color       bool   `mapstructure:"color"`  // console only
	AddSource   bool   `mapstructure:"add_source"`
	ServiceName string `mapstructure:"service_name"`
	LogFile     string `mapstructure:"log_file"` // rotated JSON log, disabled when empty
	MaxSize     int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
}

// EngineConfig controls command execution and script output.
type EngineConfig struct {
	AllowEvaluate      bool   `mapstructure:"allow_evaluate"`
	ScreenshotMaxWidth int    `mapstructure:"screenshot_max_width"` // 0 keeps full size
	ScriptTarget       string `mapstructure:"script_target"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	CORSOrigin   string        `mapstructure:"cors_origin"`
	BodyLimitMB  int           `mapstructure:"body_limit_mb"`
	MaxSessions  int           `mapstructure:"max_sessions"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AIConfig selects the plan generator used by the generate command.
type AIConfig struct {
	Provider string `mapstructure:"provider"` // claude or openai
	Model    string `mapstructure:"model"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "hatter")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.color", true)

	// -- Browser --
	profile := browser.DefaultProfile()
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.profile.user_agent", profile.UserAgent)
	v.SetDefault("browser.profile.width", profile.Width)
	v.SetDefault("browser.profile.height", profile.Height)
	v.SetDefault("browser.profile.languages", profile.Languages)
	v.SetDefault("browser.profile.platform", profile.Platform)
	v.SetDefault("browser.profile.hide_webdriver", profile.HideWebdriver)
	v.SetDefault("browser.profile.chrome_runtime", profile.ChromeRuntime)
	v.SetDefault("browser.profile.patch_permissions", profile.PatchPermissions)

	// -- Engine --
	v.SetDefault("engine.allow_evaluate", false)
	v.SetDefault("engine.screenshot_max_width", 0)
	v.SetDefault("engine.script_target", TargetGo)

	// -- Server --
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.body_limit_mb", 10)
	v.SetDefault("server.max_sessions", 2)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")

	// -- AI --
	v.SetDefault("ai.provider", "claude")
	v.SetDefault("ai.model", "")
}

// NewDefaultConfig returns the configuration built from defaults alone.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// defaults are always valid
		panic(err)
	}
	return cfg
}

// Load reads defaults, then the optional file at path, then the
// environment. A missing path is not an error when it is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper binds the environment and decodes v into a validated Config.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// unprefixed variables kept for deployments of the original API
	_ = v.BindEnv("server.cors_origin", EnvPrefix+"_SERVER_CORS_ORIGIN", "FRONTEND_URL")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	switch c.Logger.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format))
	}
	switch c.Engine.ScriptTarget {
	case TargetGo, TargetPuppeteer:
	default:
		errs = append(errs, fmt.Errorf("engine.script_target must be %s or %s, got %q", TargetGo, TargetPuppeteer, c.Engine.ScriptTarget))
	}
	if c.Engine.ScreenshotMaxWidth < 0 {
		errs = append(errs, errors.New("engine.screenshot_max_width must not be negative"))
	}
	if c.Browser.Profile.Width < 0 || c.Browser.Profile.Height < 0 {
		errs = append(errs, errors.New("browser.profile viewport must not be negative"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, errors.New("server.body_limit_mb must be a positive integer"))
	}
	if c.Server.MaxSessions <= 0 {
		errs = append(errs, errors.New("server.max_sessions must be a positive integer"))
	}
	switch c.AI.Provider {
	case "claude", "openai":
	default:
		errs = append(errs, fmt.Errorf("ai.provider must be claude or openai, got %q", c.AI.Provider))
	}
	return errors.Join(errs...)
}
