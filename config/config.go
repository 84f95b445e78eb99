// Package config loads the debug toolbar's configuration from defaults,
// an optional TOML file and DEBUGTOOLBAR_ environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// DEBUGTOOLBAR_TOOLBAR_URL_PREFIX for toolbar.url_prefix.
const EnvPrefix = "DEBUGTOOLBAR"

// FileEnv names the environment variable holding the config file path.
const FileEnv = EnvPrefix + "_CONFIG"

// Config holds application configuration.
type Config struct {
	Toolbar ToolbarConfig `mapstructure:"toolbar"`
	Session SessionConfig `mapstructure:"session"`
	Server  ServerConfig  `mapstructure:"server"`
}

// ToolbarConfig configures the toolbar middleware.
type ToolbarConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	URLPrefix        string   `mapstructure:"url_prefix"`
	InsertBefore     string   `mapstructure:"insert_before"`
	ResultsCacheSize int      `mapstructure:"results_cache_size"`
	InternalIPs      []string `mapstructure:"internal_ips"`
	MaxBodyBytes     int64    `mapstructure:"max_body_bytes"`
	LogSummaries     bool     `mapstructure:"log_summaries"`
	DisabledPanels   []string `mapstructure:"disabled_panels"`
}

// SessionConfig configures the session cookie and store.
type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// SecretKey signs session cookies. If empty, a random key is used and
	// sessions do not survive a restart.
	SecretKey string `mapstructure:"secret_key"`
}

// ServerConfig configures the sample server.
type ServerConfig struct {
	Bind string `mapstructure:"bind"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("toolbar.enabled", true)
	v.SetDefault("toolbar.url_prefix", "/__debug__/")
	v.SetDefault("toolbar.insert_before", "</body>")
	v.SetDefault("toolbar.results_cache_size", 25)
	v.SetDefault("toolbar.internal_ips", []string{"127.0.0.1", "::1"})
	v.SetDefault("toolbar.max_body_bytes", 10<<20)
	v.SetDefault("toolbar.log_summaries", false)
	v.SetDefault("toolbar.disabled_panels", []string{})
	v.SetDefault("session.cookie_name", "sessionid")
	v.SetDefault("session.timeout", time.Hour)
	v.SetDefault("session.secret_key", "")
	v.SetDefault("server.bind", "127.0.0.1:8000")
}

// Default returns the configuration with nothing overridden.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// the defaults always decode
	_ = v.Unmarshal(&c)
	return c
}

// Load reads configuration from file and env.
//
// The file named by DEBUGTOOLBAR_CONFIG is read if set, and it is an
// error if it can not be read. Otherwise ./debugtoolbar.toml is read if
// present.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	cfgPath := os.Getenv(FileEnv)
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("debugtoolbar")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "reading config")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	return c, nil
}
