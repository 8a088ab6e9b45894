package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files, environment
// variables and command-line flags.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	URL            string        `mapstructure:"url"`
	TmpDir         string        `mapstructure:"tmpdir"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TimeoutSeconds int64         `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
	MaxRedirects   int           `mapstructure:"max_redirects"`

	PublishersFile string `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	PortalURL string `mapstructure:"portal_url"`
	Redirect  string `mapstructure:"redirect"`
	Color     string `mapstructure:"color"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"config":        "config",
	"url":           "url",
	"tmpdir":        "tmpdir",
	"username":      "username",
	"password":      "password",
	"timeout":       "timeout_seconds",
	"max-redirects": "max_redirects",
	"log-level":     "log_level",
	"publishers":    "publishers_file",
	"storage":       "storage_type",
	"bbolt-path":    "bbolt_path",
	"portal-url":    "portal_url",
	"redirect":      "redirect",
	"color":         "color",
}

// RegisterFlags adds the common flags of the gink commands to fs. Flags left
// unset do not override files or the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a gink.yaml configuration file")
	fs.String("url", "", "GINK service base URL")
	fs.String("tmpdir", "", "directory for the cookie jar and response scratch files")
	fs.String("username", "", "digest auth username")
	fs.String("password", "", "digest auth password")
	fs.Int64("timeout", 0, "request timeout in seconds")
	fs.Int("max-redirects", 0, "maximum redirects followed per request")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("publishers", "", "publishers registry file")
	fs.String("storage", "", "seen-update storage (bbolt, none)")
	fs.String("bbolt-path", "", "bbolt database path")
	fs.String("portal-url", "", "portal login page used by gink-embed")
	fs.String("redirect", "", "portal page opened after login")
	fs.String("color", "", "colored output (auto, always, never)")
}

// Load reads configuration from configs/.env, an optional gink.yaml, GINK_*
// environment variables and the flags of fs, later sources winning.
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "gink-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("url", "http://mygink.com/rest/v2/")
	v.SetDefault("tmpdir", "")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("max_redirects", 10)
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/gink.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))
	v.SetDefault("portal_url", "https://infleet.bornemann.net/v1.3/login.html")
	v.SetDefault("redirect", "live.html")
	v.SetDefault("color", "auto")

	v.SetEnvPrefix("gink")
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("gink")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q (must be an absolute http(s) URL)", c.URL)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid timeout_seconds (must be positive seconds)")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("invalid max_redirects (must not be negative)")
	}
	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color %q (must be auto, always or never)", c.Color)
	}
	return nil
}
