package utils

import (
	"errors"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"strings"
	"time"
)

const envPrefix = "VITALGEO"

type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	API      APIConfig      `mapstructure:"api"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
	Currency CurrencyConfig `mapstructure:"currency"`
	Payments PaymentsConfig `mapstructure:"payments"`
}

type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Driver     string   `mapstructure:"driver"`
	Dir        string   `mapstructure:"dir"`
	Postgres   DBConfig `mapstructure:"postgres"`
	Migrations string   `mapstructure:"migrations"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SessionConfig struct {
	Secret             string        `mapstructure:"secret"`
	MaxAge             time.Duration `mapstructure:"max_age"`
	ValidationInterval time.Duration `mapstructure:"validation_interval"`
	RevalidateDelay    time.Duration `mapstructure:"revalidate_delay"`
}

type CurrencyConfig struct {
	RateURL      string        `mapstructure:"rate_url"`
	FreshFor     time.Duration `mapstructure:"fresh_for"`
	StaleFor     time.Duration `mapstructure:"stale_for"`
	RefreshEvery time.Duration `mapstructure:"refresh_every"`
	FallbackRate float64       `mapstructure:"fallback_rate"`
}

type PaymentsConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RedirectDelay time.Duration `mapstructure:"redirect_delay"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("api.url", "http://localhost:3000/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", ".vitalgeo")
	v.SetDefault("storage.migrations", "database/migration")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.name", "")
	v.SetDefault("storage.postgres.user", "")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.ssl_mode", "disable")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("session.secret", "VitalGeoSessionKey")
	v.SetDefault("session.max_age", 14*24*time.Hour)
	v.SetDefault("session.validation_interval", 5*time.Minute)
	v.SetDefault("session.revalidate_delay", 200*time.Millisecond)
	v.SetDefault("currency.rate_url", "https://api.exchangerate-api.com/v4/latest/PKR")
	v.SetDefault("currency.fresh_for", 10*time.Minute)
	v.SetDefault("currency.stale_for", 20*time.Minute)
	v.SetDefault("currency.refresh_every", 10*time.Minute)
	v.SetDefault("currency.fallback_rate", 278.50)
	v.SetDefault("payments.poll_interval", 30*time.Second)
	v.SetDefault("payments.redirect_delay", 2*time.Second)
}

// Flags registers the command line overrides understood by LoadConfig.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("vitalgeo", pflag.ContinueOnError)
	flags.String("config", "", "path to a config file (yaml, toml or json)")
	flags.String("api.url", "", "backend API base URL")
	flags.String("server.addr", "", "listen address of the local storefront API")
	flags.String("storage.driver", "", "slot storage driver: file or postgres")
	flags.String("storage.dir", "", "directory for the file storage driver")
	flags.String("log_level", "", "log level")
	return flags
}

// LoadConfig merges defaults, an optional config file, VITALGEO_* env vars
// and flags, in increasing priority.
func LoadConfig(flags *pflag.FlagSet) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := ""
	if flags != nil {
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" || !f.Changed {
				return
			}
			if err := v.BindPFlag(f.Name, f); err != nil {
				logrus.Errorf("LoadConfig: failed to bind flag %s err = %v", f.Name, err)
			}
		})
		configPath, _ = flags.GetString("config")
	}
	if err := readConfigFile(v, configPath); err != nil {
		return nil, nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// readConfigFile reads path when given, otherwise an optional config.* from
// the working directory.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}
	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WatchLogLevel re-applies log_level whenever the config file changes.
func WatchLogLevel(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&fsnotify.Write == 0 {
			return
		}
		SetLogLevel(v.GetString("log_level"))
		logrus.Infof("config reloaded from %s", e.Name)
	})
	v.WatchConfig()
}

func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Errorf("SetLogLevel: invalid level %q err = %v", level, err)
		return
	}
	logrus.SetLevel(lvl)
}
