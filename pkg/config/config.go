package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		Log           `yaml:"log"`
		Store         `yaml:"store"`
		Background    `yaml:"background"`
		Countdown     `yaml:"countdown"`
		Ringing       `yaml:"ringing"`
		Notifications `yaml:"notifications"`
		Export        `yaml:"export"`
	}

	Log struct {
		Level string `yaml:"level" env:"ALARM_LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	}

	Store struct {
		Driver string `yaml:"driver" env:"ALARM_STORE_DRIVER" env-default:"bolt" validate:"oneof=bolt prefs"`
		// Path of the bolt file; empty means the user config directory
		Path string `yaml:"path" env:"ALARM_STORE_PATH"`
	}

	Background struct {
		Interval    time.Duration `yaml:"interval"      env:"ALARM_BACKGROUND_INTERVAL"      env-default:"15m" validate:"min=1s"`
		StartOnBoot bool          `yaml:"start_on_boot" env:"ALARM_BACKGROUND_START_ON_BOOT" env-default:"false"`
	}

	Countdown struct {
		Tick time.Duration `yaml:"tick" env:"ALARM_COUNTDOWN_TICK" env-default:"1s" validate:"min=1ms"`
	}

	Ringing struct {
		Timeout   time.Duration `yaml:"timeout"    env:"ALARM_RINGING_TIMEOUT"    env-default:"10m" validate:"min=0s"`
		Hold      time.Duration `yaml:"hold"       env:"ALARM_RINGING_HOLD"       env-default:"2s"  validate:"min=0s"`
		SoundPath string        `yaml:"sound_path" env:"ALARM_RINGING_SOUND_PATH"`
	}

	Notifications struct {
		Enabled bool `yaml:"enabled" env:"ALARM_NOTIFICATIONS_ENABLED" env-default:"true"`
	}

	Export struct {
		// Path of the iCalendar file written by "Export alarms"; empty means the user's home
		Path string `yaml:"path" env:"ALARM_EXPORT_PATH"`
	}
)

const (
	EnvConfigPathName  = "ALARM_CONFIG"
	FlagConfigPathName = "config"

	appDir = "alarm-clock"
)

// Load reads the YAML file at path when it exists, then applies environment overrides and defaults
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPathName)
	}

	cfg := &Config{}
	var err error
	if path != "" && fileExists(path) {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		helpText := "Alarm Clock"
		help, _ := cleanenv.GetDescription(cfg, &helpText)
		return nil, fmt.Errorf("read config: %w\n%s", err, help)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.fillPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fillPaths() error {
	if c.Store.Path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("locate config dir: %w", err)
		}
		c.Store.Path = filepath.Join(dir, appDir, "alarms.db")
	}
	if c.Export.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home dir: %w", err)
		}
		c.Export.Path = filepath.Join(home, "alarms.ics")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
