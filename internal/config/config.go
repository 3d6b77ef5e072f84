package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"mr-tracker/internal/utils"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Routine struct {
		Timezone      string `yaml:"timezone"`
		TargetEndTime string `yaml:"target_end_time"`
		CatalogPath   string `yaml:"catalog_path"`
	} `yaml:"routine"`
	Report struct {
		Email      string `yaml:"email"`
		CronSecret string `yaml:"cron_secret"`
		Schedule   string `yaml:"schedule"`
	} `yaml:"report"`
	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		User string `yaml:"user"`
		Pass string `yaml:"pass"`
		From string `yaml:"from"`
	} `yaml:"smtp"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	location  *time.Location
	targetEnd utils.Clock
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Database.Path = "/data/mr-tracker.db"
	cfg.Routine.Timezone = "Europe/Rome"
	cfg.Routine.TargetEndTime = "07:00"
	cfg.Report.Schedule = "0 8 * * 1"
	cfg.SMTP.Port = 587
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the optional YAML file at path, then applies the environment
// overrides. An empty path falls back to CONFIG_PATH.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("port", cfg.Server.Port).
		Str("db", cfg.Database.Path).
		Str("timezone", cfg.Routine.Timezone).
		Msg("✅ configuration loaded")
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Database.Path, "DB_PATH")
	setString(&c.Telegram.Token, "TG_TOKEN")
	setString(&c.Routine.Timezone, "TIMEZONE")
	setString(&c.Routine.TargetEndTime, "TARGET_END_TIME")
	setString(&c.Routine.CatalogPath, "CATALOG_PATH")
	setString(&c.Report.Email, "REPORT_EMAIL")
	setString(&c.Report.CronSecret, "CRON_SECRET")
	setString(&c.Report.Schedule, "REPORT_SCHEDULE")
	setString(&c.SMTP.Host, "SMTP_HOST")
	setString(&c.SMTP.User, "SMTP_USER")
	setString(&c.SMTP.Pass, "SMTP_PASS")
	setString(&c.SMTP.From, "SMTP_FROM")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("TG_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TG_CHAT_ID %q: %w", v, err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		c.SMTP.Port = port
	}
	return nil
}

// Validate checks the values the rest of the program parses lazily and
// caches the parsed timezone and target time.
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Routine.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Routine.Timezone, err)
	}
	target, err := utils.ParseClock(c.Routine.TargetEndTime)
	if err != nil {
		return err
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return errors.New("TG_CHAT_ID is required when TG_TOKEN is set")
	}
	if c.Server.Port == "" {
		return errors.New("server port is empty")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}

	c.location = loc
	c.targetEnd = target
	return nil
}

// Location is the timezone dates and times of day are interpreted in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) TargetEnd() utils.Clock {
	return c.targetEnd
}

func (c *Config) BotEnabled() bool {
	return c.Telegram.Token != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.Report.Email != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
