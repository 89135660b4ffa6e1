package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"weeksuntil/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Reminder   ReminderConfig   `yaml:"reminder"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Grid       GridConfig       `yaml:"grid"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	BotName  string `yaml:"bot_name"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type AuthConfig struct {
	SecretKey string `yaml:"secret_key"`
	TokenTTL  string `yaml:"token_ttl"`
}

// TokenTTLDuration parses the configured token lifetime, defaulting to 100 days.
func (a AuthConfig) TokenTTLDuration() time.Duration {
	d, err := time.ParseDuration(a.TokenTTL)
	if err != nil || d <= 0 {
		return 100 * 24 * time.Hour
	}
	return d
}

type ReminderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Weekday string `yaml:"weekday"`
	Hour    int    `yaml:"hour"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GridConfig struct {
	// DateMode selects whose dates and special periods feed the stats
	// calculator: per_user (each user's own) or global (the admin's).
	// The service runs per_user; global is validated but not served.
	DateMode  string   `yaml:"date_mode"`
	EmojiPool []string `yaml:"emoji_pool"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; config values reference its variables via ${VAR}.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Auth.SecretKey == "" {
		return errors.New("auth secret key is required")
	}

	switch c.Grid.DateMode {
	case models.DateModePerUser, models.DateModeGlobal:
	default:
		return fmt.Errorf("unknown grid date_mode: %s", c.Grid.DateMode)
	}

	if _, err := ParseWeekday(c.Reminder.Weekday); err != nil {
		return err
	}
	if c.Reminder.Hour < 0 || c.Reminder.Hour > 23 {
		return fmt.Errorf("reminder hour out of range: %d", c.Reminder.Hour)
	}

	return nil
}

// ParseWeekday maps an English day name (full or three-letter) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday: %q", name)
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "weeksuntil"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Auth.TokenTTL == "" {
		c.Auth.TokenTTL = "2400h"
	}
	if c.Reminder.Weekday == "" {
		// An omitted reminder section gets the stock Sunday-evening
		// trigger. An explicit weekday keeps the hour as written, so a
		// midnight sweep (hour: 0) is configurable.
		c.Reminder.Weekday = strings.ToLower(models.ReminderWeekday.String())
		if c.Reminder.Hour == 0 {
			c.Reminder.Hour = models.ReminderHour
		}
	}
	if c.Grid.DateMode == "" {
		c.Grid.DateMode = models.DateModePerUser
	}
	if c.API.RateLimit.Burst == 0 && c.API.RateLimit.RPS > 0 {
		c.API.RateLimit.Burst = int(c.API.RateLimit.RPS * 2)
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
