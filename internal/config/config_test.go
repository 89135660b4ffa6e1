package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
telegram:
  bot_token: "test_token"
  bot_name: "weeks_bot"
database:
  path: "test.db"
auth:
  secret_key: "secret"
reminder:
  weekday: "sunday"
  hour: 18
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected bot_token test_token, got %s", cfg.Telegram.BotToken)
	}
	if cfg.Grid.DateMode != "per_user" {
		t.Errorf("expected default date_mode per_user, got %s", cfg.Grid.DateMode)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected default api port 8080, got %d", cfg.API.Port)
	}
	if cfg.Auth.TokenTTLDuration() != 2400*time.Hour {
		t.Errorf("expected default token ttl 2400h, got %s", cfg.Auth.TokenTTLDuration())
	}
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("WEEKS_BOT_TOKEN", "from_env")
	yamlContent := `
telegram:
  bot_token: "${WEEKS_BOT_TOKEN}"
database:
  path: "test.db"
auth:
  secret_key: "secret"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Telegram.BotToken != "from_env" {
		t.Errorf("expected expanded token, got %s", cfg.Telegram.BotToken)
	}
}

func TestValidateConfig(t *testing.T) {
	base := func() Config {
		c := Config{
			Telegram: TelegramConfig{BotToken: "token"},
			Database: DatabaseConfig{Path: "path"},
			Auth:     AuthConfig{SecretKey: "secret"},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing token", func(c *Config) { c.Telegram.BotToken = "" }, true},
		{"placeholder token", func(c *Config) { c.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE" }, true},
		{"missing db path", func(c *Config) { c.Database.Path = "" }, true},
		{"missing secret", func(c *Config) { c.Auth.SecretKey = "" }, true},
		{"bad date mode", func(c *Config) { c.Grid.DateMode = "mixed" }, true},
		{"bad weekday", func(c *Config) { c.Reminder.Weekday = "someday" }, true},
		{"hour out of range", func(c *Config) { c.Reminder.Hour = 24 }, true},
		{"global mode accepted", func(c *Config) { c.Grid.DateMode = "global" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReminderDefaults(t *testing.T) {
	t.Run("omitted section gets sunday evening", func(t *testing.T) {
		var c Config
		c.applyDefaults()
		if c.Reminder.Weekday != "sunday" {
			t.Errorf("expected default weekday sunday, got %s", c.Reminder.Weekday)
		}
		if c.Reminder.Hour != 18 {
			t.Errorf("expected default hour 18, got %d", c.Reminder.Hour)
		}
	})

	t.Run("explicit weekday keeps midnight hour", func(t *testing.T) {
		c := Config{Reminder: ReminderConfig{Weekday: "monday", Hour: 0}}
		c.applyDefaults()
		if c.Reminder.Weekday != "monday" {
			t.Errorf("expected weekday monday, got %s", c.Reminder.Weekday)
		}
		if c.Reminder.Hour != 0 {
			t.Errorf("expected hour 0 to survive defaults, got %d", c.Reminder.Hour)
		}
	})
}

func TestParseWeekday(t *testing.T) {
	wd, err := ParseWeekday("Sunday")
	if err != nil || wd != time.Sunday {
		t.Errorf("ParseWeekday(Sunday) = %v, %v", wd, err)
	}
	wd, err = ParseWeekday("mon")
	if err != nil || wd != time.Monday {
		t.Errorf("ParseWeekday(mon) = %v, %v", wd, err)
	}
	if _, err := ParseWeekday("nope"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}
