package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "TALKIDEAS_CONFIG"
	databasePathEnv   = "TALKIDEAS_DB_PATH"
	watchDirEnv       = "TALKIDEAS_WATCH_DIR"
	stagingDirEnv     = "TALKIDEAS_STAGING_DIR"
	logLevelEnv       = "TALKIDEAS_LOG_LEVEL"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Provider names accepted by the transcriber and ideas sections.
const (
	ProviderPlaceholder = "placeholder"
	ProviderOpenAI      = "openai"
	ProviderHTTP        = "http"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Staging       StagingConfig      `yaml:"staging"`
	Transcriber   TranscriberConfig  `yaml:"transcriber"`
	Ideas         IdeasConfig        `yaml:"ideas"`
	Processing    ProcessingConfig   `yaml:"processing"`
	HTTP          HTTPConfig         `yaml:"http"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects verbosity and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StagingConfig describes the watched folder and the staging area.
type StagingConfig struct {
	WatchDir      string        `yaml:"watchDir"`
	StagingDir    string        `yaml:"stagingDir"`
	TriggerPrefix string        `yaml:"triggerPrefix"`
	Extensions    []string      `yaml:"extensions"`
	SettleDelay   time.Duration `yaml:"settleDelay"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// TranscriberConfig picks the speech-to-text backend.
type TranscriberConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	Endpoint string        `yaml:"endpoint"`
	BaseURL  string        `yaml:"baseUrl"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// IdeasConfig defines how blog post ideas are generated.
type IdeasConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"baseUrl"`
	APIKey       string `yaml:"apiKey"`
	MaxIdeas     int    `yaml:"maxIdeas"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// ProcessingConfig holds batch policy.
type ProcessingConfig struct {
	DeleteAfterSuccess bool `yaml:"deleteAfterSuccess"`
}

// HTTPConfig configures the dashboard API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads the YAML file named by TALKIDEAS_CONFIG (if present) and applies
// environment overrides. Unreadable files fall back to defaults.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, explicit, err := readFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = explicit.apply(mergeConfig(cfg, fileCfg))
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// LoadFile is Load for an explicit path; a missing or malformed file is an error.
func LoadFile(path string) (Config, error) {
	fileCfg, explicit, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := explicit.apply(mergeConfig(defaultConfig(), fileCfg))
	cfg.applyEnvOverrides()
	return cfg, nil
}

// explicitSettings holds keys whose zero value is a valid choice, so
// mergeConfig cannot tell "unset" from "set to zero" for them.
type explicitSettings struct {
	Staging struct {
		SettleDelay *time.Duration `yaml:"settleDelay"`
	} `yaml:"staging"`
	Processing struct {
		DeleteAfterSuccess *bool `yaml:"deleteAfterSuccess"`
	} `yaml:"processing"`
}

func (e explicitSettings) apply(cfg Config) Config {
	if e.Staging.SettleDelay != nil && *e.Staging.SettleDelay >= 0 {
		cfg.Staging.SettleDelay = *e.Staging.SettleDelay
	}
	if e.Processing.DeleteAfterSuccess != nil {
		cfg.Processing.DeleteAfterSuccess = *e.Processing.DeleteAfterSuccess
	}
	return cfg
}

func readFile(path string) (Config, explicitSettings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, explicitSettings{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, explicitSettings{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	var explicit explicitSettings
	if err := yaml.Unmarshal(raw, &explicit); err != nil {
		return Config{}, explicitSettings{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, explicit, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(watchDirEnv); v != "" {
		c.Staging.WatchDir = v
	}

	if v := os.Getenv(stagingDirEnv); v != "" {
		c.Staging.StagingDir = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		if c.Ideas.APIKey == "" {
			c.Ideas.APIKey = v
		}
		if c.Transcriber.APIKey == "" {
			c.Transcriber.APIKey = v
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = strings.ToLower(override.Logging.Format)
	}

	if override.Database.Path != "" {
		base.Database.Path = override.Database.Path
	}

	if override.Staging.WatchDir != "" {
		base.Staging.WatchDir = override.Staging.WatchDir
	}
	if override.Staging.StagingDir != "" {
		base.Staging.StagingDir = override.Staging.StagingDir
	}
	if override.Staging.TriggerPrefix != "" {
		base.Staging.TriggerPrefix = override.Staging.TriggerPrefix
	}
	if len(override.Staging.Extensions) > 0 {
		base.Staging.Extensions = override.Staging.Extensions
	}
	if override.Staging.SettleDelay > 0 {
		base.Staging.SettleDelay = override.Staging.SettleDelay
	}
	if override.Staging.SweepInterval > 0 {
		base.Staging.SweepInterval = override.Staging.SweepInterval
	}

	if override.Transcriber.Provider != "" {
		base.Transcriber.Provider = strings.ToLower(override.Transcriber.Provider)
	}
	if override.Transcriber.Model != "" {
		base.Transcriber.Model = override.Transcriber.Model
	}
	if override.Transcriber.Endpoint != "" {
		base.Transcriber.Endpoint = override.Transcriber.Endpoint
	}
	if override.Transcriber.BaseURL != "" {
		base.Transcriber.BaseURL = override.Transcriber.BaseURL
	}
	if override.Transcriber.APIKey != "" {
		base.Transcriber.APIKey = override.Transcriber.APIKey
	}
	if override.Transcriber.Timeout > 0 {
		base.Transcriber.Timeout = override.Transcriber.Timeout
	}

	if override.Ideas.Provider != "" {
		base.Ideas.Provider = strings.ToLower(override.Ideas.Provider)
	}
	if override.Ideas.Model != "" {
		base.Ideas.Model = override.Ideas.Model
	}
	if override.Ideas.BaseURL != "" {
		base.Ideas.BaseURL = override.Ideas.BaseURL
	}
	if override.Ideas.APIKey != "" {
		base.Ideas.APIKey = override.Ideas.APIKey
	}
	if override.Ideas.MaxIdeas > 0 {
		base.Ideas.MaxIdeas = override.Ideas.MaxIdeas
	}
	if override.Ideas.SystemPrompt != "" {
		base.Ideas.SystemPrompt = override.Ideas.SystemPrompt
	}

	if override.Processing.DeleteAfterSuccess {
		base.Processing.DeleteAfterSuccess = true
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.BaseURL != "" {
		base.Notifications.Telegram.BaseURL = override.Notifications.Telegram.BaseURL
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Path: "data/talkideas.db"},
		Staging: StagingConfig{
			WatchDir:      "data/inbox",
			StagingDir:    "data/temp",
			TriggerPrefix: "blog_",
			Extensions:    []string{".wav", ".mp3", ".m4a"},
			SettleDelay:   2 * time.Second,
			SweepInterval: time.Minute,
		},
		Transcriber: TranscriberConfig{
			Provider: ProviderPlaceholder,
			Model:    "whisper-1",
			Timeout:  5 * time.Minute,
		},
		Ideas: IdeasConfig{
			Provider: ProviderPlaceholder,
			Model:    "gpt-4o-mini",
			MaxIdeas: 5,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BaseURL: "https://api.telegram.org"},
		},
	}
}
