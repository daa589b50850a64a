package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jdelaire/gastobot/internal/logging"
)

const (
	TransportWhatsApp = "whatsapp"
	TransportTelegram = "telegram"
)

type Config struct {
	// Chat transport
	Transport        string `env:"GASTOBOT_TRANSPORT" envDefault:"whatsapp"`
	WhatsAppURL      string `env:"WHATSAPP_BRIDGE_URL" envDefault:"ws://localhost:3000/ws"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	// Finance backend
	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8000"`
	BackendToken   string        `env:"BACKEND_TOKEN"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"5s"`

	// Routing
	ReplyTimeout        time.Duration `env:"REPLY_TIMEOUT" envDefault:"10s"`
	AuthorizedUsersFile string        `env:"AUTHORIZED_USERS_FILE" envDefault:"authorized_users.yaml"`
	QueueSize           int           `env:"QUEUE_SIZE" envDefault:"100"`

	// Local push socket, disabled when empty
	PushSocket string `env:"PUSH_SOCKET"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env is a local development convenience; a missing file is fine.
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	switch c.Transport {
	case TransportWhatsApp:
		if u, err := url.Parse(c.WhatsAppURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid WhatsApp bridge URL '%s': %v", c.WhatsAppURL, err))
		} else if u.Scheme != "ws" && u.Scheme != "wss" {
			errors = append(errors, fmt.Sprintf("invalid WhatsApp bridge URL scheme '%s': must be 'ws' or 'wss'", u.Scheme))
		}
	case TransportTelegram:
		// The token may still come from the keychain; checked at startup.
	default:
		errors = append(errors, fmt.Sprintf("invalid transport '%s': must be one of [%s %s]", c.Transport, TransportWhatsApp, TransportTelegram))
	}

	if u, err := url.Parse(c.BackendURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid backend URL '%s': %v", c.BackendURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid backend URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid backend URL '%s': missing host", c.BackendURL))
	}

	if c.BackendTimeout < 100*time.Millisecond || c.BackendTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid backend timeout %v: must be between 100ms and 1m", c.BackendTimeout))
	}
	if c.ReplyTimeout < 100*time.Millisecond || c.ReplyTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reply timeout %v: must be between 100ms and 1m", c.ReplyTimeout))
	}

	if strings.TrimSpace(c.AuthorizedUsersFile) == "" {
		errors = append(errors, "authorized users file cannot be empty")
	}

	if c.QueueSize < 1 || c.QueueSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid queue size %d: must be between 1 and 10000", c.QueueSize))
	}

	if c.PushSocket != "" && !filepath.IsAbs(c.PushSocket) {
		errors = append(errors, fmt.Sprintf("invalid push socket path '%s': must be absolute", c.PushSocket))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn (or warning) or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
