// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App   AppConfig
	Mongo MongoConfig
	JWT   JWTConfig
	Mail  MailConfig
	Log   LogConfig
	Admin AdminConfig
}

type AppConfig struct {
	Port    string
	Env     string
	BaseURL string
}

type MongoConfig struct {
	URI          string
	Database     string
	Timeout      time.Duration
	Transactions bool
}

type JWTConfig struct {
	Secret string
	Expire time.Duration
}

// Mail providers.
const (
	MailLog      = "log"
	MailPostmark = "postmark"
	MailSendgrid = "sendgrid"
)

type MailConfig struct {
	Provider      string
	PostmarkToken string
	SendgridKey   string
	Sender        string
}

// AdminConfig is the account created by the seeder. Empty Email skips it.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// source resolves a key from the process environment first, then the .env file.
type source map[string]string

func (s source) get(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return def
}

func (s source) duration(key string, def time.Duration) (time.Duration, error) {
	raw := s.get(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func (s source) boolean(key string, def bool) (bool, error) {
	raw := s.get(key, "")
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// Load reads path (".env" when empty) if it exists and builds the Config.
// Process environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	file, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		file = map[string]string{}
	}
	src := source(file)

	cfg := &Config{
		App: AppConfig{
			Port: src.get("PORT", "8000"),
			Env:  src.get("APP_ENV", "development"),
		},
		Mongo: MongoConfig{
			URI:      src.get("MONGO_URI", "mongodb://localhost:27017"),
			Database: src.get("MONGO_DB", "ecommerce"),
		},
		JWT: JWTConfig{
			Secret: src.get("JWT_SECRET", ""),
		},
		Mail: MailConfig{
			Provider:      strings.ToLower(src.get("MAIL_PROVIDER", MailLog)),
			PostmarkToken: src.get("POSTMARK_API_TOKEN", ""),
			SendgridKey:   src.get("SENDGRID_API_KEY", ""),
			Sender:        src.get("EMAIL_SENDER", "no-reply@localhost"),
		},
		Log: LogConfig{
			Level: strings.ToLower(src.get("LOG_LEVEL", "info")),
		},
		Admin: AdminConfig{
			Name:     src.get("ADMIN_NAME", "Admin"),
			Email:    src.get("ADMIN_EMAIL", ""),
			Password: src.get("ADMIN_PASSWORD", ""),
		},
	}
	cfg.App.BaseURL = src.get("APP_BASE_URL", "http://localhost:"+cfg.App.Port)

	if cfg.Mongo.Timeout, err = src.duration("MONGO_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Mongo.Transactions, err = src.boolean("MONGO_TRANSACTIONS", false); err != nil {
		return nil, err
	}
	if cfg.JWT.Expire, err = src.duration("JWT_EXPIRE", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Log.Pretty, err = src.boolean("LOG_PRETTY", cfg.App.Env == "development"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Mongo.Timeout <= 0 {
		return errors.New("MONGO_TIMEOUT must be positive")
	}
	switch c.Mail.Provider {
	case MailLog:
	case MailPostmark:
		if c.Mail.PostmarkToken == "" {
			return errors.New("POSTMARK_API_TOKEN is required for the postmark mail provider")
		}
	case MailSendgrid:
		if c.Mail.SendgridKey == "" {
			return errors.New("SENDGRID_API_KEY is required for the sendgrid mail provider")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}
	return nil
}
