package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Transport modes.
const (
	TransportPolling = "polling"
	TransportWebhook = "webhook"
	TransportBoth    = "both"
)

const DefaultReferenceAudioURL = "https://raw.githubusercontent.com/narangchouhan/xtts-telegram-bot/main/samples/your_voice.wav"

var (
	ErrMissingToken   = errors.New("API_TOKEN is required")
	ErrMissingUserIDs = errors.New("ALLOWED_USER_IDS is required")
)

// UserIDs is a comma-separated list of Telegram user ids.
type UserIDs []int64

// UnmarshalText parses "1, 2,3". A list with nothing but separators and
// spaces yields no ids and is reported by Validate. Otherwise every item must
// be an integer, so "1,,2" and "42," are errors.
func (u *UserIDs) UnmarshalText(text []byte) error {
	raw := string(text)
	if strings.TrimSpace(strings.ReplaceAll(raw, ",", "")) == "" {
		*u = UserIDs{}
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make(UserIDs, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return fmt.Errorf("empty user id at position %d", i+1)
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	*u = ids
	return nil
}

type Config struct {
	Token          string  `env:"API_TOKEN"`
	AllowedUserIDs UserIDs `env:"ALLOWED_USER_IDS"`
	Proxy          string  `env:"TELEGRAM_PROXY"`

	Host      string `env:"HOST"`
	Port      int    `env:"PORT"`
	Transport string `env:"TRANSPORT"`

	Webhook   WebhookConfig
	Reference ReferenceConfig
	Synth     SynthConfig

	WorkDir  string `env:"WORK_DIR"`
	LogLevel string `env:"LOG_LEVEL"`
	LogFile  string `env:"LOG_FILE"`

	// LogRedact masks tokens and secrets in log output.
	LogRedact bool `env:"LOG_REDACT"`
}

type WebhookConfig struct {
	URL    string `env:"WEBHOOK_URL"`
	Secret string `env:"WEBHOOK_SECRET"`
}

type ReferenceConfig struct {
	URL     string        `env:"REFERENCE_AUDIO_URL"`
	Timeout time.Duration `env:"REFERENCE_AUDIO_TIMEOUT"`
}

type SynthConfig struct {
	APIBase       string        `env:"SYNTH_API_BASE"`
	Language      string        `env:"SYNTH_LANGUAGE"`
	Timeout       time.Duration `env:"SYNTH_TIMEOUT"`
	RatePerMinute int           `env:"SYNTH_RATE_PER_MINUTE"` // 0 = unlimited
}

func DefaultConfig() *Config {
	return &Config{
		Host:      "0.0.0.0",
		Port:      5000,
		Transport: TransportWebhook,
		Reference: ReferenceConfig{
			URL:     DefaultReferenceAudioURL,
			Timeout: 60 * time.Second,
		},
		Synth: SynthConfig{
			APIBase:  "http://localhost:8020",
			Language: "hi",
			Timeout:  120 * time.Second,
		},
		WorkDir:  os.TempDir(),
		LogLevel:  "info",
		LogRedact: true,
	}
}

// Load reads .env files, then the process environment, on top of
// DefaultConfig. A missing default .env is ignored; explicitly named files
// must exist. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	return LoadFromEnvironment(env.Options{})
}

// LoadFromEnvironment parses the environment (or opts.Environment when set)
// without touching .env files.
func LoadFromEnvironment(opts env.Options) (*Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, ErrMissingToken)
	}
	if len(c.AllowedUserIDs) == 0 {
		errs = append(errs, ErrMissingUserIDs)
	}

	switch c.Transport {
	case TransportPolling, TransportWebhook, TransportBoth:
	default:
		errs = append(errs, fmt.Errorf("TRANSPORT must be one of polling, webhook, both; got %q", c.Transport))
	}

	// Polling deletes the webhook that registration would set.
	if c.Transport == TransportBoth && strings.TrimSpace(c.Webhook.URL) != "" {
		errs = append(errs, errors.New("WEBHOOK_URL cannot be registered when TRANSPORT=both; unset it or pick one transport"))
	}
	if c.RunsWebhook() && (c.Port <= 0 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if strings.TrimSpace(c.Reference.URL) == "" {
		errs = append(errs, errors.New("REFERENCE_AUDIO_URL must not be empty"))
	}
	if strings.TrimSpace(c.Synth.APIBase) == "" {
		errs = append(errs, errors.New("SYNTH_API_BASE must not be empty"))
	}
	if strings.TrimSpace(c.Synth.Language) == "" {
		errs = append(errs, errors.New("SYNTH_LANGUAGE must not be empty"))
	}
	if c.Proxy != "" {
		if u, err := url.Parse(c.Proxy); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("TELEGRAM_PROXY is not a valid URL: %q", c.Proxy))
		}
	}
	if c.Synth.RatePerMinute < 0 {
		errs = append(errs, fmt.Errorf("SYNTH_RATE_PER_MINUTE must be >= 0, got %d", c.Synth.RatePerMinute))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) RunsPolling() bool {
	return c.Transport == TransportPolling || c.Transport == TransportBoth
}

func (c *Config) RunsWebhook() bool {
	return c.Transport == TransportWebhook || c.Transport == TransportBoth
}

// ListenAddr is the webhook server address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
