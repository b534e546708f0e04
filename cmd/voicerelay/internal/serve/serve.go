package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/voicerelay/voicerelay/cmd/voicerelay/internal"
	"github.com/voicerelay/voicerelay/pkg/access"
	"github.com/voicerelay/voicerelay/pkg/channels"
	"github.com/voicerelay/voicerelay/pkg/config"
	"github.com/voicerelay/voicerelay/pkg/logger"
	"github.com/voicerelay/voicerelay/pkg/redaction"
	"github.com/voicerelay/voicerelay/pkg/reference"
	"github.com/voicerelay/voicerelay/pkg/relay"
	"github.com/voicerelay/voicerelay/pkg/voice"
)

type options struct {
	debug   bool
	envFile string
}

func loadConfig(opts options) (*config.Config, error) {
	var files []string
	if opts.envFile != "" {
		files = append(files, opts.envFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config, debug bool) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if debug {
		level = logger.DEBUG
	}
	logger.SetLevel(level)
	logger.SetRedactionEnabled(cfg.LogRedact)

	redaction.AddSecret(cfg.Token)
	redaction.AddSecret(cfg.Webhook.Secret)

	if cfg.LogFile != "" {
		if err := logger.EnableFileLogging(cfg.LogFile); err != nil {
			return err
		}
	}
	return nil
}

// synthTimeout bounds one message: every attempt plus the backoff between them.
func synthTimeout(perAttempt time.Duration, policy voice.RetryPolicy) time.Duration {
	attempts := time.Duration(policy.MaxRetries + 1)
	return attempts*perAttempt + time.Duration(policy.MaxRetries)*policy.Backoff
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err := setupLogging(cfg, opts.debug); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logger.DisableFileLogging()

	logger.InfoCF("serve", "Starting voicerelay", map[string]any{
		"version":       internal.FormatVersion(),
		"transport":     cfg.Transport,
		"allowed_users": len(cfg.AllowedUserIDs),
		"synth_api":     cfg.Synth.APIBase,
		"language":      cfg.Synth.Language,
		"log_redaction": logger.IsRedactionEnabled(),
	})

	sample, err := reference.Fetch(ctx, cfg.Reference.URL, reference.FetchOptions{
		Timeout: cfg.Reference.Timeout,
		Dir:     cfg.WorkDir,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch reference audio: %w", err)
	}
	defer func() {
		if err := sample.Remove(); err != nil {
			logger.WarnCF("serve", "Failed to remove reference sample", map[string]any{
				"path":  sample.Path(),
				"error": err.Error(),
			})
		}
	}()

	bot, err := channels.NewTelegramBot(cfg.Token, cfg.Proxy)
	if err != nil {
		return err
	}

	xtts := voice.NewXTTSSynthesizer(cfg.Synth.APIBase, cfg.Synth.Timeout)
	if !xtts.IsAvailable(ctx) {
		logger.WarnCF("serve", "Synthesis server not reachable yet", map[string]any{
			"api_base": cfg.Synth.APIBase,
		})
	}
	policy := voice.DefaultRetryPolicy()

	pipeline, err := relay.NewPipeline(relay.Deps{
		Gate:          access.NewGate(cfg.AllowedUserIDs),
		Synthesizer:   voice.WithRetry(xtts, policy),
		Messenger:     channels.NewTelegramMessenger(bot),
		ReferencePath: sample.Path(),
		Language:      cfg.Synth.Language,
		WorkDir:       cfg.WorkDir,
	},
		relay.WithSynthTimeout(synthTimeout(cfg.Synth.Timeout, policy)),
		relay.WithRateLimit(cfg.Synth.RatePerMinute),
	)
	if err != nil {
		return err
	}

	transports, err := channels.NewTransports(cfg, bot, channels.NewDispatcher(pipeline))
	if err != nil {
		return err
	}

	if err := channels.RunTransports(ctx, transports...); err != nil {
		return err
	}

	logger.InfoC("serve", "voicerelay stopped")
	return nil
}
