package channels

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	"golang.org/x/sync/errgroup"

	"github.com/voicerelay/voicerelay/pkg/config"
	"github.com/voicerelay/voicerelay/pkg/logger"
)

// Transport feeds inbound updates to a Dispatcher until its context ends.
type Transport interface {
	Name() string
	// Run blocks. It returns nil after ctx is cancelled and an error if the
	// transport cannot continue.
	Run(ctx context.Context) error
}

// NewTransports builds the transports selected by cfg.Transport.
func NewTransports(cfg *config.Config, bot *telego.Bot, dispatcher *Dispatcher) ([]Transport, error) {
	var transports []Transport

	if cfg.RunsPolling() {
		transports = append(transports, NewPollingTransport(bot, dispatcher))
	}
	if cfg.RunsWebhook() {
		transports = append(transports, NewWebhookTransport(WebhookOptions{
			Addr:      cfg.ListenAddr(),
			PublicURL: cfg.Webhook.URL,
			Secret:    cfg.Webhook.Secret,
		}, dispatcher, bot))
	}

	if len(transports) == 0 {
		return nil, fmt.Errorf("no transport selected for mode %q", cfg.Transport)
	}
	return transports, nil
}

// RunTransports runs all transports concurrently. The first failure stops
// the others; cancelling ctx stops all of them.
func RunTransports(ctx context.Context, transports ...Transport) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, t := range transports {
		g.Go(func() error {
			logger.InfoCF("channels", "Starting transport", map[string]any{
				"transport": t.Name(),
			})
			if err := t.Run(ctx); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			logger.InfoCF("channels", "Transport stopped", map[string]any{
				"transport": t.Name(),
			})
			return nil
		})
	}

	return g.Wait()
}
