package channels

import (
	"context"
	"errors"
	"fmt"

	"github.com/mymmrac/telego"

	"github.com/voicerelay/voicerelay/pkg/logger"
)

const pollingTimeoutSeconds = 30

// PollingTransport pulls updates with getUpdates and handles them one at a
// time.
type PollingTransport struct {
	dispatcher    *Dispatcher
	deleteWebhook func(ctx context.Context) error
	updates       func(ctx context.Context) (<-chan telego.Update, error)
}

func NewPollingTransport(bot *telego.Bot, dispatcher *Dispatcher) *PollingTransport {
	return &PollingTransport{
		dispatcher: dispatcher,
		deleteWebhook: func(ctx context.Context) error {
			return bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{})
		},
		updates: func(ctx context.Context) (<-chan telego.Update, error) {
			return bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
				Timeout:        pollingTimeoutSeconds,
				AllowedUpdates: []string{"message"},
			})
		},
	}
}

func (t *PollingTransport) Name() string {
	return "polling"
}

func (t *PollingTransport) Run(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot (polling mode)...")

	// getUpdates is refused while a webhook is registered.
	if err := t.deleteWebhook(ctx); err != nil {
		logger.WarnCF("telegram", "Failed to delete webhook before polling", map[string]any{
			"error": err.Error(),
		})
	}

	updates, err := t.updates(ctx)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("updates channel closed")
			}
			t.dispatcher.HandleUpdate(ctx, update)
		}
	}
}
