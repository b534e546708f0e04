package channels

import (
	"context"

	"github.com/mymmrac/telego"

	"github.com/voicerelay/voicerelay/pkg/logger"
	"github.com/voicerelay/voicerelay/pkg/relay"
)

// Handler processes one inbound message. *relay.Pipeline implements it.
type Handler interface {
	Dispatch(ctx context.Context, msg relay.Message) relay.Outcome
}

// Dispatcher converts Telegram updates into relay messages. Both transports
// share one Dispatcher.
type Dispatcher struct {
	handler Handler
}

func NewDispatcher(handler Handler) *Dispatcher {
	return &Dispatcher{handler: handler}
}

// HandleUpdate dispatches update and reports whether it carried a text
// message. Edits, callbacks, media and service messages are ignored.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update telego.Update) (relay.Outcome, bool) {
	msg, ok := messageFromUpdate(update)
	if !ok {
		logger.DebugCF("telegram", "Ignoring update without text message", map[string]any{
			"update_id": update.UpdateID,
		})
		return relay.Outcome{}, false
	}

	logger.DebugCF("telegram", "Received message", map[string]any{
		"user_id":    msg.CallerID,
		"chat_id":    msg.ChatID,
		"message_id": msg.MessageID,
		"length":     len(msg.Text),
	})

	return d.handler.Dispatch(ctx, msg), true
}

func messageFromUpdate(update telego.Update) (relay.Message, bool) {
	message := update.Message
	if message == nil || message.From == nil || message.Text == "" {
		return relay.Message{}, false
	}

	return relay.Message{
		CallerID:  message.From.ID,
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		Text:      message.Text,
	}, true
}
