package channels

import (
	"context"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicerelay/voicerelay/pkg/relay"
)

func TestDispatcher_HandleUpdate(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h)

	out, ok := d.HandleUpdate(context.Background(), textUpdate(1, 42, "नमस्ते"))
	require.True(t, ok)
	assert.Equal(t, relay.StageCleanedUp, out.Stage)

	msgs := h.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, relay.Message{CallerID: 42, ChatID: 42, MessageID: 10, Text: "नमस्ते"}, msgs[0])
}

func TestDispatcher_IgnoresNonTextUpdates(t *testing.T) {
	tests := []struct {
		name   string
		update telego.Update
	}{
		{name: "no message", update: telego.Update{UpdateID: 1}},
		{
			name: "no sender",
			update: telego.Update{UpdateID: 2, Message: &telego.Message{
				Text: "hi", Chat: telego.Chat{ID: 1},
			}},
		},
		{
			name: "no text",
			update: telego.Update{UpdateID: 3, Message: &telego.Message{
				Chat: telego.Chat{ID: 1}, From: &telego.User{ID: 1},
				Voice: &telego.Voice{FileID: "abc"},
			}},
		},
		{
			name: "edited message",
			update: telego.Update{UpdateID: 4, EditedMessage: &telego.Message{
				Text: "hi", Chat: telego.Chat{ID: 1}, From: &telego.User{ID: 1},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandler{}
			_, ok := NewDispatcher(h).HandleUpdate(context.Background(), tt.update)
			assert.False(t, ok)
			assert.Empty(t, h.Messages())
		})
	}
}

func TestDispatcher_GroupChatUsesChatID(t *testing.T) {
	h := &recordingHandler{}
	update := telego.Update{
		UpdateID: 5,
		Message: &telego.Message{
			MessageID: 3,
			Text:      "hello",
			Chat:      telego.Chat{ID: -100123, Type: "supergroup"},
			From:      &telego.User{ID: 42},
		},
	}

	_, ok := NewDispatcher(h).HandleUpdate(context.Background(), update)
	require.True(t, ok)

	msgs := h.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(42), msgs[0].CallerID)
	assert.Equal(t, int64(-100123), msgs[0].ChatID)
}
