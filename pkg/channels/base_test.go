package channels

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mymmrac/telego"
	ta "github.com/mymmrac/telego/telegoapi"

	"github.com/voicerelay/voicerelay/pkg/relay"
)

const testToken = "123456:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

// apiRecorder answers Bot API calls and records the method names.
type apiRecorder struct {
	mu      sync.Mutex
	methods []string
	failOn  string
}

func (c *apiRecorder) Call(_ context.Context, url string, _ *ta.RequestData) (*ta.Response, error) {
	method := url[strings.LastIndex(url, "/")+1:]

	c.mu.Lock()
	c.methods = append(c.methods, method)
	c.mu.Unlock()

	if method == c.failOn {
		return nil, errors.New("telegram unavailable")
	}

	switch method {
	case "sendMessage", "sendVoice":
		return &ta.Response{Ok: true, Result: []byte(`{"message_id":99,"date":0,"chat":{"id":42,"type":"private"}}`)}, nil
	default:
		return &ta.Response{Ok: true, Result: []byte("true")}, nil
	}
}

func (c *apiRecorder) Methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.methods...)
}

func newTestBot(t *testing.T, caller ta.Caller) *telego.Bot {
	t.Helper()

	bot, err := telego.NewBot(testToken,
		telego.WithAPICaller(caller),
		telego.WithDiscardLogger(),
	)
	if err != nil {
		t.Fatalf("NewBot error: %v", err)
	}
	return bot
}

type recordingHandler struct {
	mu   sync.Mutex
	msgs []relay.Message
}

func (h *recordingHandler) Dispatch(_ context.Context, msg relay.Message) relay.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	return relay.Outcome{Stage: relay.StageCleanedUp}
}

func (h *recordingHandler) Messages() []relay.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]relay.Message(nil), h.msgs...)
}

func textUpdate(id int, userID int64, text string) telego.Update {
	return telego.Update{
		UpdateID: id,
		Message: &telego.Message{
			MessageID: id * 10,
			Text:      text,
			Chat:      telego.Chat{ID: userID, Type: "private"},
			From:      &telego.User{ID: userID, FirstName: "Test"},
		},
	}
}
