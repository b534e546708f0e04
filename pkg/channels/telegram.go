package channels

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// NewTelegramBot builds a telego bot. proxy is an optional http(s) or socks5
// proxy URL for Bot API traffic.
func NewTelegramBot(token, proxy string, opts ...telego.BotOption) (*telego.Bot, error) {
	if proxy = strings.TrimSpace(proxy); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxy, err)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	}

	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

// TelegramMessenger sends pipeline replies through the Bot API.
type TelegramMessenger struct {
	bot *telego.Bot
}

func NewTelegramMessenger(bot *telego.Bot) *TelegramMessenger {
	return &TelegramMessenger{bot: bot}
}

func (m *TelegramMessenger) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	params := tu.Message(tu.ID(chatID), text)
	if replyTo > 0 {
		params.ReplyParameters = &telego.ReplyParameters{
			MessageID:                replyTo,
			AllowSendingWithoutReply: true,
		}
	}

	if _, err := m.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

func (m *TelegramMessenger) SendVoice(ctx context.Context, chatID int64, name string, audio io.Reader) error {
	params := tu.Voice(tu.ID(chatID), tu.File(namedReader{Reader: audio, name: name}))

	if _, err := m.bot.SendVoice(ctx, params); err != nil {
		return fmt.Errorf("telegram sendVoice: %w", err)
	}
	return nil
}

// namedReader gives a plain reader the file name the Bot API upload needs.
type namedReader struct {
	io.Reader
	name string
}

func (r namedReader) Name() string {
	return r.name
}
