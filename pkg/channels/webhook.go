package channels

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mymmrac/telego"

	"github.com/voicerelay/voicerelay/pkg/logger"
)

const (
	// LivenessText is the body of GET /.
	LivenessText = "Bot is running!"

	secretTokenHeader      = "X-Telegram-Bot-Api-Secret-Token"
	maxWebhookBodyBytes    = 1 << 20
	webhookShutdownTimeout = 5 * time.Second
)

type WebhookOptions struct {
	Addr string
	// PublicURL, when set, is registered with Telegram on start.
	PublicURL string
	// Secret, when set, must match the secret token header on every POST.
	Secret string
}

type webhookRegistrar interface {
	SetWebhook(ctx context.Context, params *telego.SetWebhookParams) error
}

// WebhookTransport serves Telegram webhook deliveries on "/".
type WebhookTransport struct {
	opts       WebhookOptions
	dispatcher *Dispatcher
	registrar  webhookRegistrar

	// lifetime bounds dispatch once serve runs. Updates outlive the HTTP
	// request that delivered them.
	lifetime context.Context
}

// NewWebhookTransport returns a webhook transport. registrar may be nil, in
// which case the webhook URL is never registered.
func NewWebhookTransport(opts WebhookOptions, dispatcher *Dispatcher, registrar webhookRegistrar) *WebhookTransport {
	return &WebhookTransport{
		opts:       opts,
		dispatcher: dispatcher,
		registrar:  registrar,
	}
}

func (t *WebhookTransport) Name() string {
	return "webhook"
}

// Handler returns the HTTP handler for the webhook endpoint.
func (t *WebhookTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", t.handleRoot)
	return mux
}

func (t *WebhookTransport) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", t.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", t.opts.Addr, err)
	}
	return t.serve(ctx, listener)
}

func (t *WebhookTransport) serve(ctx context.Context, listener net.Listener) error {
	t.lifetime = ctx
	server := &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.InfoCF("webhook", "Webhook server listening", map[string]any{
		"address": listener.Addr().String(),
	})

	if err := t.register(ctx); err != nil {
		shutdown(server)
		return err
	}

	select {
	case <-ctx.Done():
		shutdown(server)
		return nil
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

func (t *WebhookTransport) register(ctx context.Context) error {
	if t.opts.PublicURL == "" || t.registrar == nil {
		return nil
	}

	err := t.registrar.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            t.opts.PublicURL,
		SecretToken:    t.opts.Secret,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	logger.InfoCF("webhook", "Webhook registered with Telegram", map[string]any{
		"url": t.opts.PublicURL,
	})
	return nil
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), webhookShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WarnCF("webhook", "Webhook server shutdown error", map[string]any{
			"error": err.Error(),
		})
	}
}

func (t *WebhookTransport) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		writeText(w, http.StatusOK, LivenessText)
	case http.MethodPost:
		t.handleUpdate(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		writeText(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (t *WebhookTransport) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if t.opts.Secret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(t.opts.Secret)) != 1 {
			logger.WarnCF("webhook", "Rejected update with bad secret token", map[string]any{
				"remote": r.RemoteAddr,
			})
			writeText(w, http.StatusForbidden, "forbidden")
			return
		}
	}

	var update telego.Update
	body := http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		logger.WarnCF("webhook", "Malformed update", map[string]any{
			"error": err.Error(),
		})
		writeText(w, http.StatusBadRequest, "bad request")
		return
	}

	// Telegram redelivers on non-2xx, so failures past decoding still get OK.
	t.dispatcher.HandleUpdate(t.dispatchContext(r), update)
	writeText(w, http.StatusOK, "OK")
}

// dispatchContext detaches the relay from the sender's connection. Only
// shutdown or the pipeline's own timeout cut it short.
func (t *WebhookTransport) dispatchContext(r *http.Request) context.Context {
	if t.lifetime != nil {
		return t.lifetime
	}
	return context.WithoutCancel(r.Context())
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
