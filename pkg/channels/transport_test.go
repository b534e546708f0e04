package channels

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicerelay/voicerelay/pkg/config"
)

func TestNewTransports(t *testing.T) {
	bot := newTestBot(t, &apiRecorder{})
	d := NewDispatcher(&recordingHandler{})

	tests := []struct {
		mode string
		want []string
	}{
		{mode: config.TransportPolling, want: []string{"polling"}},
		{mode: config.TransportWebhook, want: []string{"webhook"}},
		{mode: config.TransportBoth, want: []string{"polling", "webhook"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Transport = tt.mode

			transports, err := NewTransports(cfg, bot, d)
			require.NoError(t, err)

			var names []string
			for _, tr := range transports {
				names = append(names, tr.Name())
			}
			assert.Equal(t, tt.want, names)
		})
	}

	cfg := config.DefaultConfig()
	cfg.Transport = "smoke-signals"
	_, err := NewTransports(cfg, bot, d)
	assert.Error(t, err)
}

type stubTransport struct {
	name string
	err  error
}

func (s stubTransport) Name() string { return s.name }

func (s stubTransport) Run(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

func TestRunTransports_FailureStopsOthers(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		done <- RunTransports(context.Background(),
			stubTransport{name: "polling"},
			stubTransport{name: "webhook", err: errors.New("address already in use")},
		)
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "webhook transport")
	case <-time.After(time.Second):
		t.Fatal("RunTransports did not return")
	}
}

func TestRunTransports_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunTransports(ctx, stubTransport{name: "polling"}, stubTransport{name: "webhook"})
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunTransports did not return after cancel")
	}
}
