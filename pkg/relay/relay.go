// Package relay turns an inbound chat message into a cloned-voice reply.
//
// Per message the pipeline moves through
//
//	received → gated → normalized → synthesizing → delivering → cleaned_up
//
// and stops early in StageDenied (caller not allowed) or StageFailed
// (synthesis or delivery error). Every run returns an Outcome.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicerelay/voicerelay/pkg/access"
	"github.com/voicerelay/voicerelay/pkg/logger"
	"github.com/voicerelay/voicerelay/pkg/ratelimit"
	"github.com/voicerelay/voicerelay/pkg/textnorm"
	"github.com/voicerelay/voicerelay/pkg/voice"
)

// Fixed replies.
const (
	DeniedReply    = "🚫 Access denied."
	WelcomeReply   = "👋 Hindi mein koi bhi message bhejo — main uski awaaz bana dunga!"
	ErrorReply     = "⚠️ Voice generate karne mein error aaya."
	ThrottledReply = "⏳ Bahut saare messages. Thodi der baad try karo."
)

// Message is the read-only view of one inbound chat message.
type Message struct {
	CallerID  int64
	ChatID    int64
	MessageID int
	Text      string
}

// Messenger sends replies back to the chat platform.
type Messenger interface {
	// Reply sends text as a reply to message replyTo in chatID.
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
	// SendVoice sends audio as a voice message to chatID.
	SendVoice(ctx context.Context, chatID int64, name string, audio io.Reader) error
}

// Deps are the collaborators a Pipeline is built from. They are fixed for
// the lifetime of the Pipeline.
type Deps struct {
	Gate          *access.Gate
	Synthesizer   voice.Synthesizer
	Messenger     Messenger
	ReferencePath string
	Language      string
	WorkDir       string
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	deps         Deps
	synthTimeout time.Duration
	newRequestID func() string

	limiter *ratelimit.Limiter
}

type Option func(*Pipeline)

// WithSynthTimeout bounds a single message's synthesis, retries included.
func WithSynthTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.synthTimeout = d }
}

// WithRateLimit allows each caller at most perMinute synthesis requests per
// minute. Zero disables the limit.
func WithRateLimit(perMinute int) Option {
	return func(p *Pipeline) {
		p.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: perMinute})
	}
}

// WithRequestID overrides the artifact suffix generator.
func WithRequestID(fn func() string) Option {
	return func(p *Pipeline) { p.newRequestID = fn }
}

func NewPipeline(deps Deps, opts ...Option) (*Pipeline, error) {
	var errs []error
	if deps.Gate == nil {
		errs = append(errs, errors.New("gate is required"))
	}
	if deps.Synthesizer == nil {
		errs = append(errs, errors.New("synthesizer is required"))
	}
	if deps.Messenger == nil {
		errs = append(errs, errors.New("messenger is required"))
	}
	if deps.ReferencePath == "" {
		errs = append(errs, errors.New("reference sample path is required"))
	}
	if deps.Language == "" {
		errs = append(errs, errors.New("language is required"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("relay: %w", errors.Join(errs...))
	}
	if deps.WorkDir == "" {
		deps.WorkDir = os.TempDir()
	}

	p := &Pipeline{
		deps:         deps,
		newRequestID: shortRequestID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func shortRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Dispatch routes a message to the greeting handler or the voice relay.
func (p *Pipeline) Dispatch(ctx context.Context, msg Message) Outcome {
	if IsGreeting(msg.Text) {
		return p.HandleGreeting(ctx, msg)
	}
	return p.HandleMessage(ctx, msg)
}

// HandleGreeting answers /start and /help.
func (p *Pipeline) HandleGreeting(ctx context.Context, msg Message) Outcome {
	if !p.deps.Gate.Allowed(msg.CallerID) {
		return p.deny(ctx, msg)
	}
	if err := p.deps.Messenger.Reply(ctx, msg.ChatID, msg.MessageID, WelcomeReply); err != nil {
		logger.ErrorCF("relay", "Failed to send welcome", map[string]any{
			"user_id": msg.CallerID,
			"chat_id": msg.ChatID,
			"error":   err.Error(),
		})
		return Outcome{Stage: StageFailed, Err: fmt.Errorf("sending welcome: %w", err)}
	}
	return Outcome{Stage: StageGated}
}

// HandleMessage runs the full relay for one text message.
func (p *Pipeline) HandleMessage(ctx context.Context, msg Message) Outcome {
	if !p.deps.Gate.Allowed(msg.CallerID) {
		return p.deny(ctx, msg)
	}

	if !p.limiter.Allow(msg.CallerID) {
		logger.WarnCF("relay", "Caller throttled", map[string]any{
			"user_id":     msg.CallerID,
			"retry_after": p.limiter.RetryAfter(msg.CallerID).Round(time.Second).String(),
		})
		if err := p.deps.Messenger.Reply(ctx, msg.ChatID, msg.MessageID, ThrottledReply); err != nil {
			return Outcome{Stage: StageThrottled, Err: fmt.Errorf("sending throttle notice: %w", err)}
		}
		return Outcome{Stage: StageThrottled}
	}

	text := textnorm.Normalize(msg.Text)
	artifact := p.ArtifactPath(msg.CallerID)

	started := time.Now()
	outcome := p.synthesizeAndDeliver(ctx, msg, text, artifact)
	p.cleanup(artifact)

	if outcome.Err != nil {
		logger.ErrorCF("relay", "Voice relay failed", map[string]any{
			"user_id": msg.CallerID,
			"chat_id": msg.ChatID,
			"stage":   outcome.Stage.String(),
			"error":   outcome.Err.Error(),
		})
		if err := p.deps.Messenger.Reply(ctx, msg.ChatID, msg.MessageID, ErrorReply); err != nil {
			logger.ErrorCF("relay", "Failed to send error reply", map[string]any{
				"chat_id": msg.ChatID,
				"error":   err.Error(),
			})
		}
		outcome.Stage = StageFailed
		return outcome
	}

	logger.InfoCF("relay", "Voice reply delivered", map[string]any{
		"user_id": msg.CallerID,
		"chat_id": msg.ChatID,
		"took":    time.Since(started).String(),
	})
	outcome.Stage = StageCleanedUp
	return outcome
}

// synthesizeAndDeliver returns the stage it stopped in; Err is set on failure.
func (p *Pipeline) synthesizeAndDeliver(ctx context.Context, msg Message, text, artifact string) Outcome {
	synthCtx := ctx
	if p.synthTimeout > 0 {
		var cancel context.CancelFunc
		synthCtx, cancel = context.WithTimeout(ctx, p.synthTimeout)
		defer cancel()
	}

	err := p.deps.Synthesizer.Synthesize(synthCtx, voice.Request{
		Text:       text,
		SpeakerWav: p.deps.ReferencePath,
		Language:   p.deps.Language,
		OutputPath: artifact,
	})
	if err != nil {
		return Outcome{Stage: StageSynthesizing, Artifact: artifact, Err: fmt.Errorf("synthesizing: %w", err)}
	}

	audio, err := os.Open(artifact)
	if err != nil {
		return Outcome{Stage: StageDelivering, Artifact: artifact, Err: fmt.Errorf("opening artifact: %w", err)}
	}
	defer audio.Close()

	if err := p.deps.Messenger.SendVoice(ctx, msg.ChatID, filepath.Base(artifact), audio); err != nil {
		return Outcome{Stage: StageDelivering, Artifact: artifact, Err: fmt.Errorf("sending voice: %w", err)}
	}

	return Outcome{Stage: StageDelivering, Artifact: artifact}
}

func (p *Pipeline) deny(ctx context.Context, msg Message) Outcome {
	logger.InfoCF("relay", "Access denied", map[string]any{
		"user_id": msg.CallerID,
		"chat_id": msg.ChatID,
	})
	if err := p.deps.Messenger.Reply(ctx, msg.ChatID, msg.MessageID, DeniedReply); err != nil {
		return Outcome{Stage: StageDenied, Err: fmt.Errorf("sending denial: %w", err)}
	}
	return Outcome{Stage: StageDenied}
}

// cleanup removes the artifact whatever happened after synthesis started.
func (p *Pipeline) cleanup(artifact string) {
	if err := os.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnCF("relay", "Failed to remove artifact", map[string]any{
			"path":  artifact,
			"error": err.Error(),
		})
	}
}

// ArtifactPath returns a fresh output path for callerID. Two calls never
// return the same path, so concurrent messages from one caller do not race.
func (p *Pipeline) ArtifactPath(callerID int64) string {
	return filepath.Join(p.deps.WorkDir, fmt.Sprintf("output_%d_%s.wav", callerID, p.newRequestID()))
}
