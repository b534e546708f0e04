package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voicerelay/voicerelay/pkg/logger"
)

const (
	defaultXTTSAPIBase = "http://localhost:8020"
	xttsSpeechPath     = "/api/tts"
	xttsHealthPath     = "/health"
	maxErrorBodyBytes  = 4096
)

// XTTSSynthesizer talks to an XTTS-compatible voice-cloning server.
//
// Wire contract: POST {apiBase}/api/tts with a multipart form holding the
// fields "text" and "language" and the file part "speaker_wav". A 200
// response carries the WAV audio as its body.
type XTTSSynthesizer struct {
	apiBase    string
	httpClient *http.Client
}

// NewXTTSSynthesizer creates an XTTS client.
// apiBase defaults to "http://localhost:8020". A zero timeout means none.
func NewXTTSSynthesizer(apiBase string, timeout time.Duration) *XTTSSynthesizer {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = defaultXTTSAPIBase
	}

	logger.InfoCF("voice", "Creating XTTS synthesizer", map[string]any{
		"api_base": apiBase,
		"timeout":  timeout.String(),
	})

	return &XTTSSynthesizer{
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *XTTSSynthesizer) Synthesize(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	if req.OutputPath == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalidInput)
	}

	logger.DebugCF("voice", "Synthesizing speech", map[string]any{
		"text_length": len([]rune(req.Text)),
		"language":    req.Language,
		"output":      req.OutputPath,
	})

	body, contentType, err := buildXTTSForm(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+xttsSpeechPath, body)
	if err != nil {
		return fmt.Errorf("failed to create TTS request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "audio/wav")

	started := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransientError{Err: fmt.Errorf("TTS request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return classifyStatus(resp.StatusCode, string(bytes.TrimSpace(b)))
	}

	written, err := writeArtifact(req.OutputPath, resp.Body)
	if err != nil {
		return err
	}

	logger.InfoCF("voice", "Speech synthesized", map[string]any{
		"path":       req.OutputPath,
		"size_bytes": written,
		"took":       time.Since(started).String(),
	})
	return nil
}

func buildXTTSForm(req Request) (io.Reader, string, error) {
	speaker, err := os.Open(req.SpeakerWav)
	if err != nil {
		return nil, "", fmt.Errorf("%w: opening reference sample: %w", ErrInvalidInput, err)
	}
	defer speaker.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("text", req.Text); err != nil {
		return nil, "", fmt.Errorf("failed to write text field: %w", err)
	}
	if err := writer.WriteField("language", req.Language); err != nil {
		return nil, "", fmt.Errorf("failed to write language field: %w", err)
	}

	part, err := writer.CreateFormFile("speaker_wav", filepath.Base(req.SpeakerWav))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create speaker_wav part: %w", err)
	}
	if _, err := io.Copy(part, speaker); err != nil {
		return nil, "", fmt.Errorf("failed to copy reference sample: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// writeArtifact streams audio to path. Partial files are removed.
func writeArtifact(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create audio file: %w", err)
	}

	written, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(path)
		return 0, &TransientError{Err: fmt.Errorf("failed to write TTS audio: %w", err)}
	}
	if written == 0 {
		os.Remove(path)
		return 0, &TransientError{Err: errors.New("synthesis server returned empty audio")}
	}

	return written, nil
}

// IsAvailable checks if the XTTS server answers its health endpoint.
func (s *XTTSSynthesizer) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+xttsHealthPath, nil)
	if err != nil {
		return false
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.DebugCF("voice", "XTTS health check failed", map[string]any{
			"error": err.Error(),
		})
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
