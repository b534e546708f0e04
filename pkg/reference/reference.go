// Package reference provisions the voice sample every synthesis clones from.
package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/voicerelay/voicerelay/pkg/logger"
)

// ErrEmptySample is returned when the server answers with no audio.
var ErrEmptySample = errors.New("reference sample is empty")

// FetchOptions holds optional parameters for Fetch.
type FetchOptions struct {
	Timeout    time.Duration
	Dir        string // defaults to os.TempDir()
	HTTPClient *http.Client
}

// Sample is the downloaded reference voice. It is read-only for the lifetime
// of the process.
type Sample struct {
	path string
	size int64
}

// Path returns the local file path of the sample.
func (s *Sample) Path() string {
	return s.path
}

// Size returns the sample size in bytes.
func (s *Sample) Size() int64 {
	return s.size
}

// Remove deletes the local copy. Call it once at shutdown.
func (s *Sample) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Fetch downloads sampleURL once into a temp file. Any failure is meant to abort
// startup: there is no retry and no cache across restarts.
func Fetch(ctx context.Context, sampleURL string, opts FetchOptions) (*Sample, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	logger.InfoCF("reference", "Fetching reference voice sample", map[string]any{
		"url": sampleURL,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sampleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating reference request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading reference sample: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("downloading reference sample: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(opts.Dir, "reference-*"+extensionOf(sampleURL))
	if err != nil {
		return nil, fmt.Errorf("creating reference file: %w", err)
	}

	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("writing reference sample: %w", err)
	}
	if written == 0 {
		os.Remove(tmp.Name())
		return nil, ErrEmptySample
	}

	logger.InfoCF("reference", "Reference voice sample ready", map[string]any{
		"path":       tmp.Name(),
		"size_bytes": written,
	})

	return &Sample{path: tmp.Name(), size: written}, nil
}

// extensionOf keeps the remote file extension, falling back to .wav.
func extensionOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".wav"
	}
	ext := path.Ext(u.Path)
	if ext == "" || len(ext) > 5 {
		return ".wav"
	}
	return strings.ToLower(ext)
}
