package reference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/samples/your_voice.wav", r.URL.Path)
		w.Write([]byte("RIFF....WAVEfmt "))
	}))
	defer server.Close()

	dir := t.TempDir()
	sample, err := Fetch(context.Background(), server.URL+"/samples/your_voice.wav", FetchOptions{Dir: dir})
	require.NoError(t, err)

	data, err := os.ReadFile(sample.Path())
	require.NoError(t, err)
	assert.Equal(t, "RIFF....WAVEfmt ", string(data))
	assert.EqualValues(t, len(data), sample.Size())
	assert.Equal(t, ".wav", sample.Path()[len(sample.Path())-4:])

	require.NoError(t, sample.Remove())
	assert.NoFileExists(t, sample.Path())
	assert.NoError(t, sample.Remove(), "second Remove is a no-op")
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			dir := t.TempDir()
			sample, err := Fetch(context.Background(), server.URL+"/voice.wav", FetchOptions{Dir: dir})
			require.Error(t, err)
			assert.Nil(t, sample)

			entries, _ := os.ReadDir(dir)
			assert.Empty(t, entries, "no partial file may be left behind")
		})
	}
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := Fetch(context.Background(), url+"/voice.wav", FetchOptions{Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestExtensionOf(t *testing.T) {
	assert.Equal(t, ".wav", extensionOf("https://example.com/a/voice.wav"))
	assert.Equal(t, ".mp3", extensionOf("https://example.com/voice.MP3?raw=1"))
	assert.Equal(t, ".wav", extensionOf("https://example.com/voice"))
	assert.Equal(t, ".wav", extensionOf("https://example.com"))
	assert.Equal(t, ".wav", extensionOf("https://example.com/voice.verylongext"))
}
