package voice

import "context"

// Request describes one voice-cloning synthesis.
type Request struct {
	Text       string // already normalised
	SpeakerWav string // path to the reference voice sample
	Language   string // e.g. "hi"
	OutputPath string // where the audio artifact must be written
}

// Synthesizer turns text into an audio file at req.OutputPath.
// The call blocks until the file is complete; on error no file is left behind.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) error
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, req Request) error

func (f SynthesizerFunc) Synthesize(ctx context.Context, req Request) error {
	return f(ctx, req)
}
