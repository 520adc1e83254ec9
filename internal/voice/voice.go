package voice

import "context"

// Provider abstracts a speech backend. Transcribe returns ("", nil) when the
// backend yields no recognizable speech; that is a soft miss, not an error.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
	Synthesize(ctx context.Context, text, language, voiceName string) ([]byte, error)
}
