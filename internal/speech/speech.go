package speech

import (
	"context"
	"fmt"
)

// Result is one recognition event from a streaming adapter.
type Result struct {
	Text  string // recognized text (interim or final)
	Final bool   // true once the engine will not revise this text
	Err   error  // non-nil when the adapter hit an unrecoverable error
}

// StreamAdapter is a live speech-to-text stream. The Results channel closes
// when the stream ends for any reason; callers decide whether to start a new
// adapter (see session package).
type StreamAdapter interface {
	// Start opens the stream. A started adapter cannot be restarted; build
	// a fresh one instead.
	Start(ctx context.Context) error

	// SendChunk forwards raw audio to the engine.
	SendChunk(audio []byte) error

	// Results delivers interim and final recognition results in order.
	Results() <-chan Result

	// Finalize signals end of audio and waits for the engine to commit
	// pending results, bounded by ctx.
	Finalize(ctx context.Context) error

	// Close tears the stream down.
	Close() error
}

// Config selects and configures a recognition backend.
type Config struct {
	Provider string
	APIKey   string
	Language string
	Model    string
}

// CapabilityError means speech recognition cannot work in this environment
// at all. It is permanent for the session: dictation is disabled, typed
// submission still works.
type CapabilityError struct {
	Reason string
}

func (e *CapabilityError) Error() string {
	return "speech capability unavailable: " + e.Reason
}

// Factory builds a fresh adapter per stream. Each restart after a stream end
// goes through the factory again so no adapter state leaks across streams.
type Factory func() (StreamAdapter, error)

// NewFactory validates the configuration once and returns a Factory for it.
// Configuration problems surface here as a *CapabilityError.
func NewFactory(cfg Config) (Factory, error) {
	switch cfg.Provider {
	case "deepgram":
		if cfg.APIKey == "" {
			return nil, &CapabilityError{Reason: "deepgram API key not configured"}
		}
		return func() (StreamAdapter, error) {
			return NewDeepgramAdapter(cfg), nil
		}, nil

	case "openai":
		if cfg.APIKey == "" {
			return nil, &CapabilityError{Reason: "OpenAI API key not configured"}
		}
		return func() (StreamAdapter, error) {
			return NewWhisperAdapter(cfg), nil
		}, nil

	default:
		return nil, &CapabilityError{Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}
