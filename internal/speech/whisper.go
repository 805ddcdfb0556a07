package speech

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

// WhisperAdapter adapts OpenAI's batch transcription API to the streaming
// interface. Audio is buffered for the whole stream and transcribed in one
// call when the caller finalizes, producing a single final result. No
// interim results are ever emitted.
type WhisperAdapter struct {
	cfg    Config
	client *openai.Client

	mu      sync.Mutex
	audio   bytes.Buffer
	started bool
	done    bool

	resultsCh chan Result
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewWhisperAdapter(cfg Config) *WhisperAdapter {
	return &WhisperAdapter{
		cfg:       cfg,
		client:    openai.NewClient(cfg.APIKey),
		resultsCh: make(chan Result, 1),
	}
}

func (a *WhisperAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return fmt.Errorf("adapter already started")
	}
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.started = true
	return nil
}

func (a *WhisperAdapter) SendChunk(audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return fmt.Errorf("adapter not started")
	}
	_, err := a.audio.Write(audio)
	return err
}

func (a *WhisperAdapter) Results() <-chan Result {
	return a.resultsCh
}

// Finalize transcribes everything buffered so far and emits the text as one
// final result.
func (a *WhisperAdapter) Finalize(ctx context.Context) error {
	a.mu.Lock()
	if !a.started || a.done {
		a.mu.Unlock()
		return nil
	}
	a.done = true
	raw := make([]byte, a.audio.Len())
	copy(raw, a.audio.Bytes())
	a.mu.Unlock()

	if len(raw) == 0 {
		return nil
	}

	req := openai.AudioRequest{
		Model:    a.cfg.Model,
		Reader:   bytes.NewReader(pcmToWAV(raw)),
		FilePath: "audio.wav",
		Language: a.cfg.Language,
	}

	start := time.Now()
	resp, err := a.client.CreateTranscription(ctx, req)
	if err != nil {
		log.Printf("whisper: transcription failed after %v: %v", time.Since(start), err)
		a.resultsCh <- Result{Err: fmt.Errorf("openai transcription: %w", err)}
		return fmt.Errorf("openai transcription: %w", err)
	}

	log.Printf("whisper: transcribed %d bytes in %v", len(raw), time.Since(start))
	if resp.Text != "" {
		a.resultsCh <- Result{Text: resp.Text, Final: true}
	}
	return nil
}

func (a *WhisperAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	a.started = false
	a.cancel()
	close(a.resultsCh)
	return nil
}
