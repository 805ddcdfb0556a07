package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

const deepgramListenURL = "wss://api.deepgram.com/v1/listen"

// DeepgramAdapter streams audio to Deepgram's real-time API over a
// WebSocket. The adapter does not reconnect: when the socket dies the
// results channel closes and the owning session starts a fresh adapter,
// which is where the resume-on-unexpected-end contract lives.
type DeepgramAdapter struct {
	cfg     Config
	baseURL string
	conn    *websocket.Conn

	resultsCh chan Result
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   bool

	finalizeDone chan struct{}
}

type deepgramCloseStream struct {
	Type string `json:"type"`
}

type deepgramResponse struct {
	Type        string           `json:"type"`
	Channel     *deepgramChannel `json:"channel,omitempty"`
	Error       *deepgramError   `json:"error,omitempty"`
	IsFinal     bool             `json:"is_final,omitempty"`
	SpeechFinal bool             `json:"speech_final,omitempty"`
}

type deepgramChannel struct {
	Alternatives []deepgramAlternative `json:"alternatives,omitempty"`
}

type deepgramAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type deepgramError struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

func NewDeepgramAdapter(cfg Config) *DeepgramAdapter {
	return &DeepgramAdapter{
		cfg:          cfg,
		baseURL:      deepgramListenURL,
		resultsCh:    make(chan Result, 100),
		finalizeDone: make(chan struct{}, 1),
	}
}

func (a *DeepgramAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("adapter already started")
	}

	// The adapter outlives the caller's context: a user stop cancels the
	// session while the engine is still flushing the trailing final in
	// response to CloseStream. Only Close ends the adapter's lifetime.
	a.ctx, a.cancel = context.WithCancel(context.WithoutCancel(ctx))

	wsURL, err := a.buildURL()
	if err != nil {
		return fmt.Errorf("build websocket url: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+a.cfg.APIKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(a.ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("deepgram: dial failed with status %d", resp.StatusCode)
		}
		a.cancel()
		return fmt.Errorf("websocket dial: %w", err)
	}
	a.conn = conn
	a.started = true

	a.wg.Add(1)
	go a.readLoop()

	log.Printf("deepgram: connected, model=%s, language=%s", a.cfg.Model, a.cfg.Language)
	return nil
}

func (a *DeepgramAdapter) buildURL() (string, error) {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("model", a.cfg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", "16000")
	q.Set("channels", "1")
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	if a.cfg.Language != "" {
		q.Set("language", a.cfg.Language)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (a *DeepgramAdapter) readLoop() {
	defer a.wg.Done()
	defer close(a.resultsCh)

	for {
		select {
		case <-a.ctx.Done():
			return
		default:
		}

		_, message, err := a.conn.ReadMessage()
		if err != nil {
			// normal shutdown: Close cancelled the context first
			select {
			case <-a.ctx.Done():
			default:
				log.Printf("deepgram: read error: %v, stream ended", err)
			}
			return
		}

		var resp deepgramResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			log.Printf("deepgram: parse error: %v", err)
			continue
		}

		switch resp.Type {
		case "Results":
			if resp.Channel == nil || len(resp.Channel.Alternatives) == 0 {
				continue
			}
			transcript := resp.Channel.Alternatives[0].Transcript
			if transcript == "" {
				continue
			}
			isFinal := resp.IsFinal || resp.SpeechFinal
			if isFinal {
				select {
				case a.finalizeDone <- struct{}{}:
				default:
				}
			}
			a.resultsCh <- Result{Text: transcript, Final: isFinal}

		case "Error":
			if resp.Error != nil {
				errMsg := resp.Error.Message
				if resp.Error.Description != "" {
					errMsg = fmt.Sprintf("%s: %s", errMsg, resp.Error.Description)
				}
				a.resultsCh <- Result{Err: fmt.Errorf("deepgram: %s", errMsg)}
			}

		case "Metadata", "UtteranceEnd", "SpeechStarted":
			// informational

		default:
			log.Printf("deepgram: unknown message type: %s", resp.Type)
		}
	}
}

func (a *DeepgramAdapter) SendChunk(audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started || a.conn == nil {
		return fmt.Errorf("adapter not started")
	}

	select {
	case <-a.ctx.Done():
		return a.ctx.Err()
	default:
	}

	if err := a.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (a *DeepgramAdapter) Results() <-chan Result {
	return a.resultsCh
}

// Finalize sends CloseStream and waits for the engine to flush the last
// final result, bounded by ctx.
func (a *DeepgramAdapter) Finalize(ctx context.Context) error {
	a.mu.Lock()
	if !a.started || a.conn == nil {
		a.mu.Unlock()
		return nil
	}

	// drain a stale signal from a previous final result
	select {
	case <-a.finalizeDone:
	default:
	}

	err := a.conn.WriteJSON(deepgramCloseStream{Type: "CloseStream"})
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("finalize write: %w", err)
	}

	select {
	case <-a.finalizeDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return a.ctx.Err()
	}
}

func (a *DeepgramAdapter) Close() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.cancel()
	conn := a.conn
	a.started = false
	a.mu.Unlock()

	// close outside of the lock, readLoop may be blocked on a read
	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}

	a.wg.Wait()
	return nil
}
