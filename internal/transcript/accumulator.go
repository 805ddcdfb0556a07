package transcript

import (
	"strings"
	"sync"
)

type State string

const (
	Idle      State = "idle"
	Listening State = "listening"
)

// Segment is a single piece of recognized speech. Final segments will not be
// revised by the engine; interim segments are a best guess that the next
// batch replaces wholesale.
type Segment struct {
	Text  string
	Final bool
}

// Batch groups the segments delivered by one recognizer event. Resume is the
// index of the first segment relative to the stream, as reported by the
// engine; segments before it were already delivered in earlier batches.
type Batch struct {
	Resume   int
	Segments []Segment
}

// Accumulator maintains the live transcript across a stream of recognition
// events. Finalized text only ever grows; interim text is scratch space
// overwritten by every batch. The visible text is always finalized + interim.
//
// All methods are safe for concurrent use, but callers must deliver
// recognition events one at a time and in order.
type Accumulator struct {
	mu        sync.Mutex
	state     State
	finalized strings.Builder
	interim   string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{state: Idle}
}

func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetText replaces the buffer content, the same way a user edits the text
// field by hand. Interim text is discarded since it belongs to a recognition
// stream that no longer matches the buffer.
func (a *Accumulator) SetText(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finalized.Reset()
	a.finalized.WriteString(text)
	a.interim = ""
}

// Start transitions to listening. Whatever text currently occupies the
// buffer stays in place, so manual edits and voice input compose. Starting
// while already listening is a no-op; the return value reports whether the
// transition happened.
func (a *Accumulator) Start() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Listening {
		return false
	}
	a.state = Listening
	a.interim = ""
	return true
}

// Stop is the user-initiated transition to idle. No restart follows a stop:
// a stream-end event arriving afterwards finds the state already idle.
// Stopping while idle is a no-op.
func (a *Accumulator) Stop() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Idle {
		return false
	}
	a.state = Idle
	return true
}

// Apply consumes one result batch. Final segments are appended to the
// finalized text in arrival order; the interim text is replaced by the
// batch's interim segments (not accumulated, engines revise their guesses).
// Returns the visible text after the batch.
func (a *Accumulator) Apply(b Batch) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var interim strings.Builder
	for _, seg := range b.Segments {
		if seg.Final {
			if seg.Text != "" {
				if a.finalized.Len() > 0 {
					a.finalized.WriteString(" ")
				}
				a.finalized.WriteString(seg.Text)
			}
			continue
		}
		if seg.Text != "" {
			if interim.Len() > 0 {
				interim.WriteString(" ")
			}
			interim.WriteString(seg.Text)
		}
	}
	a.interim = interim.String()

	return a.textLocked()
}

// Fail forces the state to idle. Errors always stop listening; the reason is
// surfaced by the caller, not stored here.
func (a *Accumulator) Fail() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Idle
}

// StreamEnded reports whether the caller must restart the recognition
// stream. The underlying stream closes on explicit stop, on error, and on
// platform timeouts; only in the last case is the state still listening, and
// then the session must resume immediately so it never goes silently idle.
// Accumulated text is preserved either way.
func (a *Accumulator) StreamEnded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == Listening
}

// Text returns the visible transcript: finalized plus current interim.
func (a *Accumulator) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.textLocked()
}

func (a *Accumulator) textLocked() string {
	if a.interim == "" {
		return a.finalized.String()
	}
	if a.finalized.Len() == 0 {
		return a.interim
	}
	return a.finalized.String() + " " + a.interim
}

// Clear empties the buffer after a successful submission.
func (a *Accumulator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finalized.Reset()
	a.interim = ""
}
