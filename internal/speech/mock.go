package speech

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter plays back a scripted result sequence. Test-only; not
// exposed as a provider through NewFactory.
type MockAdapter struct {
	Script  []Result // emitted in order after Start
	Pending []Result // emitted by Finalize, like an engine flushing on CloseStream

	mu      sync.Mutex
	started bool
	closed  bool
	chunks  [][]byte

	resultsCh chan Result
	release   chan struct{}
}

func NewMockAdapter(script []Result) *MockAdapter {
	return &MockAdapter{
		Script:    script,
		resultsCh: make(chan Result, len(script)+8),
		release:   make(chan struct{}),
	}
}

func (m *MockAdapter) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("adapter already started")
	}
	m.started = true

	go func() {
		for _, r := range m.Script {
			m.resultsCh <- r
		}
		// hold the channel open until Close, like a live stream would
		<-m.release
		close(m.resultsCh)
	}()
	return nil
}

// EndStream simulates an unexpected platform-side stream end: results close
// without Close having been called.
func (m *MockAdapter) EndStream() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.release)
}

func (m *MockAdapter) SendChunk(audio []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return fmt.Errorf("adapter not started")
	}
	buf := make([]byte, len(audio))
	copy(buf, audio)
	m.chunks = append(m.chunks, buf)
	return nil
}

// Chunks returns the audio handed to the adapter so far.
func (m *MockAdapter) Chunks() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.chunks...)
}

func (m *MockAdapter) Results() <-chan Result { return m.resultsCh }

func (m *MockAdapter) Finalize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	for _, r := range m.Pending {
		m.resultsCh <- r
	}
	m.Pending = nil
	return nil
}

func (m *MockAdapter) Close() error {
	m.EndStream()
	return nil
}
