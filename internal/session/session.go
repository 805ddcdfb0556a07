// Package session runs one dictation session: it wires captured audio into
// a speech recognizer and recognition results into the transcript
// accumulator, restarting the recognition stream whenever it ends while the
// user still expects to be heard.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/voxfeed/voxfeed/internal/notify"
	"github.com/voxfeed/voxfeed/internal/recording"
	"github.com/voxfeed/voxfeed/internal/speech"
	"github.com/voxfeed/voxfeed/internal/transcript"
)

const finalizeTimeout = 2 * time.Second

// FrameSource produces audio frames: the recording.Recorder in production,
// a fake in tests.
type FrameSource interface {
	Start(ctx context.Context) (<-chan recording.Frame, <-chan error, error)
	Stop() error
}

// Session owns the event loop for one listening session. All accumulator
// events are delivered from the single run goroutine, so they arrive
// strictly one at a time and in order.
type Session struct {
	source   FrameSource
	factory  speech.Factory
	acc      *transcript.Accumulator
	notifier notify.Notifier

	// OnUpdate, when set, receives the visible transcript after every
	// applied result batch.
	OnUpdate func(text string)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(source FrameSource, factory speech.Factory, acc *transcript.Accumulator, n notify.Notifier) *Session {
	if n == nil {
		n = notify.Nop{}
	}
	return &Session{
		source:   source,
		factory:  factory,
		acc:      acc,
		notifier: n,
	}
}

// Run starts the session loop in the background. Use Stop to end it.
func (s *Session) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop is the user-initiated stop. It is idempotent and blocks until the
// loop has fully wound down.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()

	if !s.acc.Start() {
		log.Printf("session: already listening")
		return
	}
	s.notifier.ListeningChanged(true)
	defer s.notifier.ListeningChanged(false)

	frameCh, recErrCh, err := s.source.Start(ctx)
	if err != nil {
		s.fail("audio capture failed: " + err.Error())
		return
	}
	defer s.source.Stop()

	adapter, err := s.startStream(ctx)
	if err != nil {
		s.fail("recognition start failed: " + err.Error())
		return
	}

	seq := 0
	for {
		select {
		case frame, ok := <-frameCh:
			if !ok {
				frameCh = nil // recorder drained, keep consuming results
				continue
			}
			if err := adapter.SendChunk(frame.Data); err != nil {
				// non-fatal: the stream end or an engine error follows
				log.Printf("session: send chunk: %v", err)
			}

		case err, ok := <-recErrCh:
			if !ok {
				recErrCh = nil
				continue
			}
			if err != nil {
				s.fail("audio capture error: " + err.Error())
				s.shutdownStream(adapter)
				return
			}

		case result, ok := <-adapter.Results():
			if !ok {
				if ctx.Err() != nil {
					s.acc.Stop()
					s.shutdownStream(adapter)
					return
				}
				if !s.acc.StreamEnded() {
					// explicit stop or error already went idle
					return
				}
				// the platform closed the stream under us: resume
				// immediately, keeping accumulated text as-is
				log.Printf("session: stream ended while listening, restarting")
				adapter, err = s.startStream(ctx)
				if err != nil {
					s.fail("recognition restart failed: " + err.Error())
					return
				}
				continue
			}

			if result.Err != nil {
				s.fail(result.Err.Error())
				s.shutdownStream(adapter)
				return
			}

			seq++
			text := s.acc.Apply(transcript.Batch{
				Resume:   seq - 1,
				Segments: []transcript.Segment{{Text: result.Text, Final: result.Final}},
			})
			if s.OnUpdate != nil {
				s.OnUpdate(text)
			}

		case <-ctx.Done():
			s.acc.Stop()
			s.drainFinal(adapter)
			return
		}
	}
}

func (s *Session) startStream(ctx context.Context) (speech.StreamAdapter, error) {
	adapter, err := s.factory()
	if err != nil {
		return nil, err
	}
	if err := adapter.Start(ctx); err != nil {
		return nil, err
	}
	return adapter, nil
}

// fail surfaces the reason to the user and forces idle. Errors never
// trigger a restart.
func (s *Session) fail(reason string) {
	log.Printf("session: %s", reason)
	s.notifier.Error(reason)
	s.acc.Fail()
}

func (s *Session) shutdownStream(adapter speech.StreamAdapter) {
	if err := adapter.Close(); err != nil {
		log.Printf("session: close stream: %v", err)
	}
}

// drainFinal flushes pending results after a user stop so the last spoken
// words still land in the transcript.
func (s *Session) drainFinal(adapter speech.StreamAdapter) {
	finCtx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	if err := adapter.Finalize(finCtx); err != nil {
		log.Printf("session: finalize: %v", err)
	}
	s.shutdownStream(adapter)

	for result := range adapter.Results() {
		if result.Err != nil || !result.Final {
			continue
		}
		text := s.acc.Apply(transcript.Batch{
			Segments: []transcript.Segment{{Text: result.Text, Final: true}},
		})
		if s.OnUpdate != nil {
			s.OnUpdate(text)
		}
	}
}
