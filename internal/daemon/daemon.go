// Package daemon is the long-running dictation process. It holds the
// transcript buffer, runs listening sessions against it, and submits the
// buffer as feedback on request. Clients talk to it over the control
// socket.
package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/voxfeed/voxfeed/internal/bus"
	"github.com/voxfeed/voxfeed/internal/config"
	"github.com/voxfeed/voxfeed/internal/notify"
	"github.com/voxfeed/voxfeed/internal/recording"
	"github.com/voxfeed/voxfeed/internal/session"
	"github.com/voxfeed/voxfeed/internal/speech"
	"github.com/voxfeed/voxfeed/internal/submit"
	"github.com/voxfeed/voxfeed/internal/transcript"
)

const submitTimeout = 20 * time.Second

// ConfigSource is satisfied by config.Manager; tests supply a static one.
type ConfigSource interface {
	GetConfig() *config.Config
}

type Daemon struct {
	mu       sync.Mutex
	conf     ConfigSource
	notifier notify.Notifier

	acc  *transcript.Accumulator
	sess *session.Session

	// inflight guards against double submission: while a submission is on
	// the wire the daemon refuses further submit commands.
	inflight atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(conf ConfigSource, n notify.Notifier) *Daemon {
	if n == nil {
		n = notify.Desktop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		conf:     conf,
		notifier: n,
		acc:      transcript.NewAccumulator(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		log.Printf("daemon: received signal %v, shutting down", sig)
		d.cancel()
	}()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("daemon: listening on control socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.stopSession()
				log.Printf("daemon: shutdown requested")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("daemon: client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	cmd, payload, err := bus.ParseCommand(line)
	if err != nil {
		fmt.Fprint(c, "ERR empty\n")
		return
	}

	switch cmd {
	case bus.CmdToggle:
		if err := d.toggle(); err != nil {
			fmt.Fprintf(c, "ERR %v\n", err)
			return
		}
		fmt.Fprint(c, "OK toggled\n")

	case bus.CmdSubmit:
		if err := d.submit(payload); err != nil {
			fmt.Fprintf(c, "ERR %v\n", err)
			return
		}
		fmt.Fprint(c, "OK submitted\n")

	case bus.CmdDraft:
		d.acc.SetText(payload)
		fmt.Fprint(c, "OK draft\n")

	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS state=%s buffer=%q\n", d.acc.State(), preview(d.acc.Text()))

	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)

	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()

	default:
		log.Printf("daemon: unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

// toggle starts a listening session when idle and stops it when listening.
// A start checks recording and recognition capability up front so a broken
// setup fails loudly instead of producing a dead session.
func (d *Daemon) toggle() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.acc.State() == transcript.Listening {
		if d.sess != nil {
			d.sess.Stop()
			d.sess = nil
		}
		return nil
	}

	cfg := d.conf.GetConfig()

	checkCtx, cancel := context.WithTimeout(d.ctx, 3*time.Second)
	defer cancel()
	if err := recording.CheckAvailable(checkCtx); err != nil {
		d.notifier.Error("audio capture unavailable: " + err.Error())
		return fmt.Errorf("audio capture unavailable: %w", err)
	}

	factory, err := speech.NewFactory(cfg.ToSpeechConfig())
	if err != nil {
		d.notifier.Error("speech recognition unavailable: " + err.Error())
		return fmt.Errorf("speech recognition unavailable: %w", err)
	}

	recorder := recording.NewRecorder(cfg.ToRecordingConfig())
	sess := session.New(recorder, factory, d.acc, d.notifier)
	sess.Run(d.ctx)
	d.sess = sess
	return nil
}

// submit sends the transcript buffer to the feedback endpoint. A non-empty
// payload replaces the buffer first (the client edited the draft). The
// buffer is cleared only after the server confirms the append, so a failed
// submission can simply be retried.
func (d *Daemon) submit(payload string) error {
	if !d.inflight.CompareAndSwap(false, true) {
		return fmt.Errorf("submission already in progress")
	}
	defer d.inflight.Store(false)

	d.stopSession()
	if payload != "" {
		d.acc.SetText(payload)
	}

	cfg := d.conf.GetConfig()
	loc, err := cfg.Timezone()
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	ctx, cancel := context.WithTimeout(d.ctx, submitTimeout)
	defer cancel()

	client := submit.NewClient(cfg.Submission.Endpoint, loc)
	if err := client.Submit(ctx, d.acc.Text()); err != nil {
		d.notifier.SubmitFailed(err.Error())
		return err
	}

	d.acc.Clear()
	d.notifier.Submitted()
	return nil
}

// stopSession ends any running session so pending finals land in the
// buffer before it is read.
func (d *Daemon) stopSession() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess != nil {
		d.sess.Stop()
		d.sess = nil
	}
}

// preview trims the buffer for status lines.
func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 60 {
		return text[:57] + "..."
	}
	return text
}
