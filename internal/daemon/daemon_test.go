package daemon

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/voxfeed/voxfeed/internal/config"
	"github.com/voxfeed/voxfeed/internal/notify"
)

type staticConf struct {
	cfg config.Config
}

func (s staticConf) GetConfig() *config.Config {
	cfg := s.cfg
	return &cfg
}

func newTestDaemon(cfg config.Config) *Daemon {
	return New(staticConf{cfg: cfg}, notify.Nop{})
}

// roundTrip drives one command through the daemon's connection handler and
// returns the response line.
func roundTrip(t *testing.T, d *Daemon, line string) string {
	t.Helper()

	client, server := net.Pipe()
	defer client.Close()
	go d.handle(server)

	if _, err := client.Write([]byte(line)); err != nil {
		t.Fatalf("write command: %v", err)
	}
	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return strings.TrimRight(resp, "\n")
}

func TestDraftAndStatus(t *testing.T) {
	d := newTestDaemon(*config.Default())

	resp := roundTrip(t, d, "d needs dark mode\n")
	if resp != "OK draft" {
		t.Fatalf("draft response = %q", resp)
	}

	status := roundTrip(t, d, "s\n")
	if !strings.Contains(status, "state=idle") {
		t.Errorf("status = %q, want idle state", status)
	}
	if !strings.Contains(status, `"needs dark mode"`) {
		t.Errorf("status = %q, want draft text in buffer", status)
	}
}

func TestSubmitSendsBufferAndClears(t *testing.T) {
	var got struct {
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	cfg := *config.Default()
	cfg.Submission.Endpoint = srv.URL
	d := newTestDaemon(cfg)
	d.acc.SetText("Great app")

	resp := roundTrip(t, d, "f\n")
	if resp != "OK submitted" {
		t.Fatalf("submit response = %q", resp)
	}
	if got.Text != "Great app" {
		t.Errorf("submitted text = %q, want %q", got.Text, "Great app")
	}
	if got.Timestamp == "" {
		t.Error("submitted timestamp is empty")
	}
	if d.acc.Text() != "" {
		t.Errorf("buffer not cleared after submit: %q", d.acc.Text())
	}
}

func TestSubmitPayloadReplacesBuffer(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotText = body.Text
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	cfg := *config.Default()
	cfg.Submission.Endpoint = srv.URL
	d := newTestDaemon(cfg)
	d.acc.SetText("old draft")

	resp := roundTrip(t, d, "f edited final text\n")
	if resp != "OK submitted" {
		t.Fatalf("submit response = %q", resp)
	}
	if gotText != "edited final text" {
		t.Errorf("submitted text = %q, want edited payload", gotText)
	}
}

func TestSubmitRejectedKeepsBuffer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false, "error": "text and timestamp are required"}`))
	}))
	defer srv.Close()

	cfg := *config.Default()
	cfg.Submission.Endpoint = srv.URL
	d := newTestDaemon(cfg)
	d.acc.SetText("keep me")

	resp := roundTrip(t, d, "f\n")
	if !strings.HasPrefix(resp, "ERR ") {
		t.Fatalf("submit response = %q, want ERR", resp)
	}
	if d.acc.Text() != "keep me" {
		t.Errorf("buffer = %q, want draft retained for retry", d.acc.Text())
	}
}

func TestSubmitEmptyBuffer(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	cfg := *config.Default()
	cfg.Submission.Endpoint = srv.URL
	d := newTestDaemon(cfg)

	resp := roundTrip(t, d, "f\n")
	if !strings.HasPrefix(resp, "ERR ") {
		t.Fatalf("submit response = %q, want ERR", resp)
	}
	if requests != 0 {
		t.Errorf("empty submit made %d requests, want none", requests)
	}
}

func TestSubmitRefusedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()
	defer close(release)

	cfg := *config.Default()
	cfg.Submission.Endpoint = srv.URL
	d := newTestDaemon(cfg)
	d.acc.SetText("slow submit")

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- d.submit("")
	}()

	// Wait until the first submission is actually in flight.
	deadline := time.Now().Add(2 * time.Second)
	for !d.inflight.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first submission never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	second := roundTrip(t, d, "f\n")
	if !strings.Contains(second, "already in progress") {
		t.Errorf("second submit = %q, want in-progress refusal", second)
	}

	release <- struct{}{}
	if err := <-firstDone; err != nil {
		t.Errorf("first submit failed: %v", err)
	}
}

func TestVersionAndUnknown(t *testing.T) {
	d := newTestDaemon(*config.Default())

	if resp := roundTrip(t, d, "v\n"); !strings.Contains(resp, "proto=") {
		t.Errorf("version response = %q", resp)
	}
	if resp := roundTrip(t, d, "x\n"); !strings.HasPrefix(resp, "ERR unknown") {
		t.Errorf("unknown command response = %q", resp)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("  short  "); got != "short" {
		t.Errorf("preview = %q", got)
	}
	long := strings.Repeat("a", 100)
	if got := preview(long); len(got) != 60 || !strings.HasSuffix(got, "...") {
		t.Errorf("preview of long text = %q (len %d)", got, len(got))
	}
}
