package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmit_EmptyInputMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.UTC)

	for _, raw := range []string{"", "   ", "\n\t "} {
		if err := c.Submit(context.Background(), raw); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Submit(%q) = %v, want ErrEmptyInput", raw, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("server saw %d requests, want 0", calls.Load())
	}
}

func TestSubmit_Success(t *testing.T) {
	var got struct {
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.UTC)
	c.now = func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }

	if err := c.Submit(context.Background(), "  hello  "); err != nil {
		t.Fatalf("Submit = %v, want nil", err)
	}
	if got.Text != "hello" {
		t.Errorf("text = %q, want trimmed %q", got.Text, "hello")
	}
	if got.Timestamp != "2024-01-01 10:00:00" {
		t.Errorf("timestamp = %q", got.Timestamp)
	}
}

func TestSubmit_TimezoneRendering(t *testing.T) {
	var gotTimestamp string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p struct {
			Timestamp string `json:"timestamp"`
		}
		json.NewDecoder(r.Body).Decode(&p)
		gotTimestamp = p.Timestamp
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	loc := time.FixedZone("IST", 5*3600+1800)
	c := NewClient(srv.URL, loc)
	c.now = func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }

	if err := c.Submit(context.Background(), "hi"); err != nil {
		t.Fatalf("Submit = %v", err)
	}
	if gotTimestamp != "2024-01-01 15:30:00" {
		t.Errorf("timestamp = %q, want rendered in the fixed zone", gotTimestamp)
	}
}

func TestSubmit_ServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "text and timestamp are required"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.UTC)
	err := c.Submit(context.Background(), "hello")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Submit = %v, want ErrRejected", err)
	}
}

func TestSubmit_SuccessFieldMissingIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.UTC)
	if err := c.Submit(context.Background(), "hello"); !errors.Is(err, ErrRejected) {
		t.Errorf("Submit = %v, want ErrRejected", err)
	}
}

func TestSubmit_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := NewClient(srv.URL, time.UTC)
	err := c.Submit(context.Background(), "hello")
	if err == nil {
		t.Fatal("Submit should fail when the server is unreachable")
	}
	if errors.Is(err, ErrRejected) || errors.Is(err, ErrEmptyInput) {
		t.Errorf("transport failure must be distinct from rejection, got %v", err)
	}
}
