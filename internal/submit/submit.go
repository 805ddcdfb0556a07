// Package submit sends finished feedback to the append endpoint. Every
// failure is terminal for that attempt: the caller keeps the buffer and the
// user decides whether to try again.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyInput means there was nothing to submit after trimming. No
// request is made.
var ErrEmptyInput = errors.New("feedback text is empty")

// ErrRejected means the server answered but did not confirm the append.
var ErrRejected = errors.New("submission rejected")

const timestampLayout = "2006-01-02 15:04:05"

type payload struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Client submits feedback to one endpoint. Timestamps are computed client
// side at submission time, rendered in the configured timezone.
type Client struct {
	endpoint string
	loc      *time.Location
	httpc    *http.Client
	now      func() time.Time
}

func NewClient(endpoint string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		endpoint: endpoint,
		loc:      loc,
		httpc:    &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
}

// Submit trims and sends rawText. A nil return means the record is durably
// appended and the caller should clear its buffer. ErrEmptyInput and
// ErrRejected are sentinel failures; anything else is a transport problem
// (no usable response from the server).
func (c *Client) Submit(ctx context.Context, rawText string) error {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return ErrEmptyInput
	}

	body, err := json.Marshal(payload{
		Text:      text,
		Timestamp: c.now().In(c.loc).Format(timestampLayout),
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send feedback: %w", err)
	}
	defer resp.Body.Close()

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if !parsed.Success {
		if parsed.Error != "" {
			return fmt.Errorf("%w: %s", ErrRejected, parsed.Error)
		}
		return ErrRejected
	}
	return nil
}
