// Package webhook posts monitor events to a configured URL.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Sender posts JSON payloads to a single webhook URL.
type Sender struct {
	url    string
	client *http.Client
}

// New creates a Sender. Returns nil if url is empty (webhooks disabled).
// timeout bounds each POST; zero means 10 seconds.
func New(url string, timeout time.Duration) *Sender {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Payload is the JSON body sent to the webhook URL.
type Payload struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Send posts the message. Retries 3x with exponential backoff (500ms, 1s, 2s).
func (s *Sender) Send(msg string) error {
	if s == nil {
		return nil
	}
	body, err := json.Marshal(Payload{
		Event:     "ratelimit.notify",
		Timestamp: time.Now(),
		Message:   msg,
	})
	if err != nil {
		return fmt.Errorf("webhook.Send: marshal: %w", err)
	}

	delays := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	var lastErr error
	for i, delay := range delays {
		if i > 0 {
			time.Sleep(delay)
		}
		status, err := s.post(body)
		if err == nil && status < 400 {
			return nil
		}
		lastErr = fmt.Errorf("webhook.Send: attempt %d: status=%d err=%v", i+1, status, err)
		log.Printf("%v", lastErr)
	}
	return lastErr
}

func (s *Sender) post(body []byte) (int, error) {
	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("webhook.post: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webhook.post: do: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
