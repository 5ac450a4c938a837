// Package transcription converts one recorded audio clip into text through a
// remote speech-to-text endpoint.
package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

const requestTimeout = 30 * time.Second

// Error describes a failed transcription call: either a non-success HTTP
// status or an undecodable body.
type Error struct {
	StatusCode int
	Reason     string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcription failed with status %d", e.StatusCode)
	}
	return "transcription failed: " + e.Reason
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client issues one multipart request per recording. Calls are serialized:
// the UI assumes a single in-flight transcription at a time.
type Client struct {
	mu         sync.Mutex
	http       *resty.Client
	model      string
	onComplete func(text string)
}

func New(cfg *Config) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(requestTimeout)
	return &Client{
		http:  httpClient,
		model: cfg.Model,
	}
}

// OnComplete registers a callback invoked with the trimmed text after every
// successful transcription.
func (c *Client) OnComplete(fn func(text string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = fn
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio payload and returns the recognized text. The
// audio is staged in a temporary file that is removed whatever the outcome.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tmp, err := os.CreateTemp("", "moodlog-audio-*.m4a")
	if err != nil {
		return "", &Error{Reason: "staging audio: " + err.Error()}
	}
	defer func() {
		if removeErr := os.Remove(tmp.Name()); removeErr != nil {
			slog.Warn("removing staged audio failed", slog.String("error", removeErr.Error()))
		}
	}()
	if _, err = tmp.Write(audio); err != nil {
		tmp.Close()
		return "", &Error{Reason: "staging audio: " + err.Error()}
	}
	if err = tmp.Close(); err != nil {
		return "", &Error{Reason: "staging audio: " + err.Error()}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", tmp.Name()).
		SetFormData(map[string]string{
			"model":           c.model,
			"response_format": "json",
		}).
		Post("/v1/audio/transcriptions")
	if err != nil {
		return "", &Error{Reason: err.Error()}
	}
	if !resp.IsSuccess() {
		return "", &Error{StatusCode: resp.StatusCode()}
	}
	var decoded transcriptionResponse
	if err = sonic.Unmarshal(resp.Body(), &decoded); err != nil {
		return "", &Error{Reason: "decoding response: " + err.Error()}
	}
	text := strings.TrimSpace(decoded.Text)
	if c.onComplete != nil {
		c.onComplete(text)
	}
	return text, nil
}
