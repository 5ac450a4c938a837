// Package voice wraps a third-party real-time voice session: start, stop,
// and a stream of typed events relayed into observable state.
package voice

import (
	"context"
	"log/slog"
	"sync"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
)

// Transport is the platform boundary: it starts and stops a session and
// delivers its event stream. The channel closes when the session ends.
type Transport interface {
	Start(ctx context.Context, assistantID string) (<-chan Event, error)
	Stop(ctx context.Context) error
}

type Client struct {
	mu          sync.Mutex
	tr          Transport
	assistantID string
	active      bool
	loading     bool
	transcript  []Fragment
	errMsg      string
}

func NewClient(tr Transport, assistantID string) *Client {
	return &Client{
		tr:          tr,
		assistantID: assistantID,
	}
}

// ToggleCall starts a session when inactive and stops the running one
// otherwise. Toggling while a start or stop is still in flight is rejected.
func (c *Client) ToggleCall(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return errorvalues.ErrVoiceBusy
	}
	if c.active {
		c.loading = true
		c.mu.Unlock()
		err := c.tr.Stop(ctx)
		c.mu.Lock()
		c.loading = false
		if err != nil {
			// The session may still be running; keep reporting it active.
			c.errMsg = "stopping voice session failed: " + err.Error()
			c.mu.Unlock()
			return err
		}
		c.active = false
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()

	events, err := c.tr.Start(ctx, c.assistantID)
	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.errMsg = "starting voice session failed: " + err.Error()
		c.mu.Unlock()
		return err
	}
	c.active = true
	c.errMsg = ""
	c.transcript = nil
	c.mu.Unlock()

	go c.relay(events)
	return nil
}

// relay consumes the session's event stream until it closes.
func (c *Client) relay(events <-chan Event) {
	for event := range events {
		switch event.Type {
		case EventCallStart:
			c.mu.Lock()
			c.active = true
			c.mu.Unlock()
		case EventCallEnd:
			c.mu.Lock()
			c.active = false
			c.mu.Unlock()
		case EventTranscript:
			if event.TranscriptKind != TranscriptFinal {
				continue
			}
			c.mu.Lock()
			c.transcript = append(c.transcript, Fragment{
				Role: event.Role,
				Text: event.Transcript,
			})
			c.mu.Unlock()
		case EventError:
			c.setErr(event.Message)
		default:
			slog.Debug("discarding voice event", slog.String("type", string(event.Type)))
		}
	}
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
}

func (c *Client) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Transcript returns the surfaced final fragments of the current or most
// recent session.
func (c *Client) Transcript() []Fragment {
	c.mu.Lock()
	defer c.mu.Unlock()
	fragments := make([]Fragment, len(c.transcript))
	copy(fragments, c.transcript)
	return fragments
}

func (c *Client) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Client) setErr(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = msg
}
