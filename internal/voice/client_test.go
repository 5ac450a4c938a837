package voice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/internal/voice"
)

type fakeTransport struct {
	events    chan voice.Event
	started   int
	stopped   int
	startErr  error
	stopErr   error
	blockedOn chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events: make(chan voice.Event, 16),
	}
}

func (f *fakeTransport) Start(ctx context.Context, assistantID string) (<-chan voice.Event, error) {
	f.started++
	if f.blockedOn != nil {
		<-f.blockedOn
	}
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.events, nil
}

func (f *fakeTransport) Stop(ctx context.Context) error {
	f.stopped++
	if f.stopErr != nil {
		return f.stopErr
	}
	close(f.events)
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestToggleCallStartsAndStops(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	client := voice.NewClient(tr, "assistant-1")

	require.NoError(t, client.ToggleCall(ctx))
	assert.True(t, client.Active())
	assert.Equal(t, 1, tr.started)

	require.NoError(t, client.ToggleCall(ctx))
	assert.False(t, client.Active())
	assert.Equal(t, 1, tr.stopped)
}

func TestToggleWhileLoadingIsRejected(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	tr.blockedOn = make(chan struct{})
	client := voice.NewClient(tr, "assistant-1")

	firstDone := make(chan error, 1)
	go func() { firstDone <- client.ToggleCall(ctx) }()
	waitFor(t, func() bool { return client.Loading() })

	assert.ErrorIs(t, client.ToggleCall(ctx), errorvalues.ErrVoiceBusy)

	close(tr.blockedOn)
	require.NoError(t, <-firstDone)
	assert.True(t, client.Active())
}

func TestRelaySurfacesOnlyLifecycleAndFinalTranscripts(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	client := voice.NewClient(tr, "assistant-1")
	require.NoError(t, client.ToggleCall(ctx))

	tr.events <- voice.Event{Type: voice.EventSpeechUpdate}
	tr.events <- voice.Event{Type: voice.EventTranscript, TranscriptKind: voice.TranscriptPartial, Role: "user", Transcript: "I fel"}
	tr.events <- voice.Event{Type: voice.EventTranscript, TranscriptKind: voice.TranscriptFinal, Role: "user", Transcript: "I felt good today"}
	tr.events <- voice.Event{Type: voice.EventFunctionCall}
	tr.events <- voice.Event{Type: voice.EventModelOutput}
	tr.events <- voice.Event{Type: voice.EventTranscript, TranscriptKind: voice.TranscriptFinal, Role: "assistant", Transcript: "Glad to hear it"}

	waitFor(t, func() bool { return len(client.Transcript()) == 2 })
	fragments := client.Transcript()
	assert.Equal(t, voice.Fragment{Role: "user", Text: "I felt good today"}, fragments[0])
	assert.Equal(t, voice.Fragment{Role: "assistant", Text: "Glad to hear it"}, fragments[1])
}

func TestCallEndEventDeactivates(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	client := voice.NewClient(tr, "assistant-1")
	require.NoError(t, client.ToggleCall(ctx))

	tr.events <- voice.Event{Type: voice.EventCallEnd}
	waitFor(t, func() bool { return !client.Active() })
}

func TestErrorEventRecordsMessage(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	client := voice.NewClient(tr, "assistant-1")
	require.NoError(t, client.ToggleCall(ctx))

	tr.events <- voice.Event{Type: voice.EventError, Message: "assistant unavailable"}
	waitFor(t, func() bool { return client.Err() == "assistant unavailable" })
}

func TestFailedStopKeepsSessionActive(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	tr.stopErr = errors.New("broker unreachable")
	client := voice.NewClient(tr, "assistant-1")
	require.NoError(t, client.ToggleCall(ctx))

	assert.Error(t, client.ToggleCall(ctx))
	assert.True(t, client.Active(), "session is still running on the platform")
	assert.False(t, client.Loading())
	assert.NotEmpty(t, client.Err())
}

func TestStartFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	tr.startErr = errors.New("broker unreachable")
	client := voice.NewClient(tr, "assistant-1")

	assert.Error(t, client.ToggleCall(ctx))
	assert.False(t, client.Active())
	assert.False(t, client.Loading())
	assert.NotEmpty(t, client.Err())
}
