package voice

// EventType enumerates everything the assistant platform can emit during a
// session. Only call lifecycle and final transcripts are surfaced; the rest
// is logged and discarded.
type EventType string

const (
	EventCallStart    EventType = "call_start"
	EventCallEnd      EventType = "call_end"
	EventTranscript   EventType = "transcript"
	EventError        EventType = "error"
	EventSpeechUpdate EventType = "speech_update"
	EventFunctionCall EventType = "function_call"
	EventModelOutput  EventType = "model_output"
)

type TranscriptKind string

const (
	TranscriptPartial TranscriptKind = "partial"
	TranscriptFinal   TranscriptKind = "final"
)

type Event struct {
	Type           EventType      `json:"type"`
	Transcript     string         `json:"transcript,omitempty"`
	TranscriptKind TranscriptKind `json:"transcript_type,omitempty"`
	Role           string         `json:"role,omitempty"`
	Message        string         `json:"message,omitempty"`
}

// Fragment is one surfaced line of conversation.
type Fragment struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
