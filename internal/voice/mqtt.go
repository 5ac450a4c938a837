package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bytedance/sonic"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/feelday/moodlog/pkg/cleanup"
)

// MQTTConfig points at the assistant platform's broker. Commands go to the
// control topic, session events arrive on the events topic.
type MQTTConfig struct {
	Broker       string
	ClientID     string
	Username     string
	Password     string
	ControlTopic string
	EventsTopic  string
}

type controlMessage struct {
	Action      string `json:"action"`
	AssistantID string `json:"assistant_id,omitempty"`
}

// MQTTTransport carries one voice session over an MQTT broker.
type MQTTTransport struct {
	client mqtt.Client
	cfg    *MQTTConfig
	mu     sync.Mutex
	stream *sessionStream
}

// sessionStream owns the event channel of one session. The broker keeps
// delivering until the unsubscribe lands, so late or duplicate messages after
// call_end must be dropped rather than sent on a closed channel.
type sessionStream struct {
	mu     sync.Mutex
	events chan Event
	closed bool
}

func newSessionStream() *sessionStream {
	return &sessionStream{
		events: make(chan Event, 64),
	}
}

func (ss *sessionStream) deliver(payload []byte) {
	var event Event
	if err := sonic.Unmarshal(payload, &event); err != nil {
		slog.Warn("undecodable voice event", slog.String("error", err.Error()))
		return
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return
	}
	select {
	case ss.events <- event:
	default:
		slog.Warn("voice event dropped: relay is behind")
	}
	if event.Type == EventCallEnd {
		ss.closed = true
		close(ss.events)
	}
}

func (ss *sessionStream) close() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return
	}
	ss.closed = true
	close(ss.events)
}

func NewMQTTTransport(cfg *MQTTConfig) (*MQTTTransport, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.New("connecting to voice broker error: " + token.Error().Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "disconnecting voice broker",
		F: func() error {
			client.Disconnect(250)
			return nil
		},
	})
	return &MQTTTransport{
		client: client,
		cfg:    cfg,
	}, nil
}

func (t *MQTTTransport) Start(ctx context.Context, assistantID string) (<-chan Event, error) {
	stream := newSessionStream()
	token := t.client.Subscribe(t.cfg.EventsTopic, 1, func(client mqtt.Client, msg mqtt.Message) {
		stream.deliver(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return nil, errors.New("subscribing to voice events error: " + token.Error().Error())
	}
	if err := t.publish(&controlMessage{Action: "start", AssistantID: assistantID}); err != nil {
		t.client.Unsubscribe(t.cfg.EventsTopic)
		return nil, err
	}
	t.mu.Lock()
	t.stream = stream
	t.mu.Unlock()
	return stream.events, nil
}

// Stop commands the platform to end the session and closes the event stream
// itself, so the relay is released even when no call_end ever arrives.
func (t *MQTTTransport) Stop(ctx context.Context) error {
	defer func() {
		t.client.Unsubscribe(t.cfg.EventsTopic)
		t.mu.Lock()
		stream := t.stream
		t.stream = nil
		t.mu.Unlock()
		if stream != nil {
			stream.close()
		}
	}()
	return t.publish(&controlMessage{Action: "stop"})
}

func (t *MQTTTransport) publish(msg *controlMessage) error {
	payload, err := sonic.Marshal(msg)
	if err != nil {
		return errors.New("encoding control message error: " + err.Error())
	}
	token := t.client.Publish(t.cfg.ControlTopic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		return errors.New("publishing control message error: " + token.Error().Error())
	}
	return nil
}
