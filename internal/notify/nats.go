package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// subjectPrefix namespaces per-user notification subjects, e.g.
// surf.notify.<userID>.
const subjectPrefix = "surf.notify."

// Publisher is the slice of the NATS connection the notifier needs.
// *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// envelope is the wire format delivered to a user's subject.
type envelope struct {
	Event   string          `json:"event"`
	Target  string          `json:"target"`
	SentAt  time.Time       `json:"sentAt"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NATSNotifier publishes notification events to a per-user NATS subject.
type NATSNotifier struct {
	conn    Publisher
	nowFunc func() time.Time
}

// NewNATSNotifier constructs a notifier over an established NATS connection.
func NewNATSNotifier(conn Publisher) *NATSNotifier {
	return &NATSNotifier{conn: conn, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Notify implements Notifier by publishing a JSON envelope to the user's subject.
func (n *NATSNotifier) Notify(_ context.Context, userID, event string, payload any) error {
	if userID == "" {
		return fmt.Errorf("notify: empty user id")
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal notification payload: %w", err)
		}
		raw = data
	}

	msg, err := json.Marshal(envelope{
		Event:   event,
		Target:  userID,
		SentAt:  n.nowFunc(),
		Payload: raw,
	})
	if err != nil {
		return fmt.Errorf("marshal notification envelope: %w", err)
	}

	if err := n.conn.Publish(subjectPrefix+userID, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

var _ Notifier = (*NATSNotifier)(nil)
var _ Notifier = Nop{}
