package notify

import "context"

// Message is one push payload.
type Message struct {
	Title string
	Body  string
	// Data is delivered alongside the visible notification (e.g. "type").
	Data map[string]string
}

// Channel is the push transport. A nil error means the transport accepted the message.
type Channel interface {
	DeliverToDevice(ctx context.Context, token string, msg Message) error
	DeliverToTopic(ctx context.Context, topic string, msg Message) error
}
