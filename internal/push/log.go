package push

import (
	"context"
	"log/slog"

	"github.com/mmynk/bandmates/internal/notify"
)

var _ notify.Channel = LogChannel{}

// LogChannel only logs messages. It is used when no broker is configured.
type LogChannel struct{}

func (LogChannel) DeliverToDevice(ctx context.Context, token string, msg notify.Message) error {
	slog.InfoContext(ctx, "Push to device", "token", redact(token), "title", msg.Title, "type", msg.Data["type"])
	return nil
}

func (LogChannel) DeliverToTopic(ctx context.Context, topic string, msg notify.Message) error {
	slog.InfoContext(ctx, "Push to topic", "topic", topic, "title", msg.Title, "type", msg.Data["type"])
	return nil
}

// redact keeps the last four characters of a token.
func redact(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
