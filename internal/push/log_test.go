package push

import (
	"context"
	"testing"

	"github.com/mmynk/bandmates/internal/notify"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"device-token-1234", "****1234"},
	}

	for _, tt := range tests {
		if got := redact(tt.token); got != tt.want {
			t.Errorf("redact(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestLogChannelAcceptsEverything(t *testing.T) {
	var ch notify.Channel = LogChannel{}
	msg := notify.Message{Title: "hi", Body: "there", Data: map[string]string{"type": "band"}}

	if err := ch.DeliverToDevice(context.Background(), "token-9999", msg); err != nil {
		t.Errorf("DeliverToDevice() error = %v", err)
	}
	if err := ch.DeliverToTopic(context.Background(), "musician", msg); err != nil {
		t.Errorf("DeliverToTopic() error = %v", err)
	}
}
