package fcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulticast(t *testing.T) {
	n := NotificationData{Title: "Acme", Body: "Applied → Interview", Data: map[string]string{"type": "status_change"}}
	msg := n.multicast([]string{"a", "b"})

	assert.Equal(t, []string{"a", "b"}, msg.Tokens)
	assert.Equal(t, "Acme", msg.Notification.Title)
	assert.Equal(t, "Applied → Interview", msg.Webpush.Notification.Body)
	assert.Equal(t, "status_change", msg.Data["type"])
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "short", redact("short"))
	assert.Equal(t, "0123456789abcdefghij...", redact("0123456789abcdefghijklmnop"))
}
