package transport

import (
	"fmt"
	"strings"
	"time"
)

// SSEMessage is one server-sent event written to a GET /events stream.
type SSEMessage struct {
	EventType      string
	Data           string
	TargetClientID string
	CreatedAt      time.Time
}

// NewSSEMessage builds a message stamped with the current time.
func NewSSEMessage(eventType, data string) *SSEMessage {
	return &SSEMessage{EventType: eventType, Data: data, CreatedAt: time.Now()}
}

// WithTargetClientID scopes the message to a single client and returns the
// same instance for chaining.
func (m *SSEMessage) WithTargetClientID(clientID string) *SSEMessage {
	m.TargetClientID = clientID
	return m
}

// ToSSEString renders the message in the `event:`/`data:` wire format,
// splitting multi-line data across repeated `data:` fields per the SSE spec.
func (m *SSEMessage) ToSSEString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", m.EventType)
	for _, line := range strings.Split(m.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return b.String()
}
