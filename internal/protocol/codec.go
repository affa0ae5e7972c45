package protocol

import (
	"strings"
	"time"
)

// Parse decodes a wire line. It never fails: when the line does not have
// exactly four fields, names an unknown type or carries a malformed
// timestamp, Parse returns a TEXT message from FallbackClientID whose
// payload is the whole raw line, and ok is false.
func Parse(raw string) (msg Message, ok bool) {
	parts := strings.SplitN(raw, Separator, 4)
	if len(parts) != 4 {
		return fallback(raw), false
	}
	t, known := ParseType(parts[2])
	if !known {
		return fallback(raw), false
	}
	if _, err := time.Parse(TimestampLayout, parts[1]); err != nil {
		return fallback(raw), false
	}
	return Message{
		ClientID:  parts[0],
		Timestamp: parts[1],
		Type:      t,
		Payload:   parts[3],
	}, true
}

// Serialize encodes m as a wire line without the trailing newline.
// A payload containing Separator does not survive a round trip.
func Serialize(m Message) string {
	return strings.Join([]string{m.ClientID, m.Timestamp, m.Type.String(), m.Payload}, Separator)
}

func fallback(raw string) Message {
	return NewText(FallbackClientID, raw)
}
