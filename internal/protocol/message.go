package protocol

import (
	"fmt"
	"strings"
)

// Chat message types exchanged on the channel.
const (
	TypeRegister        = "REGISTER"
	TypeEmailReady      = "EMAIL_READY"
	TypeConfirmComplete = "CONFIRM_COMPLETE"
	TypeLabelResponse   = "LABEL_RESPONSE"
	TypeTestChat        = "TEST_CHAT_CONNECTION"
)

var knownTypes = map[string]struct{}{
	TypeRegister:        {},
	TypeEmailReady:      {},
	TypeConfirmComplete: {},
	TypeLabelResponse:   {},
	TypeTestChat:        {},
}

// Message is one chat-channel message. The wire form is a header line
// "instanceTag:itemId TYPE [status]" followed by a free-text body:
//
//	desk-1:m-42 EMAIL_READY
//	Labels: Urgent, Finance
//	...
//
// ItemID and Status are optional. Bodies may contain newlines and colons; only
// the first line is header.
type Message struct {
	InstanceTag string
	ItemID      string
	Type        string
	Status      string
	Body        string
}

// Encode renders the wire form of the message.
func (m Message) Encode() string {
	var sb strings.Builder
	sb.WriteString(m.InstanceTag)
	sb.WriteByte(':')
	if m.ItemID != "" {
		sb.WriteString(m.ItemID)
	}
	sb.WriteByte(' ')
	sb.WriteString(m.Type)
	if m.Status != "" {
		sb.WriteByte(' ')
		sb.WriteString(m.Status)
	}
	if m.Body != "" {
		sb.WriteByte('\n')
		sb.WriteString(m.Body)
	}
	return sb.String()
}

// DecodeMessage parses a wire message. The body is everything after the first
// newline; the header is split at its first colon only, so colons inside the
// body never confuse parsing.
func DecodeMessage(raw string) (Message, error) {
	header := raw
	body := ""
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		header = raw[:i]
		body = raw[i+1:]
	}

	ci := strings.IndexByte(header, ':')
	if ci < 0 {
		return Message{}, fmt.Errorf("message header missing instance tag separator: %q", header)
	}
	m := Message{
		InstanceTag: strings.TrimSpace(header[:ci]),
		Body:        body,
	}

	fields := strings.Fields(header[ci+1:])
	if len(fields) == 0 {
		return Message{}, fmt.Errorf("message header missing type: %q", header)
	}

	// The first field is either the item id or, for item-less messages such
	// as REGISTER, the message type itself.
	if _, ok := knownTypes[fields[0]]; ok {
		m.Type = fields[0]
		fields = fields[1:]
	} else {
		if len(fields) < 2 {
			return Message{}, fmt.Errorf("message header missing type after item id: %q", header)
		}
		m.ItemID = fields[0]
		m.Type = fields[1]
		fields = fields[2:]
	}
	if _, ok := knownTypes[m.Type]; !ok {
		return Message{}, fmt.Errorf("unknown message type %q", m.Type)
	}
	if len(fields) > 0 {
		m.Status = strings.Join(fields, " ")
	}
	return m, nil
}
