package secop

import (
	"bytes"
	"encoding/json"
)

// DecodeLine decodes one message line into a Message.
//
// The line must not contain the trailing linefeed; an optional carriage
// return is the business of the connection layer. A malformed data part
// yields a ClassSyntaxError protocol error referencing the offending text,
// and must not close the connection.
func DecodeLine(line []byte) (*Message, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, ErrEmptyMessage
	}

	if string(line) == ActionIdent {
		return &Message{Action: ActionIdent}, nil
	}

	parts := bytes.SplitN(line, []byte{' '}, 3)
	msg := &Message{Action: string(parts[0])}

	if len(parts) > 1 {
		msg.Specifier = string(parts[1])
	}

	if len(parts) > 2 && len(bytes.TrimSpace(parts[2])) > 0 {
		var data any
		if err := json.Unmarshal(parts[2], &data); err != nil {
			return nil, Errorf(ClassSyntaxError, "invalid JSON data in %q: %v", string(line), err)
		}
		msg.Data = data
	}

	return msg, nil
}

// EncodeLine encodes the message into its wire form without the line
// terminator. The connection layer appends "\n", or "\r\n" when the client
// sent carriage returns.
func (m *Message) EncodeLine() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(m.Action)

	// the specifier field must be present, even when empty, whenever a data
	// part follows, or the data would be read as the specifier
	if m.Specifier != "" || m.Data != nil {
		buf.WriteByte(' ')
		buf.WriteString(m.Specifier)
	}

	if m.Data != nil {
		data, err := json.Marshal(m.Data)
		if err != nil {
			return nil, Errorf(ClassInternalError, "encode data of %s message: %v", m.Action, err)
		}
		buf.WriteByte(' ')
		buf.Write(data)
	}

	return buf.Bytes(), nil
}
