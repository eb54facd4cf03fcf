package secop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		description string
		input       string
		expected    Message
	}{
		{
			description: "bare keyword",
			input:       "describe",
			expected:    Message{Action: ActionDescribe},
		},
		{
			description: "keyword with specifier",
			input:       "read t1:value",
			expected:    Message{Action: ActionRead, Specifier: "t1:value"},
		},
		{
			description: "keyword with specifier and scalar data",
			input:       "change t1:target 7.5",
			expected:    Message{Action: ActionChange, Specifier: "t1:target", Data: 7.5},
		},
		{
			description: "keyword with structured data",
			input:       `do t1:calibrate [1, "fast"]`,
			expected:    Message{Action: ActionDo, Specifier: "t1:calibrate", Data: []any{1.0, "fast"}},
		},
		{
			description: "identification request literal",
			input:       "*IDN?",
			expected:    Message{Action: ActionIdent},
		},
		{
			description: "surrounding whitespace is ignored",
			input:       "  ping nonce42  ",
			expected:    Message{Action: ActionPing, Specifier: "nonce42"},
		},
		{
			description: "json with embedded spaces",
			input:       `change t1:target {"x": 1, "y": 2}`,
			expected: Message{
				Action:    ActionChange,
				Specifier: "t1:target",
				Data:      map[string]any{"x": 1.0, "y": 2.0},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			msg, err := DecodeLine([]byte(test.input))
			require.NoError(t, err)
			require.Equal(t, test.expected, *msg)
		})
	}
}

func TestDecodeLine_Errors(t *testing.T) {
	_, err := DecodeLine([]byte(""))
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = DecodeLine([]byte("   "))
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = DecodeLine([]byte("change t1:target {broken"))
	require.Error(t, err)
	require.Equal(t, ClassSyntaxError, AsError(err).Class)
}

func TestEncodeLine(t *testing.T) {
	tests := []struct {
		description string
		msg         Message
		expected    string
	}{
		{
			description: "bare keyword",
			msg:         Message{Action: ActionActive},
			expected:    "active",
		},
		{
			description: "keyword with specifier",
			msg:         Message{Action: ActionInactive, Specifier: "t1"},
			expected:    "inactive t1",
		},
		{
			description: "update with data report",
			msg: Message{
				Action:    ActionUpdate,
				Specifier: "t1:value",
				Data:      DataReport(3.5, Qualifiers{"t": 12.25}),
			},
			expected: `update t1:value [3.5,{"t":12.25}]`,
		},
		{
			description: "error reply with report",
			msg: Message{
				Action:    ErrorPrefix + ActionChange,
				Specifier: "t1:target",
				Data:      ErrorReport(ClassBadValue, "out of range", nil),
			},
			expected: `error_change t1:target ["BadValue","out of range",{}]`,
		},
		{
			description: "empty specifier keeps its field when data follows",
			msg: Message{
				Action: ActionPong,
				Data:   DataReport(nil, Qualifiers{"t": 12.25}),
			},
			expected: `pong  [null,{"t":12.25}]`,
		},
		{
			description: "error reply without specifier",
			msg: Message{
				Action: ErrorPrefix + ActionChange,
				Data:   ErrorReport(ClassSyntaxError, "missing specifier", nil),
			},
			expected: `error_change  ["SyntaxError","missing specifier",{}]`,
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			line, err := test.msg.EncodeLine()
			require.NoError(t, err)
			require.Equal(t, test.expected, string(line))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := Message{
		Action:    ActionChanged,
		Specifier: "mf:target",
		Data:      DataReport(1.25, Qualifiers{"t": 100.5}),
	}

	line, err := orig.EncodeLine()
	require.NoError(t, err)

	decoded, err := DecodeLine(line)
	require.NoError(t, err)
	require.Equal(t, orig.Action, decoded.Action)
	require.Equal(t, orig.Specifier, decoded.Specifier)
	require.Equal(t, []any{1.25, map[string]any{"t": 100.5}}, decoded.Data)
}

func TestBarePongRoundTrip(t *testing.T) {
	// a ping without nonce is answered by a pong with empty specifier; the
	// data report must not slide into the specifier slot on the wire
	orig := Message{
		Action: ActionPong,
		Data:   DataReport(nil, Qualifiers{"t": 100.5}),
	}

	line, err := orig.EncodeLine()
	require.NoError(t, err)

	decoded, err := DecodeLine(line)
	require.NoError(t, err)
	require.Equal(t, ActionPong, decoded.Action)
	require.Equal(t, "", decoded.Specifier)
	require.Equal(t, []any{nil, map[string]any{"t": 100.5}}, decoded.Data)
}

func TestReplyAction(t *testing.T) {
	reply, ok := ReplyAction(ActionChange)
	require.True(t, ok)
	require.Equal(t, ActionChanged, reply)

	_, ok = ReplyAction("bogus")
	require.False(t, ok)
}
