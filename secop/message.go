package secop

import "time"

// Protocol action keywords as defined by the SECoP specification.
//
// Requests and replies form fixed pairs (see ReplyAction). The identification
// exchange is special cased: the request is the literal "*IDN?" and the reply
// is a comma-separated identification string, not a regular message.
const (
	ActionIdent = "*IDN?"

	ActionDescribe   = "describe"
	ActionDescribing = "describing"

	ActionActivate = "activate"
	ActionActive   = "active"

	ActionDeactivate = "deactivate"
	ActionInactive   = "inactive"

	ActionDo   = "do"
	ActionDone = "done"

	ActionChange  = "change"
	ActionChanged = "changed"

	ActionRead  = "read"
	ActionReply = "reply"

	ActionUpdate = "update"

	ActionPing = "ping"
	ActionPong = "pong"

	ActionHelp    = "help"
	ActionHelping = "helping"

	// ErrorPrefix marks an error reply. It is prepended to the action of the
	// failed request, e.g. "error_change" or "error_update" for a value in
	// read-error state.
	ErrorPrefix = "error_"
)

// IdentReply is the fixed identification string sent in response to "*IDN?".
// The first two fields are mandated by the SECoP specification.
const IdentReply = "ISSE&SINE2020,SECoP,V2019-08-20,v1.0 RC2"

// replyActions maps each request action to its confirmation action.
var replyActions = map[string]string{
	ActionDescribe:   ActionDescribing,
	ActionActivate:   ActionActive,
	ActionDeactivate: ActionInactive,
	ActionDo:         ActionDone,
	ActionChange:     ActionChanged,
	ActionRead:       ActionReply,
	ActionPing:       ActionPong,
	ActionHelp:       ActionHelping,
}

// ReplyAction returns the confirmation action for a request action.
// It returns false if the action is not a known request.
func ReplyAction(action string) (string, bool) {
	reply, ok := replyActions[action]
	return reply, ok
}

// Message represents one decoded SECoP message.
//
// Data holds the JSON data part decoded into plain Go values (float64, string,
// bool, nil, []any, map[string]any). A nil Data means the message has no data
// part; messages that need an explicit JSON null payload wrap it in a list.
type Message struct {
	Action    string
	Specifier string
	Data      any
}

// IsRequest reports whether the message action is one of the request keywords.
func (m *Message) IsRequest() bool {
	if m.Action == ActionIdent {
		return true
	}
	_, ok := replyActions[m.Action]
	return ok
}

// Qualifiers is the metadata dict accompanying a value in update events and
// confirmations: "t" (timestamp), "e" (error magnitude), "u" (unit).
type Qualifiers map[string]any

// Timestamp converts a time into the wire representation of the "t"
// qualifier: seconds since the epoch as a float.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// DataReport builds the standard [value, qualifiers] data part used by
// update, reply, changed and done messages.
func DataReport(value any, q Qualifiers) []any {
	if q == nil {
		q = Qualifiers{}
	}
	return []any{value, q}
}

// ErrorReport builds the standard error data part
// [error-class, message, extra-info] used by error replies.
func ErrorReport(class Class, message string, extra map[string]any) []any {
	if extra == nil {
		extra = map[string]any{}
	}
	return []any{string(class), message, extra}
}
