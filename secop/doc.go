// Package secop provides the core building blocks of the Sample Environment
// Communication Protocol (SECoP): the message model, the line-oriented wire
// codec and the protocol error taxonomy.
//
// A SECoP message is a single text line terminated by a linefeed. It consists
// of up to three space-separated parts:
//
//	action
//	action specifier
//	action specifier json-data
//
// plus the literal identification request "*IDN?". The package is transport
// agnostic; framing a byte stream into lines is the job of the connection
// layer in package server.
//
// Usage Example:
//
//	msg, err := secop.DecodeLine([]byte(`change t1:target 7.5`))
//	if err != nil {
//	    // err carries a secop error class, e.g. secop.ClassSyntaxError
//	}
//	reply := secop.Message{Action: secop.ActionChanged, Specifier: "t1:target", Data: 7.5}
//	line, _ := reply.EncodeLine()
package secop
