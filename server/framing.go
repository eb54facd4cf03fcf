package server

import (
	"bytes"
)

// frameScanner splits an incoming byte stream into newline-delimited
// messages. Bytes are buffered until a linefeed is seen, so a message split
// across reads yields exactly one frame and messages are never merged.
//
// A carriage return before the linefeed is stripped and remembered, so the
// connection can echo the client's line-ending style in its replies.
type frameScanner struct {
	buf   bytes.Buffer
	sawCR bool
}

// Feed appends newly received bytes to the scanner.
func (s *frameScanner) Feed(p []byte) {
	s.buf.Write(p)
}

// Next returns the next complete line without its terminator, or false when
// no full line is buffered yet.
func (s *frameScanner) Next() ([]byte, bool) {
	data := s.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return nil, false
	}

	line := make([]byte, idx)
	copy(line, data[:idx])
	s.buf.Next(idx + 1)

	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
		s.sawCR = true
	}
	return line, true
}

// SawCR reports whether the client has sent carriage returns, in which case
// replies are terminated with "\r\n" instead of "\n".
func (s *frameScanner) SawCR() bool {
	return s.sawCR
}
