package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectFrames(s *frameScanner) []string {
	var frames []string
	for {
		frame, ok := s.Next()
		if !ok {
			return frames
		}
		frames = append(frames, string(frame))
	}
}

func TestFrameScannerSplitsOnNewline(t *testing.T) {
	var s frameScanner
	s.Feed([]byte("describe\nread t1:value\nping"))

	frames := collectFrames(&s)
	require.Equal(t, []string{"describe", "read t1:value"}, frames)

	// remainder completes on the next feed
	s.Feed([]byte(" 7\n"))
	frames = collectFrames(&s)
	require.Equal(t, []string{"ping 7"}, frames)
}

func TestFrameScannerAnyChunking(t *testing.T) {
	// a message split at every possible byte boundary must decode the same
	input := "read t1\nchange t2:target 5.0\n*IDN?\n"
	want := []string{"read t1", "change t2:target 5.0", "*IDN?"}

	for cut := 0; cut <= len(input); cut++ {
		var s frameScanner
		s.Feed([]byte(input[:cut]))
		frames := collectFrames(&s)
		s.Feed([]byte(input[cut:]))
		frames = append(frames, collectFrames(&s)...)
		require.Equal(t, want, frames, "split at byte %d", cut)
	}
}

func TestFrameScannerCRLF(t *testing.T) {
	var s frameScanner
	s.Feed([]byte("describe\r\n"))

	frames := collectFrames(&s)
	require.Equal(t, []string{"describe"}, frames)
	assert.True(t, s.SawCR())

	s.Feed([]byte("ping\n"))
	frames = collectFrames(&s)
	require.Equal(t, []string{"ping"}, frames)
	assert.True(t, s.SawCR(), "terminator style sticks once seen")
}

func TestFrameScannerEmptyLines(t *testing.T) {
	var s frameScanner
	s.Feed([]byte("\n\nping\n"))
	frames := collectFrames(&s)
	require.Equal(t, []string{"", "", "ping"}, frames)
}
