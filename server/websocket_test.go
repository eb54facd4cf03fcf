package server

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SampleEnvironment/frappy/secop"
)

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	require.Eventually(t, func() bool { return srv.WSAddr() != nil }, 5*time.Second, 10*time.Millisecond)
	url := fmt.Sprintf("ws://%s/", srv.WSAddr().String())
	var ws *websocket.Conn
	require.Eventually(t, func() bool {
		var err error
		ws, _, err = websocket.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	t.Cleanup(func() { ws.Close() })
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	return ws
}

func sendFrame(t *testing.T, ws *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func readFrame(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	kind, frame, err := ws.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)
	return string(frame)
}

func TestWebsocketEndToEnd(t *testing.T) {
	srv, _ := newEndToEndServer(t)
	ws := dialWS(t, srv)

	sendFrame(t, ws, "*IDN?")
	require.Equal(t, secop.IdentReply, readFrame(t, ws))

	sendFrame(t, ws, "ping 1")
	pong := readFrame(t, ws)
	require.True(t, strings.HasPrefix(pong, "pong 1 "), "got %q", pong)
	assert.False(t, strings.HasSuffix(pong, "\n"), "frames carry no line terminator")

	sendFrame(t, ws, "read sensor:value")
	reply := readFrame(t, ws)
	require.True(t, strings.HasPrefix(reply, "reply sensor:value [3.14,"), "got %q", reply)
}

func TestWebsocketEmptyFrameIsHelpRequest(t *testing.T) {
	srv, _ := newEndToEndServer(t)
	ws := dialWS(t, srv)

	sendFrame(t, ws, "")
	var sawHelping bool
	for i := 0; i < 20 && !sawHelping; i++ {
		line := readFrame(t, ws)
		if line == "helping" {
			sawHelping = true
		} else {
			require.True(t, strings.HasPrefix(line, "_ "), "got %q", line)
		}
	}
	require.True(t, sawHelping, "help text ends with helping")
}

func TestWebsocketActivateStreamsUpdates(t *testing.T) {
	srv, _ := newEndToEndServer(t)
	ws := dialWS(t, srv)

	sendFrame(t, ws, "activate")
	var sawActive bool
	for i := 0; i < 10 && !sawActive; i++ {
		line := readFrame(t, ws)
		if line == "active" {
			sawActive = true
		} else {
			require.True(t, strings.HasPrefix(line, "update sensor:"), "got %q", line)
		}
	}
	require.True(t, sawActive, "activate was confirmed")

	// the poller delivers further updates as individual frames
	line := readFrame(t, ws)
	assert.True(t, strings.HasPrefix(line, "update sensor:"), "got %q", line)
}
