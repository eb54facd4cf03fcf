package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SampleEnvironment/frappy/datatype"
	"github.com/SampleEnvironment/frappy/module"
	"github.com/SampleEnvironment/frappy/secop"
)

// freePort grabs an ephemeral port from the kernel for the test server.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// simulatedSensor is a self-contained readable device for the end-to-end
// test.
type simulatedSensor struct {
	value float64
}

func (s *simulatedSensor) ReadValue() (any, error) { return s.value, nil }

func (s *simulatedSensor) ReadStatus() (int64, string, error) {
	return datatype.StatusIdle, "idle", nil
}

func newEndToEndServer(t *testing.T) (*Server, func(t *testing.T) (*bufio.Reader, net.Conn)) {
	t.Helper()

	srv := New(Options{
		EquipmentID: "e2e_node",
		Description: "end to end test node",
		Bind:        "127.0.0.1",
		Port:        freePort(t),
		WSPort:      freePort(t),
		Logger:      testLog(),
	})

	sensor := &simulatedSensor{value: 3.14}
	m, err := module.NewReadable("sensor", sensor, datatype.NewUnboundedDouble(), testLog())
	require.NoError(t, err)
	m.PollInterval = 50 * time.Millisecond
	require.NoError(t, srv.AddModule(m))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	dial := func(t *testing.T) (*bufio.Reader, net.Conn) {
		t.Helper()
		var conn net.Conn
		require.Eventually(t, func() bool {
			var err error
			conn, err = net.Dial("tcp", srv.Addr().String())
			return err == nil
		}, 5*time.Second, 20*time.Millisecond)
		t.Cleanup(func() { conn.Close() })
		require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
		return bufio.NewReader(conn), conn
	}

	// wait for the listener
	require.Eventually(t, func() bool { return srv.Addr() != nil }, 5*time.Second, 10*time.Millisecond)
	return srv, dial
}

func TestServerEndToEnd(t *testing.T) {
	_, dial := newEndToEndServer(t)
	r, w := dial(t)

	sendLine(t, w, "*IDN?")
	require.Equal(t, secop.IdentReply, readLine(t, r))

	sendLine(t, w, "describe")
	desc := readLine(t, r)
	require.True(t, strings.HasPrefix(desc, "describing . "), "got %q", desc)
	assert.Contains(t, desc, `"equipment_id":"e2e_node"`)
	assert.Contains(t, desc, `"sensor"`)

	sendLine(t, w, "read sensor:value")
	reply := readLine(t, r)
	require.True(t, strings.HasPrefix(reply, "reply sensor:value [3.14,"), "got %q", reply)

	sendLine(t, w, "activate")
	var sawActive bool
	for i := 0; i < 10 && !sawActive; i++ {
		line := readLine(t, r)
		if line == "active" {
			sawActive = true
		} else {
			require.True(t, strings.HasPrefix(line, "update sensor:"), "got %q", line)
		}
	}
	require.True(t, sawActive, "activate was confirmed")

	// the poller keeps publishing updates without further requests
	line := readLine(t, r)
	assert.True(t, strings.HasPrefix(line, "update sensor:"), "got %q", line)
}

func TestServerServesConcurrentClients(t *testing.T) {
	_, dial := newEndToEndServer(t)

	r1, w1 := dial(t)
	r2, w2 := dial(t)

	sendLine(t, w1, "ping one")
	sendLine(t, w2, "ping two")
	require.True(t, strings.HasPrefix(readLine(t, r1), "pong one "))
	require.True(t, strings.HasPrefix(readLine(t, r2), "pong two "))
}

func TestServerRejectsModulesAfterStart(t *testing.T) {
	srv, _ := newEndToEndServer(t)

	schema := module.NewSchema()
	require.NoError(t, schema.AddParameter(&module.Parameter{
		Name: "value", Datatype: datatype.NewBool(), Readonly: true,
	}))
	m, err := module.New("late", schema, testLog())
	require.NoError(t, err)
	assert.Error(t, srv.AddModule(m))
}
