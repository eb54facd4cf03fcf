package client

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SampleEnvironment/frappy/demo"
	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/secop"
	"github.com/SampleEnvironment/frappy/server"
)

func testLog() logger.Logger {
	return logger.NewSlog(logger.ErrorLevel, false)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// startNode runs a node with one simulated temperature controller and
// returns its address.
func startNode(t *testing.T) string {
	t.Helper()

	srv := server.New(server.Options{
		EquipmentID: "client_test_node",
		Description: "node for client tests",
		Bind:        "127.0.0.1",
		Port:        freePort(t),
		Logger:      testLog(),
	})
	m, err := demo.NewTempController("t1", testLog())
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

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 5*time.Second, 10*time.Millisecond)
	return srv.Addr().String()
}

func connect(t *testing.T, addr string, opts Options) *Client {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLog()
	}
	c, err := Connect(addr, opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestClientIdentAndPing(t *testing.T) {
	c := connect(t, startNode(t), Options{})

	ident, err := c.Ident()
	require.NoError(t, err)
	assert.Equal(t, secop.IdentReply, ident)

	require.NoError(t, c.Ping())
}

func TestClientDescribe(t *testing.T) {
	c := connect(t, startNode(t), Options{})

	desc, err := c.Describe()
	require.NoError(t, err)
	assert.Equal(t, "client_test_node", desc["equipment_id"])

	modules, ok := desc["modules"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, modules, "t1")
}

func TestClientReadChangeDo(t *testing.T) {
	c := connect(t, startNode(t), Options{})

	value, err := c.Read("t1:value")
	require.NoError(t, err)
	assert.InDelta(t, 295.0, value.(float64), 1.0)

	readback, err := c.Change("t1:target", 300.0)
	require.NoError(t, err)
	assert.Equal(t, 300.0, readback)

	result, err := c.Do("t1:stop", nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestClientErrorReplies(t *testing.T) {
	c := connect(t, startNode(t), Options{})

	_, err := c.Read("nope:value")
	require.Error(t, err)
	perr := secop.AsError(err)
	assert.Equal(t, secop.ClassNoSuchModule, perr.Class)

	_, err = c.Change("t1:target", 99999.0)
	require.Error(t, err)
	assert.Equal(t, secop.ClassBadValue, secop.AsError(err).Class)
}

func TestClientReceivesUpdates(t *testing.T) {
	var mu sync.Mutex
	var events []*secop.Message
	addr := startNode(t)
	c := connect(t, addr, Options{
		OnUpdate: func(msg *secop.Message) {
			mu.Lock()
			events = append(events, msg)
			mu.Unlock()
		},
	})

	require.NoError(t, c.Activate(""))

	// the poller publishes while requests keep working
	require.NoError(t, c.Ping())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) >= 3
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	for _, e := range events {
		assert.Equal(t, secop.ActionUpdate, e.Action)
		assert.Contains(t, e.Specifier, "t1:")
	}
	mu.Unlock()

	require.NoError(t, c.Deactivate(""))
}
