// Package client implements a small synchronous SECoP client.
//
// Requests are serialized on the connection and matched to their
// confirmation replies; asynchronous update events are delivered to an
// optional handler and never interfere with request/reply matching.
package client

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/secop"
)

// UpdateHandler receives asynchronous update and error_update events.
type UpdateHandler func(msg *secop.Message)

// Options configures a client connection.
type Options struct {
	// Timeout bounds each request round trip. Defaults to 10 seconds.
	Timeout time.Duration

	// OnUpdate, when set, receives asynchronous events.
	OnUpdate UpdateHandler

	// Logger receives client logs. Defaults to the package default logger.
	Logger logger.Logger
}

// Client is a connection to one SEC node.
type Client struct {
	conn    net.Conn
	timeout time.Duration
	log     logger.Logger

	reqMu sync.Mutex // serializes request/reply cycles

	onUpdate UpdateHandler
	replies  chan string

	closeOnce sync.Once
	closed    chan struct{}
}

// Connect dials a SEC node.
func Connect(addr string, opts Options) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	conn, err := net.DialTimeout("tcp", addr, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c := &Client{
		conn:     conn,
		timeout:  opts.Timeout,
		log:      opts.Logger.With("node", addr),
		onUpdate: opts.OnUpdate,
		replies:  make(chan string, 16),
		closed:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close shuts the connection down.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// readLoop splits incoming lines into asynchronous events, which go to the
// update handler, and everything else, which feeds the pending request.
func (c *Client) readLoop() {
	defer c.Close()
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if c.isEvent(line) {
			continue
		}
		select {
		case c.replies <- line:
		case <-c.closed:
			return
		}
	}
}

// isEvent dispatches update events, reporting whether the line was one.
func (c *Client) isEvent(line string) bool {
	action := line
	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		action = line[:idx]
	}
	if action != secop.ActionUpdate && action != secop.ErrorPrefix+secop.ActionUpdate {
		return false
	}
	if c.onUpdate != nil {
		msg, err := secop.DecodeLine([]byte(line))
		if err != nil {
			c.log.Warn("undecodable event", "line", line, "error", err)
			return true
		}
		c.onUpdate(msg)
	}
	return true
}

// roundTrip sends one raw line and returns the next reply line.
func (c *Client) roundTrip(line string) (string, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", err
	}
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return "", fmt.Errorf("send %q: %w", line, err)
	}

	select {
	case reply := <-c.replies:
		return reply, nil
	case <-time.After(c.timeout):
		return "", fmt.Errorf("timeout waiting for reply to %q", line)
	case <-c.closed:
		return "", fmt.Errorf("connection closed")
	}
}

// Ident performs the protocol identification exchange.
func (c *Client) Ident() (string, error) {
	return c.roundTrip(secop.ActionIdent)
}

// Request sends one request message and returns the decoded confirmation.
// An error reply comes back as a *secop.Error.
func (c *Client) Request(action, specifier string, data any) (*secop.Message, error) {
	req := &secop.Message{Action: action, Specifier: specifier, Data: data}
	line, err := req.EncodeLine()
	if err != nil {
		return nil, err
	}
	replyLine, err := c.roundTrip(string(line))
	if err != nil {
		return nil, err
	}

	reply, err := secop.DecodeLine([]byte(replyLine))
	if err != nil {
		return nil, fmt.Errorf("undecodable reply %q: %w", replyLine, err)
	}
	if strings.HasPrefix(reply.Action, secop.ErrorPrefix) {
		return nil, decodeErrorReply(reply)
	}
	want, _ := secop.ReplyAction(action)
	if reply.Action != want {
		return nil, fmt.Errorf("unexpected reply %q to %q", reply.Action, action)
	}
	return reply, nil
}

// decodeErrorReply turns an error reply into a *secop.Error.
func decodeErrorReply(reply *secop.Message) error {
	report, ok := reply.Data.([]any)
	if !ok || len(report) < 2 {
		return secop.Errorf(secop.ClassInternalError, "malformed error reply %s", reply.Action)
	}
	class, _ := report[0].(string)
	message, _ := report[1].(string)
	return &secop.Error{Class: secop.Class(class), Message: message}
}

// Describe fetches the node's structure report.
func (c *Client) Describe() (map[string]any, error) {
	reply, err := c.Request(secop.ActionDescribe, "", nil)
	if err != nil {
		return nil, err
	}
	desc, ok := reply.Data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("malformed structure report")
	}
	return desc, nil
}

// Read requests a fresh value. The specifier is "module" or
// "module:parameter".
func (c *Client) Read(specifier string) (value any, err error) {
	reply, err := c.Request(secop.ActionRead, specifier, nil)
	if err != nil {
		return nil, err
	}
	return reportValue(reply)
}

// Change writes a parameter and returns the read-back value.
func (c *Client) Change(specifier string, value any) (any, error) {
	reply, err := c.Request(secop.ActionChange, specifier, value)
	if err != nil {
		return nil, err
	}
	return reportValue(reply)
}

// Do executes a command and returns its result, nil for void commands.
func (c *Client) Do(specifier string, arg any) (any, error) {
	reply, err := c.Request(secop.ActionDo, specifier, arg)
	if err != nil {
		return nil, err
	}
	return reportValue(reply)
}

// Activate enables asynchronous updates for the given scope, the whole node
// when the specifier is empty.
func (c *Client) Activate(specifier string) error {
	_, err := c.Request(secop.ActionActivate, specifier, nil)
	return err
}

// Deactivate disables asynchronous updates for the given scope.
func (c *Client) Deactivate(specifier string) error {
	_, err := c.Request(secop.ActionDeactivate, specifier, nil)
	return err
}

// Ping checks the connection round trip.
func (c *Client) Ping() error {
	_, err := c.Request(secop.ActionPing, "check", nil)
	return err
}

// reportValue extracts the value from a [value, qualifiers] data report.
func reportValue(reply *secop.Message) (any, error) {
	report, ok := reply.Data.([]any)
	if !ok || len(report) < 1 {
		return nil, fmt.Errorf("malformed data report in %s reply", reply.Action)
	}
	return report[0], nil
}
