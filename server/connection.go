package server

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/secop"
)

// outQueueSize bounds the per-connection outbound queue. A client that
// cannot drain events fast enough is disconnected instead of slowing the
// fan-out for everyone else.
const outQueueSize = 64

// helpMessage is sent line by line in response to an empty line or a help
// request.
var helpMessage = []string{
	"Try one of the following:",
	"            '" + secop.ActionIdent + "' to query protocol version",
	"            '" + secop.ActionDescribe + "' to read the description",
	"            '" + secop.ActionRead + " <module>[:<parameter>]' to request reading a value",
	"            '" + secop.ActionChange + " <module>[:<parameter>] value' to request changing a value",
	"            '" + secop.ActionDo + " <module>:<command>' to execute a command",
	"            '" + secop.ActionPing + " <nonce>' to request a heartbeat response",
	"            '" + secop.ActionActivate + "' to activate async updates",
	"            '" + secop.ActionDeactivate + "' to deactivate updates",
}

// Conn serves one TCP client. A dedicated reader goroutine decodes and
// dispatches requests; a writer goroutine drains the outbound queue, so the
// dispatcher never blocks on a slow socket.
type Conn struct {
	id   string
	raw  net.Conn
	disp *Dispatcher
	log  logger.Logger

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// crlf is set when the peer terminates its lines with \r\n; replies
	// then use the same terminator.
	crlf atomic.Bool
}

func newConn(raw net.Conn, disp *Dispatcher, log logger.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:   id,
		raw:  raw,
		disp: disp,
		log:  log.With("client", id, "remote", raw.RemoteAddr().String()),
		out:  make(chan []byte, outQueueSize),
		done: make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// Close shuts the connection down. Safe to call from any goroutine and more
// than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.raw.Close()
	})
}

// Enqueue encodes a message and puts it on the outbound queue without
// blocking. It reports false when the queue is full.
func (c *Conn) Enqueue(msg *secop.Message) bool {
	line, err := msg.EncodeLine()
	if err != nil {
		c.log.Error("cannot encode reply", "action", msg.Action, "error", err)
		return true
	}
	return c.enqueueRaw(line)
}

func (c *Conn) enqueueRaw(line []byte) bool {
	select {
	case c.out <- line:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

// serve runs the connection until the peer disconnects or the connection is
// dropped. It blocks, so the accept loop runs it in its own goroutine.
func (c *Conn) serve() {
	c.log.Info("client connected")
	c.disp.AddClient(c)
	defer func() {
		c.disp.RemoveClient(c)
		c.Close()
		c.log.Info("client disconnected")
	}()

	go c.writeLoop()

	var scanner frameScanner
	buf := make([]byte, 4096)
	for {
		n, err := c.raw.Read(buf)
		if n > 0 {
			scanner.Feed(buf[:n])
			for {
				frame, ok := scanner.Next()
				if !ok {
					break
				}
				// pick up the terminator style before replying
				c.crlf.Store(scanner.SawCR())
				c.handleLine(frame)
			}
		}
		if err != nil {
			return
		}
	}
}

// writeLoop drains the outbound queue onto the socket.
func (c *Conn) writeLoop() {
	terminator := []byte{'\n'}
	crlfTerminator := []byte{'\r', '\n'}
	for {
		select {
		case line := <-c.out:
			t := terminator
			if c.crlf.Load() {
				t = crlfTerminator
			}
			if _, err := c.raw.Write(append(line, t...)); err != nil {
				c.log.Debug("write failed", "error", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// wireClient is a client that can additionally carry raw reply lines, which
// the identification reply and the help text need.
type wireClient interface {
	Client
	enqueueRaw(line []byte) bool
}

func (c *Conn) handleLine(line []byte) {
	handleLine(c.disp, c, line)
}

// handleLine processes one received line on behalf of a client: help,
// identification, or a regular request routed through the dispatcher.
// Replies are enqueued in request order. Shared by the TCP and websocket
// transports.
func handleLine(d *Dispatcher, c wireClient, line []byte) {
	trimmed := strings.TrimSpace(string(line))

	if trimmed == "" || trimmed == secop.ActionHelp {
		for i, text := range helpMessage {
			c.enqueueRaw([]byte(fmt.Sprintf("_ %d %s", i+1, text)))
		}
		c.Enqueue(&secop.Message{Action: secop.ActionHelping})
		return
	}

	if trimmed == secop.ActionIdent {
		// identification resets the session state
		d.ResetClient(c)
		c.enqueueRaw([]byte(secop.IdentReply))
		return
	}

	msg, err := secop.DecodeLine([]byte(trimmed))
	if err != nil {
		c.Enqueue(errorReplyFor(trimmed, secop.AsError(err)))
		return
	}
	if !msg.IsRequest() {
		c.Enqueue(errorReplyFor(trimmed, secop.Errorf(secop.ClassSyntaxError, "%q is not a request", msg.Action)))
		return
	}

	reply, err := d.HandleRequest(c, msg)
	if err != nil {
		perr := secop.AsError(err)
		c.Enqueue(&secop.Message{
			Action:    secop.ErrorPrefix + msg.Action,
			Specifier: msg.Specifier,
			Data:      secop.ErrorReport(perr.Class, perr.Message, nil),
		})
		return
	}
	c.Enqueue(reply)
}

// errorReplyFor builds an error reply for a line that could not be decoded
// or is not a valid request, echoing back whatever action and specifier
// tokens were present.
func errorReplyFor(line string, perr *secop.Error) *secop.Message {
	parts := strings.SplitN(line, " ", 3)
	action := parts[0]
	specifier := ""
	if len(parts) > 1 {
		specifier = parts[1]
	}
	return &secop.Message{
		Action:    secop.ErrorPrefix + action,
		Specifier: specifier,
		Data:      secop.ErrorReport(perr.Class, perr.Message, nil),
	}
}
