package server

import (
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/secop"
)

// The websocket interface speaks the same protocol as the TCP one, with
// frames instead of lines: every text frame carries exactly one message,
// without line terminator. An empty frame asks for help.

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// SEC nodes live on instrument networks without browser-origin trust
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsConn serves one websocket client. Like Conn it keeps a bounded outbound
// queue drained by a writer goroutine, so event fan-out never blocks on a
// slow peer.
type wsConn struct {
	id   string
	ws   *websocket.Conn
	disp *Dispatcher
	log  logger.Logger

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn, disp *Dispatcher, log logger.Logger) *wsConn {
	id := uuid.NewString()
	return &wsConn{
		id:   id,
		ws:   ws,
		disp: disp,
		log:  log.With("client", id, "remote", ws.RemoteAddr().String(), "transport", "ws"),
		out:  make(chan []byte, outQueueSize),
		done: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *wsConn) Enqueue(msg *secop.Message) bool {
	line, err := msg.EncodeLine()
	if err != nil {
		c.log.Error("cannot encode reply", "action", msg.Action, "error", err)
		return true
	}
	return c.enqueueRaw(line)
}

func (c *wsConn) enqueueRaw(line []byte) bool {
	select {
	case c.out <- line:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *wsConn) serve() {
	c.log.Info("client connected")
	c.disp.AddClient(c)
	defer func() {
		c.disp.RemoveClient(c)
		c.Close()
		c.log.Info("client disconnected")
	}()

	go c.writeLoop()

	for {
		kind, frame, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		// one frame, one message
		handleLine(c.disp, c, frame)
	}
}

func (c *wsConn) writeLoop() {
	for {
		select {
		case line := <-c.out:
			if err := c.ws.WriteMessage(websocket.TextMessage, line); err != nil {
				c.log.Debug("write failed", "error", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// wsHandler upgrades an HTTP request and serves the connection.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	newWSConn(ws, s.disp, s.log).serve()
}

// listenWS binds the websocket listener.
func (s *Server) listenWS(addr string) (net.Listener, *http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.wsHandler)
	return ln, &http.Server{Handler: mux}, nil
}
