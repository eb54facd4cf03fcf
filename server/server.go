package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/module"
	"github.com/SampleEnvironment/frappy/secop"
)

// DefaultPort is the IANA registered TCP port for SECoP.
const DefaultPort = 10767

// Options configures a SEC node server.
type Options struct {
	// EquipmentID uniquely names the equipment this node represents.
	EquipmentID string

	// Description is the human readable node description shown in the
	// structure report and discovery announcements.
	Description string

	// Bind is the address to listen on, defaults to all interfaces.
	Bind string

	// Port is the TCP port to serve on, defaults to DefaultPort.
	Port int

	// WSPort serves the protocol over websocket in addition to TCP,
	// one message per text frame. Zero disables the websocket listener.
	WSPort int

	// Discovery enables the UDP discovery responder.
	Discovery bool

	// Logger receives server logs. Defaults to the package default logger.
	Logger logger.Logger
}

// Server is a SEC node: it owns the modules, runs their pollers and serves
// the SECoP protocol over TCP.
//
// Lifecycle: create, AddModule for each module, then Run. Module
// registration after Run is not supported.
type Server struct {
	opts Options
	log  logger.Logger
	disp *Dispatcher

	mu      sync.Mutex
	ln      net.Listener
	wsLn    net.Listener
	started bool
}

// New creates a server for the given options.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Bind == "" {
		opts.Bind = "0.0.0.0"
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	return &Server{
		opts: opts,
		log:  opts.Logger,
		disp: NewDispatcher(opts.EquipmentID, opts.Description, opts.Logger),
	}
}

// AddModule registers a module with the node.
func (s *Server) AddModule(m *module.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return secop.Errorf(secop.ClassInternalError, "cannot add module %q after the server has started", m.Name())
	}
	return s.disp.AddModule(m)
}

// Dispatcher exposes the request dispatcher, mainly for tests.
func (s *Server) Dispatcher() *Dispatcher { return s.disp }

// Run initializes all modules, starts their pollers and serves connections
// until the context is cancelled. Module initialization runs in three
// phases across all modules: early init, cross-module init, start. A
// failure in any phase aborts startup.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return secop.Errorf(secop.ClassInternalError, "server already running")
	}
	s.started = true
	s.mu.Unlock()

	if err := s.initModules(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, name := range s.disp.ModuleNames() {
		m, _ := s.disp.Module(name)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.StartPolling(ctx); err != nil {
				s.log.Error("poller failed to start", "module", m.Name(), "error", err)
			}
		}()
	}

	if s.opts.Discovery {
		disc, err := NewDiscovery(s.opts.EquipmentID, s.opts.Description, s.opts.Port, s.log)
		if err != nil {
			s.log.Warn("discovery unavailable", "error", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				disc.Run(ctx)
			}()
		}
	}

	if s.opts.WSPort != 0 {
		addr := fmt.Sprintf("%s:%d", s.opts.Bind, s.opts.WSPort)
		ln, srv, err := s.listenWS(addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		s.mu.Lock()
		s.wsLn = ln
		s.mu.Unlock()
		s.log.Info("accepting websocket connections", "addr", ln.Addr().String())
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			_ = srv.Close()
		}()
		go func() {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				s.log.Error("websocket listener failed", "error", err)
			}
		}()
	}

	err := s.serve(ctx)
	cancel()
	wg.Wait()
	return err
}

// initModules runs the three module startup phases.
func (s *Server) initModules() error {
	names := s.disp.ModuleNames()
	for _, name := range names {
		m, _ := s.disp.Module(name)
		if err := m.EarlyInit(); err != nil {
			return fmt.Errorf("early init of module %q: %w", name, err)
		}
	}
	for _, name := range names {
		m, _ := s.disp.Module(name)
		if err := m.Init(s.disp); err != nil {
			return fmt.Errorf("init of module %q: %w", name, err)
		}
	}
	for _, name := range names {
		m, _ := s.disp.Module(name)
		if err := m.Start(); err != nil {
			return fmt.Errorf("start of module %q: %w", name, err)
		}
	}
	return nil
}

// serve runs the TCP accept loop until the context is cancelled.
func (s *Server) serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.opts.Bind, s.opts.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Info("accepting connections", "addr", ln.Addr().String(), "equipment_id", s.opts.EquipmentID)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		raw, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		c := newConn(raw, s.disp, s.log)
		go c.serve()
	}
}

// Addr returns the bound listener address, once serving.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// WSAddr returns the bound websocket listener address, if enabled.
func (s *Server) WSAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wsLn == nil {
		return nil
	}
	return s.wsLn.Addr()
}
