package server

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/module"
	"github.com/SampleEnvironment/frappy/secop"
)

// Firmware and Version identify this implementation in the describing
// message and in discovery broadcasts.
const (
	Firmware = "frappy-go"
	Version  = "2024.09"
)

// Client is a connection as seen by the dispatcher. Enqueue must not block;
// it reports false when the client's outbound queue is full, upon which the
// dispatcher drops the client rather than stalling other connections.
type Client interface {
	ID() string
	Enqueue(msg *secop.Message) bool
	Close()
}

// Dispatcher is the single authority routing requests to modules and
// fanning out update events to activated connections.
//
// The module registry is immutable once the server has started and is read
// without synchronization. Activation state is guarded by subMu, which is
// held only for bookkeeping, never across module I/O or socket writes.
type Dispatcher struct {
	equipmentID string
	description string
	log         logger.Logger

	modules map[string]*module.Module
	order   []string

	clients *xsync.MapOf[string, Client]

	subMu  sync.Mutex
	subs   map[string]map[Client]struct{} // "<mod>" or "<mod>:<param>" -> subscribers
	active map[Client]struct{}            // node-wide activations

	busy *xsync.MapOf[string, struct{}] // "<mod>:<cmd>" markers of running commands
}

// NewDispatcher creates a dispatcher for the given equipment id.
func NewDispatcher(equipmentID, description string, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Dispatcher{
		equipmentID: equipmentID,
		description: description,
		log:         log,
		modules:     make(map[string]*module.Module),
		clients:     xsync.NewMapOf[string, Client](),
		subs:        make(map[string]map[Client]struct{}),
		active:      make(map[Client]struct{}),
		busy:        xsync.NewMapOf[string, struct{}](),
	}
}

// AddModule registers a module and connects its update announcements to the
// event fan-out. Must be called before the server starts serving.
func (d *Dispatcher) AddModule(m *module.Module) error {
	name := m.Name()
	if _, ok := d.modules[name]; ok {
		return secop.Errorf(secop.ClassInternalError, "module %q already registered", name)
	}
	d.modules[name] = m
	d.order = append(d.order, name)
	m.OnUpdate(d.announce)
	d.log.Debug("registered module", "module", name)
	return nil
}

// GetModule returns the named module.
func (d *Dispatcher) GetModule(name string) (*module.Module, error) {
	m, ok := d.modules[name]
	if !ok {
		return nil, secop.Errorf(secop.ClassNoSuchModule, "module %q does not exist on this SEC node", name)
	}
	return m, nil
}

// Module implements module.Registry for the cross-module init phase.
func (d *Dispatcher) Module(name string) (*module.Module, bool) {
	m, ok := d.modules[name]
	return m, ok
}

// ModuleNames returns the registered module names in registration order.
func (d *Dispatcher) ModuleNames() []string {
	names := make([]string, len(d.order))
	copy(names, d.order)
	return names
}

// AddClient registers a new connection.
func (d *Dispatcher) AddClient(c Client) {
	d.clients.Store(c.ID(), c)
	d.log.Debug("client added", "client", c.ID())
}

// RemoveClient removes a no longer functional connection from the registry
// and from all activation sets. Safe to call more than once and concurrent
// with event fan-out.
func (d *Dispatcher) RemoveClient(c Client) {
	d.clients.Delete(c.ID())
	d.ResetClient(c)
	d.log.Debug("client removed", "client", c.ID())
}

// ResetClient drops all activations of a connection. Also invoked on an
// identification request, which by protocol resets the session state.
func (d *Dispatcher) ResetClient(c Client) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, conns := range d.subs {
		delete(conns, c)
	}
	delete(d.active, c)
}

// subscribe registers a connection for one event name ("mod" or "mod:param").
func (d *Dispatcher) subscribe(c Client, event string) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	conns, ok := d.subs[event]
	if !ok {
		conns = make(map[Client]struct{})
		d.subs[event] = conns
	}
	conns[c] = struct{}{}
}

// unsubscribe removes a connection from one event name. For a module-level
// event the more specific per-parameter subscriptions are removed as well.
func (d *Dispatcher) unsubscribe(c Client, event string) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	if _, param := secop.SplitSpecifier(event); param == "" {
		prefix := event + ":"
		for name, conns := range d.subs {
			if len(name) > len(prefix) && name[:len(prefix)] == prefix {
				delete(conns, c)
			}
		}
	}
	if conns, ok := d.subs[event]; ok {
		delete(conns, c)
	}
}

// listeners collects the connections subscribed to an update of the given
// module and parameter: per-parameter and per-module subscribers plus all
// node-wide activated connections.
func (d *Dispatcher) listeners(mod, param string) []Client {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	seen := make(map[Client]struct{})
	for c := range d.subs[mod+":"+param] {
		seen[c] = struct{}{}
	}
	for c := range d.subs[mod] {
		seen[c] = struct{}{}
	}
	for c := range d.active {
		seen[c] = struct{}{}
	}

	out := make([]Client, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	return out
}

// announce is the module update hook: it builds the update event and
// enqueues it on every matching connection. A connection whose outbound
// queue is full is dropped; fan-out never blocks on a slow client.
//
// announce is called with the owning module's cache lock held, which is
// what makes cache mutation and event enqueue one atomic step and gives the
// per-parameter ordering guarantee.
func (d *Dispatcher) announce(u module.Update) {
	msg := d.updateMessage(u)
	for _, c := range d.listeners(u.Module, u.Parameter) {
		d.send(c, msg)
	}
}

// send enqueues a message on one connection, dropping the connection on
// overflow per the documented backpressure policy.
func (d *Dispatcher) send(c Client, msg *secop.Message) {
	if !c.Enqueue(msg) {
		d.log.Warn("outbound queue full, dropping client", "client", c.ID())
		d.RemoveClient(c)
		c.Close()
	}
}

// updateMessage renders a cache update as an update event, or as an
// error_update event when the parameter is in read-error state.
func (d *Dispatcher) updateMessage(u module.Update) *secop.Message {
	spec := u.Module + ":" + u.Parameter
	q := secop.Qualifiers{"t": secop.Timestamp(u.Entry.Timestamp)}

	if u.Entry.ReadError != nil {
		return &secop.Message{
			Action:    secop.ErrorPrefix + secop.ActionUpdate,
			Specifier: spec,
			Data:      secop.ErrorReport(u.Entry.ReadError.Class, u.Entry.ReadError.Message, map[string]any{"t": q["t"]}),
		}
	}

	wire, err := d.exportValue(u.Module, u.Parameter, u.Entry.Value)
	if err != nil {
		perr := secop.AsError(err)
		return &secop.Message{
			Action:    secop.ErrorPrefix + secop.ActionUpdate,
			Specifier: spec,
			Data:      secop.ErrorReport(perr.Class, perr.Message, map[string]any{"t": q["t"]}),
		}
	}

	return &secop.Message{
		Action:    secop.ActionUpdate,
		Specifier: spec,
		Data:      secop.DataReport(wire, q),
	}
}

// exportValue converts a typed cache value into its wire form using the
// parameter's datatype.
func (d *Dispatcher) exportValue(mod, param string, value any) (any, error) {
	m, ok := d.modules[mod]
	if !ok {
		return nil, secop.Errorf(secop.ClassInternalError, "unknown module %q in update", mod)
	}
	p := m.Schema().Parameter(param)
	if p == nil {
		return nil, secop.Errorf(secop.ClassInternalError, "unknown parameter %q in update", param)
	}
	return p.Datatype.Export(value)
}
