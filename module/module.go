package module

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/SampleEnvironment/frappy/datatype"
	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/secop"
)

// Default polling intervals, overridable per module via configuration.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultSlowInterval = 15 * time.Second
)

// ReadFunc retrieves a fresh value for one parameter from the hardware.
// It may block for the duration of real instrument I/O.
type ReadFunc func() (any, error)

// WriteFunc sends a validated value to the hardware and returns the
// accepted (read-back) value. It may block, and it may update other
// parameters of its module (e.g. status) through SetParam or SetStatus
// before returning.
type WriteFunc func(value any) (any, error)

// CommandFunc executes a command with a typed argument (nil when the command
// takes no argument) and returns its result (nil when it returns nothing).
type CommandFunc func(arg any) (any, error)

// CacheEntry is the cached state of one parameter: the last known value,
// when it was obtained, and the read error replacing the value when the
// last retrieval failed.
type CacheEntry struct {
	Value     any
	Timestamp time.Time
	ReadError *secop.Error
}

// Update describes one parameter change announcement.
type Update struct {
	Module    string
	Parameter string
	Entry     CacheEntry
}

// AnnounceFunc receives parameter change announcements. The module calls it
// with its cache lock held, so cache mutation and announcement form one
// atomic step; implementations must not block.
type AnnounceFunc func(u Update)

// Module owns the authoritative cached value of every parameter of one
// logical unit, plus the injected hardware callbacks.
//
// Two locks uphold the concurrency contract: ioMu serializes all hardware
// interaction of this module (concurrent requests to one module are
// serialized, different modules proceed independently) and cacheMu guards
// the parameter cache. cacheMu is only held for the cache mutation and the
// announcement, never across hardware I/O, so a slow instrument cannot
// stall the event fan-out of other modules.
type Module struct {
	name   string
	schema *Schema
	props  map[string]any
	log    logger.Logger

	PollInterval time.Duration
	SlowInterval time.Duration

	ioMu     sync.Mutex
	reads    map[string]ReadFunc
	writes   map[string]WriteFunc
	commands map[string]CommandFunc

	cacheMu sync.Mutex
	cache   map[string]*CacheEntry

	announce AnnounceFunc
	state    atomic.Uint32
	now      func() time.Time

	earlyInit func() error
	crossInit func(reg Registry) error
	start     func() error
}

// Registry provides read-only access to other modules during the
// cross-module init phase.
type Registry interface {
	Module(name string) (*Module, bool)
}

// New creates a module with the given name and schema.
func New(name string, schema *Schema, log logger.Logger) (*Module, error) {
	if !secop.ValidName(name) {
		return nil, secop.Errorf(secop.ClassInternalError, "invalid module name %q", name)
	}
	if schema == nil {
		return nil, secop.Errorf(secop.ClassInternalError, "module %s has no schema", name)
	}
	if log == nil {
		log = logger.GetLogger()
	}

	m := &Module{
		name:         name,
		schema:       schema,
		props:        map[string]any{"description": ""},
		log:          log.With("module", name),
		PollInterval: DefaultPollInterval,
		SlowInterval: DefaultSlowInterval,
		cache:        make(map[string]*CacheEntry),
		reads:        make(map[string]ReadFunc),
		writes:       make(map[string]WriteFunc),
		commands:     make(map[string]CommandFunc),
		announce:     func(Update) {},
		now:          time.Now,
	}
	return m, nil
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Schema returns the module's accessible schema.
func (m *Module) Schema() *Schema { return m.schema }

// Logger returns the module's logger.
func (m *Module) Logger() logger.Logger { return m.log }

// SetProperty sets a static module property (description, group,
// interface_classes, ...). Must be called before the server starts.
func (m *Module) SetProperty(name string, value any) {
	m.props[name] = value
}

// Describe returns the module description including its accessibles.
func (m *Module) Describe() map[string]any {
	desc := make(map[string]any, len(m.props)+1)
	for k, v := range m.props {
		desc[k] = v
	}
	desc["accessibles"] = m.schema.Describe()
	return desc
}

// OnUpdate installs the announcement hook. Installed once by the dispatcher
// when the module is registered.
func (m *Module) OnUpdate(fn AnnounceFunc) {
	if fn != nil {
		m.announce = fn
	}
}

// RegisterRead installs the read callback for a parameter.
func (m *Module) RegisterRead(param string, fn ReadFunc) error {
	if m.schema.Parameter(param) == nil {
		return secop.Errorf(secop.ClassInternalError, "module %s has no parameter %q", m.name, param)
	}
	m.reads[param] = fn
	return nil
}

// RegisterWrite installs the write callback for a writable parameter.
func (m *Module) RegisterWrite(param string, fn WriteFunc) error {
	p := m.schema.Parameter(param)
	if p == nil {
		return secop.Errorf(secop.ClassInternalError, "module %s has no parameter %q", m.name, param)
	}
	if p.Readonly {
		return secop.Errorf(secop.ClassInternalError, "parameter %s:%s is readonly", m.name, param)
	}
	m.writes[param] = fn
	return nil
}

// RegisterCommand installs the handler for a command.
func (m *Module) RegisterCommand(cmd string, fn CommandFunc) error {
	if m.schema.Command(cmd) == nil {
		return secop.Errorf(secop.ClassInternalError, "module %s has no command %q", m.name, cmd)
	}
	m.commands[cmd] = fn
	return nil
}

// setCache updates the cache entry and announces the change. Mutation and
// announcement happen under cacheMu, which is what guarantees per-parameter
// event ordering matches cache order.
func (m *Module) setCache(param string, value any, readErr *secop.Error) CacheEntry {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	entry := CacheEntry{Value: value, Timestamp: m.now(), ReadError: readErr}
	m.cache[param] = &entry
	m.announce(Update{Module: m.name, Parameter: param, Entry: entry})
	return entry
}

// SetParam coerces (without range check) and caches a value, announcing the
// change. This is the mutator for trusted internal code, e.g. a write
// callback updating a related parameter as a side effect.
func (m *Module) SetParam(param string, value any) error {
	p := m.schema.Parameter(param)
	if p == nil {
		return secop.Errorf(secop.ClassNoSuchParameter, "module %s has no parameter %q", m.name, param)
	}
	cv, err := p.Datatype.Coerce(value)
	if err != nil {
		return err
	}
	m.setCache(param, cv, nil)
	return nil
}

// SetStatus updates the status parameter. Intended for use from hardware
// callbacks and the poller.
func (m *Module) SetStatus(code int64, text string) {
	if m.schema.Parameter("status") == nil {
		return
	}
	if err := m.SetParam("status", []any{code, text}); err != nil {
		m.log.Error("set status failed", "error", err)
	}
}

// Cached returns the cache entry for a parameter without touching hardware.
func (m *Module) Cached(param string) (CacheEntry, bool) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	entry, ok := m.cache[param]
	if !ok {
		return CacheEntry{}, false
	}
	return *entry, true
}

// CacheSnapshot returns a copy of the cache for all parameters in schema
// order. Used by the dispatcher for activation dumps.
func (m *Module) CacheSnapshot() []Update {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	var dump []Update
	for _, name := range m.schema.ParameterNames() {
		if entry, ok := m.cache[name]; ok {
			dump = append(dump, Update{Module: m.name, Parameter: name, Entry: *entry})
		}
	}
	return dump
}

// Read returns a fresh value for the parameter. When a read callback is
// registered it blocks until the hardware replied, updates the cache and
// announces the change; without one it serves the cached value.
func (m *Module) Read(param string) (CacheEntry, error) {
	p := m.schema.Parameter(param)
	if p == nil {
		return CacheEntry{}, secop.Errorf(secop.ClassNoSuchParameter,
			"module %s has no parameter %q", m.name, param)
	}

	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	fn, ok := m.reads[param]
	if !ok {
		if entry, ok := m.Cached(param); ok {
			return entry, nil
		}
		return CacheEntry{}, secop.Errorf(secop.ClassInternalError,
			"parameter %s:%s has no value yet", m.name, param)
	}

	return m.readIO(param, p, fn)
}

// readIO performs one hardware read. Callers must hold ioMu. A failure is
// recorded as the parameter's read-error state and announced.
func (m *Module) readIO(param string, p *Parameter, fn ReadFunc) (CacheEntry, error) {
	raw, err := fn()
	if err != nil {
		perr := secop.AsError(err)
		entry := m.setCache(param, nil, perr)
		return entry, perr
	}

	// trusted internal path: type coercion only, no range check
	cv, cerr := p.Datatype.Coerce(raw)
	if cerr != nil {
		perr := secop.AsError(cerr)
		entry := m.setCache(param, nil, perr)
		return entry, perr
	}

	return m.setCache(param, cv, nil), nil
}

// Write validates the raw value against the parameter's datatype (range
// checked), invokes the write callback, caches the accepted read-back value
// and announces it.
func (m *Module) Write(param string, raw any) (CacheEntry, error) {
	p := m.schema.Parameter(param)
	if p == nil {
		return CacheEntry{}, secop.Errorf(secop.ClassNoSuchParameter,
			"module %s has no parameter %q", m.name, param)
	}
	if p.Readonly {
		return CacheEntry{}, secop.Errorf(secop.ClassReadOnly,
			"parameter %s:%s can not be changed remotely", m.name, param)
	}
	fn, ok := m.writes[param]
	if !ok {
		return CacheEntry{}, secop.Errorf(secop.ClassReadOnly,
			"parameter %s:%s has no write handler", m.name, param)
	}

	// reject before any hardware interaction
	value, err := p.Datatype.Validate(raw)
	if err != nil {
		return CacheEntry{}, err
	}

	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	accepted, err := fn(value)
	if err != nil {
		return CacheEntry{}, secop.AsError(err)
	}
	if accepted == nil {
		accepted = value
	}
	cv, cerr := p.Datatype.Coerce(accepted)
	if cerr != nil {
		return CacheEntry{}, secop.AsError(cerr)
	}

	return m.setCache(param, cv, nil), nil
}

// Execute runs a command handler. Reentrancy control for a running command
// lives in the dispatcher. Execute does not take the module's I/O lock, so
// a slow command leaves parameter reads unaffected.
func (m *Module) Execute(cmd string, arg any) (any, error) {
	c := m.schema.Command(cmd)
	if c == nil {
		return nil, secop.Errorf(secop.ClassNoSuchCommand,
			"module %s has no command %q", m.name, cmd)
	}
	fn, ok := m.commands[cmd]
	if !ok {
		return nil, secop.Errorf(secop.ClassNoSuchCommand,
			"command %s:%s has no handler", m.name, cmd)
	}

	var typedArg any
	if c.Argument != nil {
		if arg == nil {
			return nil, secop.Errorf(secop.ClassBadValue,
				"command %s:%s needs an argument", m.name, cmd)
		}
		var err error
		typedArg, err = c.Argument.Validate(arg)
		if err != nil {
			return nil, err
		}
	} else if arg != nil {
		return nil, secop.Errorf(secop.ClassBadValue,
			"command %s:%s takes no argument", m.name, cmd)
	}

	// the handler runs without ioMu: a long-running command must not stall
	// parameter reads, and reentrant execution is fenced off per command by
	// the dispatcher. Handlers touching parameters go through Read/Write,
	// which serialize on ioMu themselves.
	result, err := fn(typedArg)
	if err != nil {
		perr := secop.AsError(err)
		if perr.Class == secop.ClassInternalError {
			perr = secop.Errorf(secop.ClassCommandFailed, "%s", perr.Message)
		}
		return nil, perr
	}
	if c.Result != nil {
		return c.Result.Coerce(result)
	}
	return nil, nil
}

// OnEarlyInit installs the optional independent init hook.
func (m *Module) OnEarlyInit(fn func() error) { m.earlyInit = fn }

// OnInit installs the optional cross-module wiring hook.
func (m *Module) OnInit(fn func(reg Registry) error) { m.crossInit = fn }

// OnStart installs the optional startup hook, run before initial values are
// obtained.
func (m *Module) OnStart(fn func() error) { m.start = fn }

// EarlyInit runs the independent init phase. Failure is fatal to startup.
func (m *Module) EarlyInit() error {
	if err := m.advance(CreatedState, EarlyInitState); err != nil {
		return err
	}
	if m.earlyInit != nil {
		if err := m.earlyInit(); err != nil {
			return err
		}
	}
	return nil
}

// Init runs the cross-module wiring phase. Failure is fatal to startup.
func (m *Module) Init(reg Registry) error {
	if err := m.advance(EarlyInitState, InitializedState); err != nil {
		return err
	}
	if m.crossInit != nil {
		if err := m.crossInit(reg); err != nil {
			return err
		}
	}
	return nil
}

// Start obtains initial values for all polled parameters. Failure of a
// single parameter is not fatal; it is recorded as that parameter's read
// error like any poll failure.
func (m *Module) Start() error {
	if err := m.advance(InitializedState, StartedState); err != nil {
		return err
	}
	if m.start != nil {
		if err := m.start(); err != nil {
			return err
		}
	}
	m.pollAll()
	return nil
}

// pollAll reads every parameter with a registered read callback.
func (m *Module) pollAll() {
	for _, name := range m.schema.ParameterNames() {
		m.pollParam(name)
	}
}

// pollParam refreshes one parameter from hardware, routing failures into
// the parameter's read-error state instead of stopping the poller.
func (m *Module) pollParam(param string) {
	p := m.schema.Parameter(param)
	if p == nil {
		return
	}

	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	fn, ok := m.reads[param]
	if !ok {
		return
	}
	if _, err := m.readIO(param, p, fn); err != nil {
		m.log.Warn("poll failed", "param", param, "error", err)
		if param == "value" {
			m.SetStatus(datatype.StatusError, secop.AsError(err).Message)
		}
	}
}
