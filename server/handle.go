package server

import (
	"time"

	"github.com/SampleEnvironment/frappy/module"
	"github.com/SampleEnvironment/frappy/secop"
)

// HandleRequest processes one decoded request message on behalf of a
// connection and returns the confirmation reply. Update events triggered by
// the request (read fan-out, activation dumps) are enqueued on the relevant
// connections before the confirmation is returned, preserving the protocol's
// ordering between events and replies.
//
// A returned error is always a *secop.Error; the connection renders it as an
// error_<action> reply to the requester.
func (d *Dispatcher) HandleRequest(c Client, msg *secop.Message) (*secop.Message, error) {
	switch msg.Action {
	case secop.ActionDescribe, secop.ActionActivate, secop.ActionDeactivate,
		secop.ActionRead, secop.ActionPing:
		if msg.Data != nil {
			return nil, secop.Errorf(secop.ClassSyntaxError, "%s requests don't take data", msg.Action)
		}
	}

	switch msg.Action {
	case secop.ActionDescribe:
		return d.handleDescribe(msg)
	case secop.ActionActivate:
		return d.handleActivate(c, msg)
	case secop.ActionDeactivate:
		return d.handleDeactivate(c, msg)
	case secop.ActionRead:
		return d.handleRead(msg)
	case secop.ActionChange:
		return d.handleChange(msg)
	case secop.ActionDo:
		return d.handleDo(msg)
	case secop.ActionPing:
		return d.handlePing(msg)
	default:
		return nil, secop.Errorf(secop.ClassSyntaxError, "unknown action %q", msg.Action)
	}
}

// handleDescribe assembles the structure report of the whole node. Only the
// node-level specifiers "" and "." are accepted.
func (d *Dispatcher) handleDescribe(msg *secop.Message) (*secop.Message, error) {
	if msg.Specifier != "" && msg.Specifier != "." {
		return nil, secop.Errorf(secop.ClassSyntaxError, "describe does not accept specifier %q", msg.Specifier)
	}

	modules := make(map[string]any, len(d.order))
	for _, name := range d.order {
		modules[name] = d.modules[name].Describe()
	}

	return &secop.Message{
		Action:    secop.ActionDescribing,
		Specifier: ".",
		Data: map[string]any{
			"equipment_id": d.equipmentID,
			"firmware":     Firmware,
			"version":      Version,
			"description":  d.description,
			"modules":      modules,
		},
	}, nil
}

// handleActivate subscribes the connection, dumps the current cache of the
// activated scope as update events and confirms with active. The dump goes
// only to the requesting connection.
func (d *Dispatcher) handleActivate(c Client, msg *secop.Message) (*secop.Message, error) {
	if msg.Specifier == "" {
		d.subMu.Lock()
		d.active[c] = struct{}{}
		d.subMu.Unlock()
		for _, name := range d.order {
			d.dumpModule(c, d.modules[name])
		}
		return &secop.Message{Action: secop.ActionActive}, nil
	}

	mod, param := secop.SplitSpecifier(msg.Specifier)
	m, err := d.GetModule(mod)
	if err != nil {
		return nil, err
	}

	if param == "" {
		d.subscribe(c, mod)
		d.dumpModule(c, m)
		return &secop.Message{Action: secop.ActionActive, Specifier: msg.Specifier}, nil
	}

	if m.Schema().Parameter(param) == nil {
		return nil, secop.Errorf(secop.ClassNoSuchParameter, "module %q has no parameter %q", mod, param)
	}
	d.subscribe(c, mod+":"+param)
	if entry, ok := m.Cached(param); ok {
		d.send(c, d.updateMessage(module.Update{Module: mod, Parameter: param, Entry: entry}))
	}
	return &secop.Message{Action: secop.ActionActive, Specifier: msg.Specifier}, nil
}

// dumpModule unicasts the cached state of every parameter of one module.
func (d *Dispatcher) dumpModule(c Client, m *module.Module) {
	for _, u := range m.CacheSnapshot() {
		d.send(c, d.updateMessage(u))
	}
}

func (d *Dispatcher) handleDeactivate(c Client, msg *secop.Message) (*secop.Message, error) {
	if msg.Specifier == "" {
		d.ResetClient(c)
		return &secop.Message{Action: secop.ActionInactive}, nil
	}
	d.unsubscribe(c, msg.Specifier)
	return &secop.Message{Action: secop.ActionInactive, Specifier: msg.Specifier}, nil
}

// handleRead triggers a hardware read. The fresh value reaches activated
// connections through the regular update fan-out; the requester additionally
// gets a direct reply carrying the same value.
func (d *Dispatcher) handleRead(msg *secop.Message) (*secop.Message, error) {
	mod, param := secop.SplitSpecifier(msg.Specifier)
	if mod == "" {
		return nil, secop.Errorf(secop.ClassSyntaxError, "read needs a module specifier")
	}
	if param == "" {
		param = "value"
	}
	m, err := d.GetModule(mod)
	if err != nil {
		return nil, err
	}

	entry, err := m.Read(param)
	if err != nil {
		return nil, secop.AsError(err)
	}
	wire, err := d.exportValue(mod, param, entry.Value)
	if err != nil {
		return nil, secop.AsError(err)
	}
	return &secop.Message{
		Action:    secop.ActionReply,
		Specifier: msg.Specifier,
		Data:      secop.DataReport(wire, secop.Qualifiers{"t": secop.Timestamp(entry.Timestamp)}),
	}, nil
}

// handleChange validates and writes a parameter, confirming with the
// read-back value actually in effect.
func (d *Dispatcher) handleChange(msg *secop.Message) (*secop.Message, error) {
	mod, param := secop.SplitSpecifier(msg.Specifier)
	if mod == "" {
		return nil, secop.Errorf(secop.ClassSyntaxError, "change needs a module specifier")
	}
	if param == "" {
		param = "target"
	}
	m, err := d.GetModule(mod)
	if err != nil {
		return nil, err
	}

	entry, err := m.Write(param, msg.Data)
	if err != nil {
		return nil, secop.AsError(err)
	}
	wire, err := d.exportValue(mod, param, entry.Value)
	if err != nil {
		return nil, secop.AsError(err)
	}
	return &secop.Message{
		Action:    secop.ActionChanged,
		Specifier: msg.Specifier,
		Data:      secop.DataReport(wire, secop.Qualifiers{"t": secop.Timestamp(entry.Timestamp)}),
	}, nil
}

// handleDo executes a command. A per-command marker rejects reentrant
// execution with CommandRunning while a previous invocation is still in
// flight.
func (d *Dispatcher) handleDo(msg *secop.Message) (*secop.Message, error) {
	mod, cmd := secop.SplitSpecifier(msg.Specifier)
	if mod == "" || cmd == "" {
		return nil, secop.Errorf(secop.ClassSyntaxError, "do needs a module:command specifier")
	}
	m, err := d.GetModule(mod)
	if err != nil {
		return nil, err
	}
	spec := m.Schema().Command(cmd)
	if spec == nil {
		return nil, secop.Errorf(secop.ClassNoSuchCommand, "module %q has no command %q", mod, cmd)
	}

	key := mod + ":" + cmd
	if _, running := d.busy.LoadOrStore(key, struct{}{}); running {
		return nil, secop.Errorf(secop.ClassCommandRunning, "command %q is still running", key)
	}
	defer d.busy.Delete(key)

	result, err := m.Execute(cmd, msg.Data)
	if err != nil {
		return nil, secop.AsError(err)
	}

	var wire any
	if spec.Result != nil {
		if wire, err = spec.Result.Export(result); err != nil {
			return nil, secop.AsError(err)
		}
	}
	return &secop.Message{
		Action:    secop.ActionDone,
		Specifier: msg.Specifier,
		Data:      secop.DataReport(wire, secop.Qualifiers{"t": secop.Timestamp(time.Now())}),
	}, nil
}

func (d *Dispatcher) handlePing(msg *secop.Message) (*secop.Message, error) {
	return &secop.Message{
		Action:    secop.ActionPong,
		Specifier: msg.Specifier,
		Data:      secop.DataReport(nil, secop.Qualifiers{"t": secop.Timestamp(time.Now())}),
	}, nil
}
