package module

import (
	"github.com/SampleEnvironment/frappy/datatype"
	"github.com/SampleEnvironment/frappy/secop"
)

// Parameter describes one named, typed, possibly-writable attribute of a
// module. Parameters are immutable once the schema is finalized.
type Parameter struct {
	Name        string
	Datatype    datatype.DataType
	Readonly    bool
	Description string
	Group       string
	Visibility  string
}

// Describe returns the accessible description for the describing message.
func (p *Parameter) Describe() map[string]any {
	info := map[string]any{
		"description": p.Description,
		"readonly":    p.Readonly,
		"datainfo":    p.Datatype.Describe(),
	}
	if p.Group != "" {
		info["group"] = p.Group
	}
	if p.Visibility != "" {
		info["visibility"] = p.Visibility
	}
	return info
}

// Command describes one named invocable action of a module with typed
// argument and result.
type Command struct {
	Name        string
	Description string
	Argument    datatype.DataType // nil when the command takes no argument
	Result      datatype.DataType // nil when the command returns nothing
	Group       string
	Visibility  string
}

// Describe returns the accessible description for the describing message.
func (c *Command) Describe() map[string]any {
	datainfo := map[string]any{"type": "command"}
	if c.Argument != nil {
		datainfo["argument"] = c.Argument.Describe()
	}
	if c.Result != nil {
		datainfo["result"] = c.Result.Describe()
	}
	info := map[string]any{
		"description": c.Description,
		"datainfo":    datainfo,
	}
	if c.Group != "" {
		info["group"] = c.Group
	}
	return info
}

// Schema is the ordered accessible set of one module. Order matters for the
// describing message and for activation dumps.
type Schema struct {
	order    []string
	params   map[string]*Parameter
	commands map[string]*Command
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{
		params:   make(map[string]*Parameter),
		commands: make(map[string]*Command),
	}
}

func (s *Schema) checkName(name string) error {
	if !secop.ValidName(name) {
		return secop.Errorf(secop.ClassInternalError, "invalid accessible name %q", name)
	}
	if _, ok := s.params[name]; ok {
		return secop.Errorf(secop.ClassInternalError, "accessible %q already defined", name)
	}
	if _, ok := s.commands[name]; ok {
		return secop.Errorf(secop.ClassInternalError, "accessible %q already defined", name)
	}
	return nil
}

// AddParameter adds a parameter to the schema.
func (s *Schema) AddParameter(p *Parameter) error {
	if err := s.checkName(p.Name); err != nil {
		return err
	}
	if p.Datatype == nil {
		return secop.Errorf(secop.ClassInternalError, "parameter %q has no datatype", p.Name)
	}
	s.params[p.Name] = p
	s.order = append(s.order, p.Name)
	return nil
}

// AddCommand adds a command to the schema.
func (s *Schema) AddCommand(c *Command) error {
	if err := s.checkName(c.Name); err != nil {
		return err
	}
	s.commands[c.Name] = c
	s.order = append(s.order, c.Name)
	return nil
}

// Parameter returns the named parameter, or nil.
func (s *Schema) Parameter(name string) *Parameter {
	return s.params[name]
}

// Command returns the named command, or nil.
func (s *Schema) Command(name string) *Command {
	return s.commands[name]
}

// Names returns the accessible names in definition order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// ParameterNames returns the parameter names in definition order.
func (s *Schema) ParameterNames() []string {
	names := make([]string, 0, len(s.params))
	for _, name := range s.order {
		if _, ok := s.params[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Describe returns the ordered accessibles description.
func (s *Schema) Describe() map[string]any {
	accessibles := make(map[string]any, len(s.order))
	for _, name := range s.order {
		if p, ok := s.params[name]; ok {
			accessibles[name] = p.Describe()
		} else if c, ok := s.commands[name]; ok {
			accessibles[name] = c.Describe()
		}
	}
	return accessibles
}
