package module

import (
	"github.com/SampleEnvironment/frappy/datatype"
	"github.com/SampleEnvironment/frappy/logger"
)

// Readable is the capability of a device exposing a measured value and a
// status. ReadStatus returns a standard status code and a free text.
type Readable interface {
	ReadValue() (any, error)
	ReadStatus() (code int64, text string, err error)
}

// Writable is a Readable device with a settable target.
type Writable interface {
	Readable
	ReadTarget() (any, error)
	WriteTarget(value any) (any, error)
}

// Drivable is a Writable device whose movement can be stopped.
type Drivable interface {
	Writable
	Stop() error
}

// NewReadable builds a module exposing the conventional value and status
// parameters of a Readable device.
func NewReadable(name string, dev Readable, valueType datatype.DataType, log logger.Logger) (*Module, error) {
	schema := NewSchema()
	if err := schema.AddParameter(&Parameter{
		Name:        "value",
		Datatype:    valueType,
		Readonly:    true,
		Description: "current value",
	}); err != nil {
		return nil, err
	}
	if err := schema.AddParameter(&Parameter{
		Name:        "status",
		Datatype:    datatype.NewStatusType(),
		Readonly:    true,
		Description: "current status",
	}); err != nil {
		return nil, err
	}

	m, err := New(name, schema, log)
	if err != nil {
		return nil, err
	}
	if err := m.RegisterRead("value", dev.ReadValue); err != nil {
		return nil, err
	}
	err = m.RegisterRead("status", func() (any, error) {
		code, text, err := dev.ReadStatus()
		if err != nil {
			return nil, err
		}
		return []any{code, text}, nil
	})
	if err != nil {
		return nil, err
	}

	m.SetProperty("interface_classes", []any{"Readable"})
	return m, nil
}

// NewWritable builds a Readable module extended with a writable target
// parameter.
func NewWritable(name string, dev Writable, valueType datatype.DataType, log logger.Logger) (*Module, error) {
	m, err := NewReadable(name, dev, valueType, log)
	if err != nil {
		return nil, err
	}
	if err := m.Schema().AddParameter(&Parameter{
		Name:        "target",
		Datatype:    valueType,
		Description: "target value",
	}); err != nil {
		return nil, err
	}
	if err := m.RegisterRead("target", dev.ReadTarget); err != nil {
		return nil, err
	}
	if err := m.RegisterWrite("target", dev.WriteTarget); err != nil {
		return nil, err
	}

	m.SetProperty("interface_classes", []any{"Writable", "Readable"})
	return m, nil
}

// NewDrivable builds a Writable module extended with the stop command.
func NewDrivable(name string, dev Drivable, valueType datatype.DataType, log logger.Logger) (*Module, error) {
	m, err := NewWritable(name, dev, valueType, log)
	if err != nil {
		return nil, err
	}
	if err := m.Schema().AddCommand(&Command{
		Name:        "stop",
		Description: "cease driving to target",
	}); err != nil {
		return nil, err
	}
	err = m.RegisterCommand("stop", func(any) (any, error) {
		return nil, dev.Stop()
	})
	if err != nil {
		return nil, err
	}

	m.SetProperty("interface_classes", []any{"Drivable", "Writable", "Readable"})
	return m, nil
}
