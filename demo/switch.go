package demo

import (
	"sync"
	"time"

	"github.com/SampleEnvironment/frappy/datatype"
	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/module"
)

const (
	switchOff int64 = 0
	switchOn  int64 = 1
)

// Switch simulates a gas valve that takes a moment to actuate: after a
// target change the read value follows only once the settling time has
// passed.
type Switch struct {
	mu       sync.Mutex
	value    int64
	target   int64
	switched time.Time
	settle   time.Duration

	now func() time.Time
}

// NewSwitchDevice creates the bare simulated valve, initially off.
func NewSwitchDevice(settle time.Duration) *Switch {
	return &Switch{settle: settle, now: time.Now}
}

// step applies a pending actuation once the settling time has elapsed.
// Callers hold mu.
func (d *Switch) step() {
	if d.value != d.target && d.now().Sub(d.switched) >= d.settle {
		d.value = d.target
	}
}

func (d *Switch) ReadValue() (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step()
	return d.value, nil
}

func (d *Switch) ReadStatus() (int64, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step()
	if d.value != d.target {
		return datatype.StatusBusy, "switching", nil
	}
	return datatype.StatusIdle, "", nil
}

func (d *Switch) ReadTarget() (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target, nil
}

func (d *Switch) WriteTarget(value any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step()
	target := value.(int64)
	if target != d.target {
		d.target = target
		d.switched = d.now()
	}
	return d.target, nil
}

// NewSwitch builds a writable on/off module around a simulated valve.
func NewSwitch(name string, log logger.Logger) (*module.Module, error) {
	dev := NewSwitchDevice(500 * time.Millisecond)
	valueType := datatype.MustEnum(map[string]int64{"off": switchOff, "on": switchOn})
	return module.NewWritable(name, dev, valueType, log)
}
