package demo

import (
	"math"
	"sync"
	"time"

	"github.com/SampleEnvironment/frappy/datatype"
	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/module"
)

// TempController simulates a cryostat temperature loop: the value ramps
// linearly towards the target at the configured rate, with a small
// first-order lag near the setpoint.
type TempController struct {
	mu     sync.Mutex
	value  float64
	target float64
	ramp   float64 // K/min
	last   time.Time
	moving bool

	now func() time.Time
}

// NewTempControllerDevice creates the bare simulated device.
func NewTempControllerDevice(start float64) *TempController {
	dev := &TempController{
		value:  start,
		target: start,
		ramp:   60,
		now:    time.Now,
	}
	dev.last = dev.now()
	return dev
}

// step advances the simulation to the current time. Callers hold mu.
func (d *TempController) step() {
	now := d.now()
	dt := now.Sub(d.last).Seconds()
	d.last = now
	if !d.moving || dt <= 0 {
		return
	}

	maxStep := d.ramp / 60 * dt
	diff := d.target - d.value
	if math.Abs(diff) <= maxStep {
		// close the last bit with an exponential approach
		d.value += diff * (1 - math.Exp(-dt*2))
		if math.Abs(d.target-d.value) < 1e-4 {
			d.value = d.target
			d.moving = false
		}
		return
	}
	if diff > 0 {
		d.value += maxStep
	} else {
		d.value -= maxStep
	}
}

func (d *TempController) ReadValue() (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step()
	return d.value, nil
}

func (d *TempController) ReadStatus() (int64, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step()
	if d.moving {
		return datatype.StatusBusy, "ramping", nil
	}
	return datatype.StatusIdle, "at target", nil
}

func (d *TempController) ReadTarget() (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target, nil
}

func (d *TempController) WriteTarget(value any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step()
	d.target = value.(float64)
	d.moving = d.target != d.value
	return d.target, nil
}

// Stop freezes the ramp at the current temperature.
func (d *TempController) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step()
	d.target = d.value
	d.moving = false
	return nil
}

func (d *TempController) readRamp() (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ramp, nil
}

func (d *TempController) writeRamp(value any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step()
	d.ramp = value.(float64)
	return d.ramp, nil
}

// NewTempController builds a drivable module around a simulated
// temperature loop starting at room temperature.
func NewTempController(name string, log logger.Logger) (*module.Module, error) {
	dev := NewTempControllerDevice(295)

	valueType := datatype.NewDouble(0, 600)
	valueType.Unit = "K"
	m, err := module.NewDrivable(name, dev, valueType, log)
	if err != nil {
		return nil, err
	}

	rampType := datatype.NewDouble(0.1, 600)
	rampType.Unit = "K/min"
	if err := m.Schema().AddParameter(&module.Parameter{
		Name:        "ramp",
		Datatype:    rampType,
		Description: "maximum temperature change rate",
	}); err != nil {
		return nil, err
	}
	if err := m.RegisterRead("ramp", dev.readRamp); err != nil {
		return nil, err
	}
	if err := m.RegisterWrite("ramp", dev.writeRamp); err != nil {
		return nil, err
	}
	return m, nil
}
