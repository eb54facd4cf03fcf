package demo

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SampleEnvironment/frappy/datatype"
	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/module"
)

// SimulatedInstrument answers a minimal SCPI-flavored command set, standing
// in for a real instrument behind a serial or ethernet bridge.
type SimulatedInstrument struct {
	mu    sync.Mutex
	base  float64
	noise float64
	rng   *rand.Rand
}

// NewSimulatedInstrument creates an instrument reporting values around base
// with the given noise amplitude.
func NewSimulatedInstrument(base, noise float64) *SimulatedInstrument {
	return &SimulatedInstrument{
		base:  base,
		noise: noise,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Communicate implements module.Communicator.
func (s *SimulatedInstrument) Communicate(command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch command {
	case "*IDN?":
		return "FRAPPY,SimulatedInstrument,0,1.0", nil
	case "READ?":
		// slow drift plus white noise
		drift := math.Sin(float64(time.Now().Unix()) / 300)
		return strconv.FormatFloat(s.base+drift+s.rng.NormFloat64()*s.noise, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unknown command %q", command)
	}
}

// Sensor reads a single value from an instrument through a Communicator.
type Sensor struct {
	comm module.Communicator
}

// NewSensorDevice creates the device half of a sensor module.
func NewSensorDevice(comm module.Communicator) *Sensor {
	return &Sensor{comm: comm}
}

func (d *Sensor) ReadValue() (any, error) {
	reply, err := d.comm.Communicate("READ?")
	if err != nil {
		return nil, module.CommFailed(err)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return nil, module.CommFailed(fmt.Errorf("unparseable reply %q", reply))
	}
	return value, nil
}

func (d *Sensor) ReadStatus() (int64, string, error) {
	if _, err := d.comm.Communicate("*IDN?"); err != nil {
		return datatype.StatusError, "no response", nil
	}
	return datatype.StatusIdle, "", nil
}

// NewSensor builds a readable module polling an instrument over the given
// communicator. A nil communicator gets a simulated instrument.
func NewSensor(name string, comm module.Communicator, log logger.Logger) (*module.Module, error) {
	if comm == nil {
		comm = NewSimulatedInstrument(1.2, 0.01)
	}
	valueType := datatype.NewUnboundedDouble()
	valueType.Unit = "bar"
	return module.NewReadable(name, NewSensorDevice(comm), valueType, log)
}
