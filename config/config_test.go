package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
node:
  equipment_id: cryo_7
  description: cryostat test node
interface:
  bind: 127.0.0.1
  port: 10768
  ws_port: 8010
modules:
  - name: t1
    class: simulation.TempController
    description: sample temperature
    pollinterval: 0.5
    params:
      target: 4.2
  - name: sw
    class: simulation.Switch
    description: gas valve
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "cryo_7", cfg.Node.EquipmentID)
	assert.Equal(t, "127.0.0.1", cfg.Interface.Bind)
	assert.Equal(t, 10768, cfg.Interface.Port)
	assert.Equal(t, 8010, cfg.Interface.WSPort)
	assert.True(t, cfg.Interface.Discovery, "discovery defaults to enabled")
	assert.Equal(t, "info", cfg.Logging.Level)

	require.Len(t, cfg.Modules, 2)
	m := cfg.Modules[0]
	assert.Equal(t, "t1", m.Name)
	assert.Equal(t, "simulation.TempController", m.Class)
	assert.Equal(t, 500*time.Millisecond, m.PollDuration(5*time.Second))
	assert.Equal(t, 15*time.Second, m.SlowDuration(15*time.Second), "unset interval falls back to default")
	assert.Equal(t, 4.2, m.Params["target"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "node: [unclosed"))
	require.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		description string
		config      string
		wantErr     string
	}{
		{
			"missing equipment id",
			"modules:\n  - name: a\n    class: x\n",
			"equipment_id",
		},
		{
			"no modules",
			"node:\n  equipment_id: e\n",
			"at least one module",
		},
		{
			"invalid module name",
			"node:\n  equipment_id: e\nmodules:\n  - name: Bad-Name\n    class: x\n",
			"not a valid module name",
		},
		{
			"duplicate module name",
			"node:\n  equipment_id: e\nmodules:\n  - name: a\n    class: x\n  - name: a\n    class: y\n",
			"duplicated",
		},
		{
			"missing class",
			"node:\n  equipment_id: e\nmodules:\n  - name: a\n",
			"class is required",
		},
		{
			"bad port",
			"node:\n  equipment_id: e\ninterface:\n  port: 99999\nmodules:\n  - name: a\n    class: x\n",
			"interface.port",
		},
		{
			"bad websocket port",
			"node:\n  equipment_id: e\ninterface:\n  ws_port: -1\nmodules:\n  - name: a\n    class: x\n",
			"interface.ws_port",
		},
		{
			"bad log level",
			"node:\n  equipment_id: e\nlogging:\n  level: loud\nmodules:\n  - name: a\n    class: x\n",
			"logging.level",
		},
		{
			"negative poll interval",
			"node:\n  equipment_id: e\nmodules:\n  - name: a\n    class: x\n    pollinterval: -1\n",
			"must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
