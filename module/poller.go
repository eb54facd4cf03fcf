package module

import (
	"context"
	"time"
)

// StartPolling moves the module into the polling state and runs the poll
// loop until the context is canceled. Each tick refreshes value and status;
// parameters not refreshed within the slow interval are polled at the lower
// rate. Polling runs independently of any client connection.
//
// The caller is expected to run StartPolling in its own goroutine, one per
// module.
func (m *Module) StartPolling(ctx context.Context) error {
	if err := m.advance(StartedState, PollingState); err != nil {
		return err
	}

	ticker := time.NewTicker(m.PollInterval)
	defer ticker.Stop()

	lastSlow := m.now()
	for {
		select {
		case <-ctx.Done():
			m.log.Debug("poller stopped")
			return nil
		case <-ticker.C:
			m.pollTick(&lastSlow)
		}
	}
}

// pollTick performs one poll cycle: the primary value and status every
// tick, the remaining polled parameters every slow interval.
func (m *Module) pollTick(lastSlow *time.Time) {
	m.pollParam("value")
	m.pollParam("status")

	if m.now().Sub(*lastSlow) < m.SlowInterval {
		return
	}
	*lastSlow = m.now()

	for _, name := range m.schema.ParameterNames() {
		if name == "value" || name == "status" {
			continue
		}
		m.pollParam(name)
	}
}

