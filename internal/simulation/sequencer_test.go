package simulation_test

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/clearskies/clearskies/internal/simulation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestSequencer(interval time.Duration) *simulation.Sequencer {
	return simulation.NewSequencer(simulation.SequencerConfig{
		Logger:   zerolog.New(io.Discard),
		Interval: interval,
	})
}

func TestSequencer_PlaysFullScriptInOrder(t *testing.T) {
	seq := newTestSequencer(5 * time.Millisecond)
	defer seq.Stop()

	seq.Start()
	assert.True(t, seq.Running())

	require.Eventually(t, func() bool {
		return len(seq.Alerts()) == 6
	}, 2*time.Second, 5*time.Millisecond)

	alerts := seq.Alerts()
	wantTiers := []simulation.Tier{
		simulation.TierAdvisory,
		simulation.TierWatch,
		simulation.TierWarning,
		simulation.TierWarning,
		simulation.TierEmergency,
		simulation.TierEmergency,
	}
	for i, alert := range alerts {
		assert.Equal(t, wantTiers[i], alert.Tier, "alert %d", i)
		assert.NotEmpty(t, alert.ID)
		assert.NotEmpty(t, alert.Message)
	}

	// The script ends but the run stays active until stopped.
	assert.True(t, seq.Running())
}

func TestSequencer_StartWhileRunningIsNoop(t *testing.T) {
	seq := newTestSequencer(5 * time.Millisecond)
	defer seq.Stop()

	seq.Start()
	require.Eventually(t, func() bool {
		return len(seq.Alerts()) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	before := seq.Alerts()
	seq.Start()
	assert.Len(t, seq.Alerts(), len(before), "second Start must not reset the run")

	require.Eventually(t, func() bool {
		return len(seq.Alerts()) == 6
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSequencer_StopMidRunClearsAlertsAndCancelsTimers(t *testing.T) {
	seq := newTestSequencer(20 * time.Millisecond)

	seq.Start()
	require.Eventually(t, func() bool {
		return len(seq.Alerts()) >= 2
	}, 2*time.Second, time.Millisecond)

	seq.Stop()
	assert.False(t, seq.Running())
	assert.Empty(t, seq.Alerts())

	// Pending timers were cancelled; nothing may trickle in afterwards.
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, seq.Alerts())
}

func TestSequencer_StopWhenStoppedIsNoop(t *testing.T) {
	seq := newTestSequencer(time.Millisecond)
	seq.Stop()
	assert.False(t, seq.Running())
}

func TestSequencer_RestartReplaysWithFreshIDs(t *testing.T) {
	seq := newTestSequencer(time.Millisecond)
	defer seq.Stop()

	seq.Start()
	require.Eventually(t, func() bool {
		return len(seq.Alerts()) == 6
	}, 2*time.Second, time.Millisecond)
	firstIDs := make(map[string]struct{})
	for _, alert := range seq.Alerts() {
		firstIDs[alert.ID] = struct{}{}
	}

	seq.Stop()
	seq.Start()
	require.Eventually(t, func() bool {
		return len(seq.Alerts()) == 6
	}, 2*time.Second, time.Millisecond)

	for _, alert := range seq.Alerts() {
		_, seen := firstIDs[alert.ID]
		assert.False(t, seen, "restart must mint fresh alert ids")
	}
}
