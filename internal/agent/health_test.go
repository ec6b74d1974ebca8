package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth_ObserveTick(t *testing.T) {
	health := NewHealth()

	health.ObserveTick(1, 5, 0)
	health.ObserveTick(2, 3, 2)

	snapshot := health.Snapshot()
	assert.Equal(t, uint64(2), snapshot["ticks"])
	assert.Equal(t, uint64(8), snapshot["samples"])
	assert.Equal(t, uint64(2), snapshot["collect_failures"])
	assert.Equal(t, uint64(2), snapshot["last_tick"])
	assert.Contains(t, snapshot, "last_tick_at")
}

func TestHealth_SnapshotBeforeFirstTick(t *testing.T) {
	health := NewHealth()

	snapshot := health.Snapshot()
	assert.Equal(t, uint64(0), snapshot["ticks"])
	assert.NotContains(t, snapshot, "last_tick_at")
}
