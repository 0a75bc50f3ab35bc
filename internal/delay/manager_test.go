package delay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestManager_DueInOrder(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewManager(clock.Now)

	m.ScheduleOnce(2, "check", 2*time.Second)
	m.ScheduleOnce(1, "check", time.Second)
	m.ScheduleOnce(3, "check", 10*time.Second)
	assert.Equal(t, 3, m.Pending())

	assert.Empty(t, m.Due(clock.now.Add(500*time.Millisecond)))

	due := m.Due(clock.now.Add(2 * time.Second))
	require.Len(t, due, 2)
	assert.Equal(t, uint64(1), due[0].Entity)
	assert.Equal(t, uint64(2), due[1].Entity)
	assert.False(t, m.HasPending(1, "check"), "выданное действие снимается")
	assert.True(t, m.HasPending(3, "check"))
}

func TestManager_ScheduleOnceReplaces(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := NewManager(clock.Now)

	m.ScheduleOnce(7, "check", time.Second)
	m.ScheduleOnce(7, "check", 5*time.Second)
	assert.Equal(t, 1, m.Pending())
	assert.Empty(t, m.Due(clock.now.Add(time.Second)))
	assert.Len(t, m.Due(clock.now.Add(5*time.Second)), 1)
}

func TestManager_Cancel(t *testing.T) {
	m := NewManager(nil)
	m.ScheduleOnce(1, "a", time.Hour)
	m.ScheduleOnce(1, "b", time.Hour)
	m.ScheduleOnce(2, "a", time.Hour)

	assert.True(t, m.Cancel(2, "a"))
	assert.False(t, m.Cancel(2, "a"))
	assert.Equal(t, 2, m.CancelEntity(1))
	assert.Zero(t, m.Pending())
}
