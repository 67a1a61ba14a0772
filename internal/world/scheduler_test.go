package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerFIFOAndBudget(t *testing.T) {
	now := time.Unix(0, 0)
	s := NewScheduler(0, func() time.Time { return now })

	for i := 0; i < 5; i++ {
		assert.True(t, s.Enqueue(ChunkCoord{X: i}))
	}

	var order []int
	// часы стоят: бюджет не истекает, выполняется всё
	n := s.Drain(time.Second, func(c ChunkCoord) { order = append(order, c.X) })
	assert.Equal(t, 5, n)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Zero(t, s.Len())
}

func TestSchedulerRunsAtLeastOneTask(t *testing.T) {
	now := time.Unix(0, 0)
	s := NewScheduler(0, func() time.Time {
		now = now.Add(time.Hour)
		return now
	})
	s.Enqueue(ChunkCoord{X: 1})
	s.Enqueue(ChunkCoord{X: 2})

	assert.Equal(t, 1, s.Drain(time.Millisecond, func(ChunkCoord) {}))
	assert.Equal(t, 1, s.Len())
}

func TestSchedulerMaxQueuedAndReset(t *testing.T) {
	s := NewScheduler(2, nil)
	assert.True(t, s.Enqueue(ChunkCoord{X: 1}))
	assert.True(t, s.Enqueue(ChunkCoord{X: 2}))
	assert.False(t, s.Enqueue(ChunkCoord{X: 3}))

	s.Reset()
	assert.Zero(t, s.Len())
	assert.Zero(t, s.Drain(0, func(ChunkCoord) { t.Fatal("очередь пуста") }))
}
