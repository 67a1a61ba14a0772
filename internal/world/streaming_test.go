package world

import (
	"math"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleChunks(t *testing.T) {
	assert.Equal(t, []ChunkCoord{{X: 2, Z: 3}}, VisibleChunks(ChunkCoord{X: 2, Z: 3}, 0))
	assert.Len(t, VisibleChunks(ChunkCoord{}, 2), 25)
	assert.Nil(t, VisibleChunks(ChunkCoord{}, -1))
}

func TestChunksToAddAndRemove(t *testing.T) {
	target := VisibleChunks(ChunkCoord{X: 1}, 1)
	loaded := NewChunkSet(VisibleChunks(ChunkCoord{}, 1)...)

	add := ChunksToAdd(target, loaded)
	remove := ChunksToRemove(target, loaded)
	assert.Equal(t, []ChunkCoord{{X: 2, Z: -1}, {X: 2, Z: 0}, {X: 2, Z: 1}}, add)
	assert.Equal(t, []ChunkCoord{{X: -1, Z: -1}, {X: -1, Z: 0}, {X: -1, Z: 1}}, remove)

	// совпадающие множества - пустой дифф
	assert.Empty(t, ChunksToAdd(target, NewChunkSet(target...)))
	assert.Empty(t, ChunksToRemove(target, NewChunkSet(target...)))
}

func TestUpdateStreamsAroundObserver(t *testing.T) {
	w, r := newTestWorld(t, testParams(12))
	size := w.params.ChunkSize

	diff := w.Update(vec.Vec3Float{X: 0.5, Y: 3, Z: 0.5})
	assert.Len(t, diff.Added, 9)
	assert.Empty(t, diff.Removed)
	requireSlotInvariant(t, w, r)

	// неподвижный наблюдатель - ничего не меняется
	before := r.Count()
	for i := 0; i < 3; i++ {
		diff = w.Update(vec.Vec3Float{X: 1.5, Y: 3, Z: 2.5})
		assert.True(t, diff.Empty())
	}
	assert.Equal(t, before, r.Count())

	// шаг на один чанк по X
	diff = w.Update(vec.Vec3Float{X: float64(size.Width) + 0.1, Y: 3, Z: 0.5})
	assert.Equal(t, []ChunkCoord{{X: 2, Z: -1}, {X: 2, Z: 0}, {X: 2, Z: 1}}, diff.Added)
	assert.Equal(t, []ChunkCoord{{X: -1, Z: -1}, {X: -1, Z: 0}, {X: -1, Z: 1}}, diff.Removed)
	assert.Equal(t, VisibleChunks(ChunkCoord{X: 1}, 1), w.LoadedChunks())
	requireSlotInvariant(t, w, r)

	// отрицательные координаты
	w.Update(vec.Vec3Float{X: -0.5, Y: 0, Z: -0.5})
	assert.Equal(t, VisibleChunks(ChunkCoord{X: -1, Z: -1}, 1), w.LoadedChunks())
	requireSlotInvariant(t, w, r)
}

func TestUpdateIgnoresNonFiniteObserver(t *testing.T) {
	w, _ := newTestWorld(t, testParams(12))
	diff := w.Update(vec.Vec3Float{X: math.NaN()})
	assert.True(t, diff.Empty())
	assert.Empty(t, w.LoadedChunks())
}

func TestUpdateKeepsEditsAcrossUnload(t *testing.T) {
	w, _ := newTestWorld(t, testParams(12))
	w.Update(vec.Vec3Float{})
	top := w.params.ChunkSize.Height - 1
	require.NoError(t, w.AddBlock(-4, top, -4, 3))

	w.Update(vec.Vec3Float{X: 1000})
	_, ok := w.GetBlock(-4, top, -4)
	assert.False(t, ok)

	w.Update(vec.Vec3Float{})
	b, ok := w.GetBlock(-4, top, -4)
	require.True(t, ok)
	assert.EqualValues(t, 3, b.ID)
}

func TestAsyncGenerationHidesPendingChunks(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
	w, r := newTestWorld(t, testParams(8),
		WithAsyncGeneration(2*time.Millisecond, 0),
		WithClock(clock),
	)

	diff := w.Update(vec.Vec3Float{})
	assert.Len(t, diff.Added, 9)
	assert.Empty(t, w.LoadedChunks())
	assert.Len(t, w.PendingChunks(), 9)

	_, ok := w.GetBlock(0, 0, 0)
	assert.False(t, ok, "чанк в очереди недоступен")
	_, ok = w.GetChunk(ChunkCoord{})
	assert.False(t, ok)

	// повторный Update не ставит чанки в очередь второй раз
	assert.True(t, w.Update(vec.Vec3Float{}).Empty())

	// каждый вызов часов сдвигает время на 1мс: бюджет 2мс - два чанка за тик
	generated := w.Tick()
	assert.Equal(t, 2, generated)
	assert.Len(t, w.LoadedChunks(), 2)

	for w.Stats().Pending > 0 {
		require.Positive(t, w.Tick())
	}
	assert.Len(t, w.LoadedChunks(), 9)
	requireSlotInvariant(t, w, r)
	assert.Zero(t, w.Tick())
}

func TestAsyncGenerationStaleWorkIsRemovedOnNextUpdate(t *testing.T) {
	w, r := newTestWorld(t, testParams(8), WithAsyncGeneration(0, 0))
	w.Update(vec.Vec3Float{})

	// наблюдатель ушёл до генерации: устаревшие задачи всё равно выполняются
	w.Update(vec.Vec3Float{X: 10000})
	w.Tick()
	assert.Len(t, w.LoadedChunks(), 18)

	diff := w.Update(vec.Vec3Float{X: 10000})
	assert.Len(t, diff.Removed, 9)
	assert.Len(t, w.LoadedChunks(), 9)
	requireSlotInvariant(t, w, r)
}

func TestAsyncGenerationBackpressure(t *testing.T) {
	w, _ := newTestWorld(t, testParams(8), WithAsyncGeneration(0, 4))

	diff := w.Update(vec.Vec3Float{})
	assert.Len(t, diff.Added, 4)
	assert.Len(t, w.PendingChunks(), 4)

	w.Tick()
	diff = w.Update(vec.Vec3Float{})
	assert.Len(t, diff.Added, 4, "отклонённые координаты предлагаются снова")

	w.Tick()
	w.Update(vec.Vec3Float{})
	w.Tick()
	assert.Len(t, w.LoadedChunks(), 9)
}
