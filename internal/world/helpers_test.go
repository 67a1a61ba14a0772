package world

import (
	"testing"

	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/stretchr/testify/require"
)

// testParams - маленький мир для быстрых тестов
func testParams(seed int64) Params {
	p := DefaultParams()
	p.Seed = seed
	p.ChunkSize = Size{Width: 8, Height: 16}
	p.DrawDistance = 1
	return p
}

func newTestWorld(t *testing.T, p Params, opts ...Option) (*World, *MemoryRenderer) {
	t.Helper()
	r := NewMemoryRenderer()
	w, err := NewWorld(p, append([]Option{WithRenderer(r)}, opts...)...)
	require.NoError(t, err)
	return w, r
}

// requireSlotInvariant проверяет полным перебором:
// слот есть ровно у непустых и незакрытых блоков, зеркало отрисовки совпадает с движком.
func requireSlotInvariant(t *testing.T, w *World, r *MemoryRenderer) {
	t.Helper()
	size := w.params.ChunkSize
	total := 0
	for _, coord := range w.LoadedChunks() {
		chunk, _ := w.GetChunk(coord)
		for x := 0; x < size.Width; x++ {
			for y := 0; y < size.Height; y++ {
				for z := 0; z < size.Width; z++ {
					b, ok := chunk.GetBlock(x, y, z)
					require.True(t, ok)
					wx, wz := coord.X*size.Width+x, coord.Z*size.Width+z
					want := b.ID != block.Empty && !w.IsBlockObscured(wx, y, wz)
					require.Equalf(t, want, b.HasInstance(),
						"клетка (%d,%d,%d) id=%s slot=%d", wx, y, wz, b.ID, b.Slot)
					if b.HasInstance() {
						total++
						batch := r.Batch(BatchKey{Chunk: coord, Block: b.ID})
						require.Less(t, b.Slot, len(batch))
						require.Equal(t, wx, batch[b.Slot].X)
						require.Equal(t, y, batch[b.Slot].Y)
						require.Equal(t, wz, batch[b.Slot].Z)
					}
				}
			}
		}
	}
	require.Equal(t, total, r.Count(), "зеркало отрисовки расходится с движком")
	require.Equal(t, total, w.Stats().Instances)
	require.Zero(t, r.Errors(), "нарушен контракт слотов")
}
