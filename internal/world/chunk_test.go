package world

import (
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunk(t *testing.T, p Params) (*Chunk, *MemoryRenderer, *OverrideStore) {
	t.Helper()
	r := NewMemoryRenderer()
	o := NewOverrideStore()
	c := NewChunk(ChunkCoord{}, p.ChunkSize, nil, r, o)
	c.Generate(NewGenerator(p))
	return c, r, o
}

func TestChunkIndexRoundTrip(t *testing.T) {
	c := NewChunk(ChunkCoord{X: 2, Z: -1}, Size{Width: 4, Height: 6}, nil, nil, nil)
	seen := make(map[int]bool)
	for x := 0; x < 4; x++ {
		for y := 0; y < 6; y++ {
			for z := 0; z < 4; z++ {
				idx := c.index(x, y, z)
				assert.False(t, seen[idx], "индекс должен быть уникальным")
				seen[idx] = true
				assert.Equal(t, vec.Vec3{X: x, Y: y, Z: z}, c.local(idx))
			}
		}
	}
	assert.Len(t, seen, 4*6*4)
	assert.Equal(t, vec.Vec3{X: 8, Y: 0, Z: -4}, c.worldPos(c.index(0, 0, 0)))
}

func TestChunkGetBlockOutOfBounds(t *testing.T) {
	c := NewChunk(ChunkCoord{}, Size{Width: 4, Height: 4}, nil, nil, nil)
	for _, p := range []vec.Vec3{{X: -1}, {X: 4}, {Y: -1}, {Y: 4}, {Z: -1}, {Z: 4}} {
		_, ok := c.GetBlock(p.X, p.Y, p.Z)
		assert.False(t, ok, "клетка %v вне чанка", p)
	}
	assert.False(t, c.AddBlock(4, 0, 0, block.Stone))
	assert.False(t, c.RemoveBlock(0, -1, 0))
}

func TestChunkGenerateColumns(t *testing.T) {
	p := testParams(7)
	p.Resources = nil
	c, _, _ := newTestChunk(t, p)
	gen := NewGenerator(p)

	require.True(t, c.Generated())
	for x := 0; x < p.ChunkSize.Width; x++ {
		for z := 0; z < p.ChunkSize.Width; z++ {
			h := gen.ColumnHeight(x, z)
			for y := 0; y < p.ChunkSize.Height; y++ {
				b, _ := c.GetBlock(x, y, z)
				switch {
				case y < h:
					assert.Equal(t, block.Dirt, b.ID)
				case y == h:
					assert.Equal(t, block.Grass, b.ID)
				default:
					assert.Equal(t, block.Empty, b.ID)
				}
			}
		}
	}
}

func TestChunkAddRemoveBlock(t *testing.T) {
	p := testParams(1)
	c, r, o := newTestChunk(t, p)
	top := p.ChunkSize.Height - 1

	// верхний слой всегда пуст при magnitude+offset < 1
	require.True(t, c.AddBlock(3, top, 3, block.Stone))
	b, _ := c.GetBlock(3, top, 3)
	assert.Equal(t, block.Stone, b.ID)
	assert.True(t, b.HasInstance(), "открытый блок получает слот")
	id, ok := o.Get(ChunkCoord{}, vec.Vec3{X: 3, Y: top, Z: 3})
	assert.True(t, ok)
	assert.Equal(t, block.Stone, id)

	// тот же ID - ничего не делает
	assert.False(t, c.AddBlock(3, top, 3, block.Stone))
	// пустой и неизвестный ID отклоняются
	assert.False(t, c.AddBlock(4, top, 4, block.Empty))
	assert.False(t, c.AddBlock(4, top, 4, block.BlockID(999)))

	// замена типа переносит слот в другую пачку
	require.True(t, c.AddBlock(3, top, 3, block.IronOre))
	assert.Empty(t, r.Batch(BatchKey{Block: block.Stone}))
	assert.Len(t, r.Batch(BatchKey{Block: block.IronOre}), 1)

	require.True(t, c.RemoveBlock(3, top, 3))
	b, _ = c.GetBlock(3, top, 3)
	assert.Equal(t, block.Empty, b.ID)
	assert.False(t, b.HasInstance())
	id, _ = o.Get(ChunkCoord{}, vec.Vec3{X: 3, Y: top, Z: 3})
	assert.Equal(t, block.Empty, id, "удаление записывается как правка Empty")

	assert.False(t, c.RemoveBlock(3, top, 3), "удаление пустой клетки ничего не делает")
	assert.Zero(t, r.Errors())
}

func TestChunkSwapWithLastOnDelete(t *testing.T) {
	p := testParams(3)
	p.Resources = nil
	c := NewChunk(ChunkCoord{}, Size{Width: 4, Height: 4}, nil, NewMemoryRenderer(), nil)
	c.Generate(NewGenerator(Params{
		Seed:      p.Seed,
		Terrain:   TerrainParams{Scale: 30, Magnitude: 0, Offset: -1},
		ChunkSize: Size{Width: 4, Height: 4},
	}))
	r := c.renderer.(*MemoryRenderer)

	// offset -1 даёт высоту 0: один слой травы по дну
	require.Equal(t, 16, c.InstanceCount())
	key := BatchKey{Block: block.Grass}

	first, _ := c.GetBlock(0, 0, 0)
	last := r.Batch(key)[15]
	require.Equal(t, 0, first.Slot)

	c.DeleteBlockInstance(0, 0, 0)
	moved, _ := c.GetBlock(last.X, last.Y, last.Z)
	assert.Equal(t, 0, moved.Slot, "последний инстанс переезжает в освободившийся слот")
	assert.Equal(t, last, r.Batch(key)[0])
	assert.Len(t, r.Batch(key), 15)

	b, _ := c.GetBlock(0, 0, 0)
	assert.Equal(t, block.Grass, b.ID, "ID не меняется")
	assert.False(t, b.HasInstance())

	c.AddBlockInstance(0, 0, 0)
	b, _ = c.GetBlock(0, 0, 0)
	assert.Equal(t, 15, b.Slot)
	assert.Zero(t, r.Errors())

	c.DisposeInstances()
	assert.Zero(t, c.InstanceCount())
	assert.Zero(t, r.Count())
}

func TestChunkObscuredAndRefresh(t *testing.T) {
	c := NewChunk(ChunkCoord{}, Size{Width: 3, Height: 3}, nil, NewMemoryRenderer(), nil)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				c.AddBlock(x, y, z, block.Stone)
			}
		}
	}
	// центр закрыт со всех сторон, но слот ему выдан при установке,
	// когда соседей ещё не было
	assert.True(t, c.IsBlockObscured(1, 1, 1))
	c.RefreshBlock(1, 1, 1)
	b, _ := c.GetBlock(1, 1, 1)
	assert.False(t, b.HasInstance(), "закрытый блок теряет слот")

	// граница без мира считается открытой
	assert.False(t, c.IsBlockObscured(0, 1, 1))

	c.RemoveBlock(1, 2, 1)
	assert.False(t, c.IsBlockObscured(1, 1, 1))
	c.RefreshBlock(1, 1, 1)
	b, _ = c.GetBlock(1, 1, 1)
	assert.True(t, b.HasInstance(), "открывшийся блок получает слот")
}

func TestChunkOverridesSurviveRegeneration(t *testing.T) {
	p := testParams(11)
	c, _, o := newTestChunk(t, p)

	require.True(t, c.AddBlock(2, p.ChunkSize.Height-1, 2, block.CoalOre))
	require.True(t, c.RemoveBlock(2, 0, 2))

	c.Generate(NewGenerator(p))
	b, _ := c.GetBlock(2, p.ChunkSize.Height-1, 2)
	assert.Equal(t, block.CoalOre, b.ID)
	b, _ = c.GetBlock(2, 0, 2)
	assert.Equal(t, block.Empty, b.ID, "удалённый блок остаётся удалённым")
	assert.Equal(t, 2, o.Len())
}
