package world

import (
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/stretchr/testify/assert"
)

func TestOverrideStoreLastWriteWins(t *testing.T) {
	s := NewOverrideStore()
	c := ChunkCoord{X: -1, Z: 2}
	p := vec.Vec3{X: 1, Y: 2, Z: 3}

	s.Set(c, p, block.Stone)
	s.Set(c, p, block.Empty)
	id, ok := s.Get(c, p)
	assert.True(t, ok)
	assert.Equal(t, block.Empty, id)
	assert.Equal(t, 1, s.Len())

	_, ok = s.Get(ChunkCoord{}, p)
	assert.False(t, ok)
}

func TestOverrideStoreEntriesSorted(t *testing.T) {
	s := NewOverrideStore()
	s.Set(ChunkCoord{X: 1}, vec.Vec3{X: 0}, block.Dirt)
	s.Set(ChunkCoord{X: -1}, vec.Vec3{Y: 2}, block.Stone)
	s.Set(ChunkCoord{X: -1}, vec.Vec3{Y: 1}, block.Grass)

	entries := s.Entries()
	assert.Equal(t, []OverrideEntry{
		{Chunk: ChunkCoord{X: -1}, Pos: vec.Vec3{Y: 1}, Block: block.Grass},
		{Chunk: ChunkCoord{X: -1}, Pos: vec.Vec3{Y: 2}, Block: block.Stone},
		{Chunk: ChunkCoord{X: 1}, Pos: vec.Vec3{X: 0}, Block: block.Dirt},
	}, entries)

	var inChunk int
	s.ForChunk(ChunkCoord{X: -1}, func(vec.Vec3, block.BlockID) { inChunk++ })
	assert.Equal(t, 2, inChunk)
}

func TestOverrideStoreReplaceAndClear(t *testing.T) {
	s := NewOverrideStore()
	s.Set(ChunkCoord{}, vec.Vec3{}, block.Dirt)

	s.Replace([]OverrideEntry{
		{Chunk: ChunkCoord{Z: 1}, Pos: vec.Vec3{X: 1}, Block: block.CoalOre},
		{Chunk: ChunkCoord{Z: 1}, Pos: vec.Vec3{X: 1}, Block: block.IronOre},
	})
	assert.Equal(t, 1, s.Len())
	id, _ := s.Get(ChunkCoord{Z: 1}, vec.Vec3{X: 1})
	assert.Equal(t, block.IronOre, id)
	_, ok := s.Get(ChunkCoord{}, vec.Vec3{})
	assert.False(t, ok)

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Entries())
}

func TestOverrideStoreRekey(t *testing.T) {
	s := NewOverrideStore()
	// мировая (-3, 2, 5) и (9, 12, -1) при ширине 8
	s.Set(ChunkCoord{X: -1, Z: 0}, vec.Vec3{X: 5, Y: 2, Z: 5}, block.Stone)
	s.Set(ChunkCoord{X: 1, Z: -1}, vec.Vec3{X: 1, Y: 12, Z: 7}, block.CoalOre)

	dropped := s.Rekey(8, Size{Width: 4, Height: 16})
	assert.Zero(t, dropped)
	assert.Equal(t, []OverrideEntry{
		{Chunk: ChunkCoord{X: -1, Z: 1}, Pos: vec.Vec3{X: 1, Y: 2, Z: 1}, Block: block.Stone},
		{Chunk: ChunkCoord{X: 2, Z: -1}, Pos: vec.Vec3{X: 1, Y: 12, Z: 3}, Block: block.CoalOre},
	}, s.Entries())

	dropped = s.Rekey(4, Size{Width: 16, Height: 8})
	assert.Equal(t, 1, dropped, "правка на y=12 не помещается в высоту 8")
	assert.Equal(t, []OverrideEntry{
		{Chunk: ChunkCoord{X: -1, Z: 0}, Pos: vec.Vec3{X: 13, Y: 2, Z: 5}, Block: block.Stone},
	}, s.Entries())
}
