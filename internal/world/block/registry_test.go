package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBlocksRegistered(t *testing.T) {
	for _, id := range []BlockID{Empty, Grass, Dirt, Stone, CoalOre, IronOre} {
		if !IsValidBlockID(id) {
			t.Errorf("Блок %d не зарегистрирован", id)
		}
	}
	assert.False(t, IsValidBlockID(BlockID(999)))
}

func TestByNameAndString(t *testing.T) {
	id, ok := ByName("grass")
	assert.True(t, ok)
	assert.Equal(t, Grass, id)
	assert.Equal(t, "Dirt", Dirt.String())
	assert.Equal(t, "block#999", BlockID(999).String())

	_, ok = ByName("lava")
	assert.False(t, ok)
}

func TestAllSorted(t *testing.T) {
	defs := All()
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].ID, defs[i].ID)
	}
}

func TestDefaultResourcesValid(t *testing.T) {
	for _, r := range DefaultResources() {
		assert.True(t, IsValidBlockID(r.Block))
		assert.Greater(t, r.Scale.X, 0.0)
	}
}
