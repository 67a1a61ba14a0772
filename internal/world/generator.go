package world

import (
	"math"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/world/block"
)

type resourceField struct {
	resource block.Resource
	field    *noise.Field
}

// Generator строит процедурный рельеф. Создаётся один раз на генерацию мира:
// все поля шума получают сиды из одного SeededRandom в фиксированном порядке
// (сначала рельеф, затем по одному полю на ресурс).
type Generator struct {
	params    Params
	terrain   *noise.Field
	resources []resourceField
}

// NewGenerator создаёт генератор для параметров
func NewGenerator(params Params) *Generator {
	rng := noise.NewSeededRandom(params.Seed)
	g := &Generator{
		params:  params.Clone(),
		terrain: noise.NewField(params.Terrain.Algorithm, rng),
	}
	for _, r := range params.Resources {
		g.resources = append(g.resources, resourceField{
			resource: r,
			field:    noise.NewField(params.Terrain.Algorithm, rng),
		})
	}
	return g
}

// Params возвращает параметры, с которыми построен генератор
func (g *Generator) Params() Params {
	return g.params
}

// ColumnHeight возвращает высоту поверхности колонки в мировых координатах.
// Результат всегда в [0, Height-1].
func (g *Generator) ColumnHeight(worldX, worldZ int) int {
	t := g.params.Terrain
	h := g.params.ChunkSize.Height

	value := g.terrain.Sample2D(float64(worldX)/t.Scale, float64(worldZ)/t.Scale)
	scaled := t.Offset + t.Magnitude*value
	height := int(math.Floor(scaled * float64(h)))
	if height < 0 {
		return 0
	}
	if height > h-1 {
		return h - 1
	}
	return height
}

// BlockAt возвращает процедурный блок клетки при известной высоте колонки.
// Ниже поверхности - земля либо последний ресурс, чей шум превысил порог.
func (g *Generator) BlockAt(worldX, y, worldZ, height int) block.BlockID {
	switch {
	case y > height:
		return block.Empty
	case y == height:
		return block.Grass
	}

	id := block.Dirt
	for _, rf := range g.resources {
		s := rf.resource.Scale
		value := rf.field.Sample3D(float64(worldX)/s.X, float64(y)/s.Y, float64(worldZ)/s.Z)
		if value > rf.resource.Scarcity {
			id = rf.resource.Block
		}
	}
	return id
}
