package world

import (
	"fmt"
	"math"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Пределы параметров: чанк и окно прорисовки должны помещаться в память
const (
	MaxChunkWidth   = 256
	MaxChunkHeight  = 1024
	MaxChunkVolume  = 1 << 21
	MaxDrawDistance = 32
)

// Size - размеры чанка: Width по обеим горизонтальным осям, Height по вертикали
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Volume возвращает количество клеток в чанке
func (s Size) Volume() int {
	return s.Width * s.Height * s.Width
}

// TerrainParams задаёт форму рельефа
type TerrainParams struct {
	Algorithm noise.Algorithm `json:"algorithm" yaml:"algorithm"`
	Scale     float64         `json:"scale" yaml:"scale"`
	Magnitude float64         `json:"magnitude" yaml:"magnitude"`
	Offset    float64         `json:"offset" yaml:"offset"`
}

// Params - внешне настраиваемые параметры генерации мира
type Params struct {
	Seed         int64            `json:"seed" yaml:"seed"`
	Terrain      TerrainParams    `json:"terrain" yaml:"terrain"`
	Resources    []block.Resource `json:"resources" yaml:"resources"`
	ChunkSize    Size             `json:"chunk_size" yaml:"chunk_size"`
	DrawDistance int              `json:"draw_distance" yaml:"draw_distance"`
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return Params{
		Seed: 0,
		Terrain: TerrainParams{
			Algorithm: noise.AlgorithmSimplex,
			Scale:     30,
			Magnitude: 0.5,
			Offset:    0.2,
		},
		Resources:    block.DefaultResources(),
		ChunkSize:    Size{Width: 32, Height: 32},
		DrawDistance: 2,
	}
}

// Validate проверяет параметры; ошибка оборачивает ErrInvalidParams
func (p Params) Validate() error {
	if p.ChunkSize.Width <= 0 || p.ChunkSize.Height <= 0 {
		return fmt.Errorf("%w: chunk size %dx%d", ErrInvalidParams, p.ChunkSize.Width, p.ChunkSize.Height)
	}
	if p.ChunkSize.Width > MaxChunkWidth || p.ChunkSize.Height > MaxChunkHeight ||
		p.ChunkSize.Volume() > MaxChunkVolume {
		return fmt.Errorf("%w: chunk size %dx%d exceeds limits (width<=%d, height<=%d, volume<=%d)",
			ErrInvalidParams, p.ChunkSize.Width, p.ChunkSize.Height, MaxChunkWidth, MaxChunkHeight, MaxChunkVolume)
	}
	if !(p.Terrain.Scale > 0) || math.IsInf(p.Terrain.Scale, 0) {
		return fmt.Errorf("%w: terrain scale %v", ErrInvalidParams, p.Terrain.Scale)
	}
	if !isFinite(p.Terrain.Magnitude) || !isFinite(p.Terrain.Offset) {
		return fmt.Errorf("%w: terrain magnitude/offset must be finite", ErrInvalidParams)
	}
	if _, err := noise.ParseAlgorithm(string(p.Terrain.Algorithm)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.DrawDistance < 0 || p.DrawDistance > MaxDrawDistance {
		return fmt.Errorf("%w: draw distance %d", ErrInvalidParams, p.DrawDistance)
	}
	for i, r := range p.Resources {
		if r.Block == block.Empty || !block.IsValidBlockID(r.Block) {
			return fmt.Errorf("%w: resource #%d has invalid block %d", ErrInvalidParams, i, r.Block)
		}
		if !(r.Scale.X > 0) || !(r.Scale.Y > 0) || !(r.Scale.Z > 0) {
			return fmt.Errorf("%w: resource #%d has non-positive scale", ErrInvalidParams, i)
		}
	}
	return nil
}

// TerrainEqual - совпадают ли все параметры, влияющие на сгенерированные блоки
// (кроме сида)
func (p Params) TerrainEqual(other Params) bool {
	if p.Terrain != other.Terrain || p.ChunkSize != other.ChunkSize {
		return false
	}
	if len(p.Resources) != len(other.Resources) {
		return false
	}
	for i := range p.Resources {
		if p.Resources[i] != other.Resources[i] {
			return false
		}
	}
	return true
}

// Clone возвращает копию с независимым срезом ресурсов
func (p Params) Clone() Params {
	c := p
	c.Resources = append([]block.Resource(nil), p.Resources...)
	return c
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
