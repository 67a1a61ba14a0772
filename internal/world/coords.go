package world

import (
	"sort"

	"github.com/annel0/voxel-world/internal/vec"
)

// ChunkCoord - координаты чанка в сетке чанков
type ChunkCoord struct {
	X int `json:"x" yaml:"x"`
	Z int `json:"z" yaml:"z"`
}

// Add смещает координату
func (c ChunkCoord) Add(dx, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Z: c.Z + dz}
}

// ChunkSet - множество координат чанков
type ChunkSet map[ChunkCoord]struct{}

// NewChunkSet строит множество из списка
func NewChunkSet(coords ...ChunkCoord) ChunkSet {
	set := make(ChunkSet, len(coords))
	for _, c := range coords {
		set[c] = struct{}{}
	}
	return set
}

// Has проверяет принадлежность
func (s ChunkSet) Has(c ChunkCoord) bool {
	_, ok := s[c]
	return ok
}

// Sorted возвращает элементы в порядке X, затем Z
func (s ChunkSet) Sorted() []ChunkCoord {
	out := make([]ChunkCoord, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}

func sortCoords(coords []ChunkCoord) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
}

// WorldToChunkCoords переводит мировую клетку в (чанк, локальная клетка).
// Деление с округлением вниз, поэтому отрицательные координаты тоже
// попадают в правильный чанк: x=-1 при ширине 16 - чанк -1, локальная 15.
func WorldToChunkCoords(x, y, z, width int) (ChunkCoord, vec.Vec3) {
	chunk := ChunkCoord{X: vec.FloorDiv(x, width), Z: vec.FloorDiv(z, width)}
	local := vec.Vec3{
		X: x - chunk.X*width,
		Y: y,
		Z: z - chunk.Z*width,
	}
	return chunk, local
}
