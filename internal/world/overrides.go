package world

import (
	"sort"
	"sync"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// OverrideEntry - одна пользовательская правка (в локальных координатах чанка)
type OverrideEntry struct {
	Chunk ChunkCoord    `json:"chunk"`
	Pos   vec.Vec3      `json:"pos"`
	Block block.BlockID `json:"block"`
}

// OverrideStore хранит пользовательские правки поверх процедурного мира.
// Пустой блок тоже правка: он означает "здесь ничего нет".
type OverrideStore struct {
	mu      sync.RWMutex
	entries map[ChunkCoord]map[vec.Vec3]block.BlockID
	size    int
}

// NewOverrideStore создаёт пустое хранилище правок
func NewOverrideStore() *OverrideStore {
	return &OverrideStore{entries: make(map[ChunkCoord]map[vec.Vec3]block.BlockID)}
}

// Set записывает правку, последняя запись побеждает
func (s *OverrideStore) Set(chunk ChunkCoord, pos vec.Vec3, id block.BlockID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells, ok := s.entries[chunk]
	if !ok {
		cells = make(map[vec.Vec3]block.BlockID)
		s.entries[chunk] = cells
	}
	if _, exists := cells[pos]; !exists {
		s.size++
	}
	cells[pos] = id
}

// Get возвращает правку для клетки
func (s *OverrideStore) Get(chunk ChunkCoord, pos vec.Vec3) (block.BlockID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.entries[chunk][pos]
	return id, ok
}

// ForChunk вызывает fn для каждой правки чанка.
// Правки копируются под блокировкой, fn вызывается без неё.
func (s *OverrideStore) ForChunk(chunk ChunkCoord, fn func(pos vec.Vec3, id block.BlockID)) {
	s.mu.RLock()
	cells := make([]OverrideEntry, 0, len(s.entries[chunk]))
	for pos, id := range s.entries[chunk] {
		cells = append(cells, OverrideEntry{Chunk: chunk, Pos: pos, Block: id})
	}
	s.mu.RUnlock()

	for _, e := range cells {
		fn(e.Pos, e.Block)
	}
}

// Entries возвращает все правки в детерминированном порядке
func (s *OverrideStore) Entries() []OverrideEntry {
	s.mu.RLock()
	out := make([]OverrideEntry, 0, s.size)
	for chunk, cells := range s.entries {
		for pos, id := range cells {
			out = append(out, OverrideEntry{Chunk: chunk, Pos: pos, Block: id})
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Chunk != b.Chunk {
			if a.Chunk.X != b.Chunk.X {
				return a.Chunk.X < b.Chunk.X
			}
			return a.Chunk.Z < b.Chunk.Z
		}
		return a.Pos.Less(b.Pos)
	})
	return out
}

// Replace атомарно заменяет содержимое хранилища
func (s *OverrideStore) Replace(entries []OverrideEntry) {
	fresh := make(map[ChunkCoord]map[vec.Vec3]block.BlockID)
	size := 0
	for _, e := range entries {
		cells, ok := fresh[e.Chunk]
		if !ok {
			cells = make(map[vec.Vec3]block.BlockID)
			fresh[e.Chunk] = cells
		}
		if _, exists := cells[e.Pos]; !exists {
			size++
		}
		cells[e.Pos] = e.Block
	}

	s.mu.Lock()
	s.entries = fresh
	s.size = size
	s.mu.Unlock()
}

// Rekey переводит правки на новую сетку чанков через мировые координаты.
// Правки выше новой высоты отбрасываются. Возвращает число отброшенных.
func (s *OverrideStore) Rekey(oldWidth int, size Size) int {
	entries := s.Entries()
	kept := make([]OverrideEntry, 0, len(entries))
	for _, e := range entries {
		if e.Pos.Y >= size.Height {
			continue
		}
		wx := e.Chunk.X*oldWidth + e.Pos.X
		wz := e.Chunk.Z*oldWidth + e.Pos.Z
		chunk, local := WorldToChunkCoords(wx, e.Pos.Y, wz, size.Width)
		kept = append(kept, OverrideEntry{Chunk: chunk, Pos: local, Block: e.Block})
	}
	s.Replace(kept)
	return len(entries) - len(kept)
}

// Clear удаляет все правки
func (s *OverrideStore) Clear() {
	s.Replace(nil)
}

// Len возвращает количество правок
func (s *OverrideStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}
