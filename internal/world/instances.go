package world

import (
	"sort"
	"sync"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// BatchKey идентифицирует пачку инстансов: один тип блока в одном чанке
type BatchKey struct {
	Chunk ChunkCoord    `json:"chunk"`
	Block block.BlockID `json:"block"`
}

// InstanceRenderer - внешний адаптер отрисовки.
//
// Номера слотов выдаёт движок: Allocate всегда получает slot == текущий размер
// пачки, Free всегда освобождает последний слот. Перед Free движок переносит
// последний инстанс в освободившийся слот через Update.
type InstanceRenderer interface {
	Allocate(key BatchKey, slot int, pos vec.Vec3)
	Update(key BatchKey, slot int, pos vec.Vec3)
	Free(key BatchKey, slot int)
	Release(key BatchKey)
}

// NopRenderer ничего не рисует (headless сервер)
type NopRenderer struct{}

func (NopRenderer) Allocate(BatchKey, int, vec.Vec3) {}
func (NopRenderer) Update(BatchKey, int, vec.Vec3)   {}
func (NopRenderer) Free(BatchKey, int)               {}
func (NopRenderer) Release(BatchKey)                 {}

// MemoryRenderer хранит зеркало всех пачек в памяти.
// Используется тестами, REST API и CLI для проверки учёта слотов.
type MemoryRenderer struct {
	mu      sync.RWMutex
	batches map[BatchKey][]vec.Vec3
	errors  int
}

// NewMemoryRenderer создаёт пустое зеркало
func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{batches: make(map[BatchKey][]vec.Vec3)}
}

func (r *MemoryRenderer) Allocate(key BatchKey, slot int, pos vec.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.batches[key]
	if slot != len(batch) {
		r.errors++
		return
	}
	r.batches[key] = append(batch, pos)
}

func (r *MemoryRenderer) Update(key BatchKey, slot int, pos vec.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.batches[key]
	if slot < 0 || slot >= len(batch) {
		r.errors++
		return
	}
	batch[slot] = pos
}

func (r *MemoryRenderer) Free(key BatchKey, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.batches[key]
	if slot != len(batch)-1 {
		r.errors++
		return
	}
	r.batches[key] = batch[:slot]
}

func (r *MemoryRenderer) Release(key BatchKey) {
	r.mu.Lock()
	delete(r.batches, key)
	r.mu.Unlock()
}

// Batch возвращает копию позиций пачки
func (r *MemoryRenderer) Batch(key BatchKey) []vec.Vec3 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]vec.Vec3(nil), r.batches[key]...)
}

// Keys возвращает непустые пачки в детерминированном порядке
func (r *MemoryRenderer) Keys() []BatchKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]BatchKey, 0, len(r.batches))
	for k, b := range r.batches {
		if len(b) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Chunk != b.Chunk {
			return a.Chunk.X < b.Chunk.X || (a.Chunk.X == b.Chunk.X && a.Chunk.Z < b.Chunk.Z)
		}
		return a.Block < b.Block
	})
	return keys
}

// Count возвращает общее число инстансов
func (r *MemoryRenderer) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, b := range r.batches {
		total += len(b)
	}
	return total
}

// Errors - сколько раз движок нарушил контракт слотов (должно быть 0)
func (r *MemoryRenderer) Errors() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errors
}

// instanceBatch - плотный список владельцев слотов: owners[slot] = индекс клетки
type instanceBatch struct {
	owners []int
}
