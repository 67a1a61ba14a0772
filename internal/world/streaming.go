package world

import (
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/vec"
)

// StreamDiff - результат Update: какие чанки поставлены на загрузку и какие выгружены
type StreamDiff struct {
	Added   []ChunkCoord `json:"added"`
	Removed []ChunkCoord `json:"removed"`
}

// Empty сообщает, что Update ничего не изменил
func (d StreamDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// neighbours4 - соседи чанка по горизонтали
var neighbours4 = [4]ChunkCoord{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}}

// VisibleChunks возвращает квадрат чанков в пределах расстояния Чебышёва radius
func VisibleChunks(center ChunkCoord, radius int) []ChunkCoord {
	if radius < 0 {
		return nil
	}
	out := make([]ChunkCoord, 0, (2*radius+1)*(2*radius+1))
	for x := center.X - radius; x <= center.X+radius; x++ {
		for z := center.Z - radius; z <= center.Z+radius; z++ {
			out = append(out, ChunkCoord{X: x, Z: z})
		}
	}
	return out
}

// ChunksToAdd возвращает target − loaded
func ChunksToAdd(target []ChunkCoord, loaded ChunkSet) []ChunkCoord {
	var out []ChunkCoord
	for _, c := range target {
		if !loaded.Has(c) {
			out = append(out, c)
		}
	}
	sortCoords(out)
	return out
}

// ChunksToRemove возвращает loaded − target
func ChunksToRemove(target []ChunkCoord, loaded ChunkSet) []ChunkCoord {
	want := NewChunkSet(target...)
	var out []ChunkCoord
	for c := range loaded {
		if !want.Has(c) {
			out = append(out, c)
		}
	}
	sortCoords(out)
	return out
}

// Update подгружает чанки вокруг наблюдателя и выгружает ушедшие из зоны.
// Повторный вызов в том же чанке ничего не меняет.
func (w *World) Update(observer vec.Vec3Float) StreamDiff {
	if !observer.IsFinite() {
		return StreamDiff{}
	}
	cell := observer.Floor()
	center, _ := WorldToChunkCoords(cell.X, cell.Y, cell.Z, w.params.ChunkSize.Width)
	w.observer = center

	target := VisibleChunks(center, w.params.DrawDistance)

	loaded := make(ChunkSet, len(w.chunks))
	for c := range w.chunks {
		loaded[c] = struct{}{}
	}

	var diff StreamDiff
	diff.Removed = ChunksToRemove(target, loaded)
	for _, c := range diff.Removed {
		w.unloadChunk(c)
	}

	known := make(ChunkSet, len(w.chunks)+len(w.pending))
	for c := range w.chunks {
		known[c] = struct{}{}
	}
	for c := range w.pending {
		known[c] = struct{}{}
	}

	for _, c := range ChunksToAdd(target, known) {
		if w.async {
			if !w.scheduler.Enqueue(c) {
				continue
			}
			w.pending[c] = struct{}{}
		} else {
			w.loadChunk(c)
		}
		diff.Added = append(diff.Added, c)
	}

	if !diff.Empty() {
		w.logger.Debug("🧭 Наблюдатель в чанке (%d,%d): +%d -%d, загружено %d, в очереди %d",
			center.X, center.Z, len(diff.Added), len(diff.Removed), len(w.chunks), len(w.pending))
	}
	w.updateGauges()
	return diff
}

// Tick генерирует отложенные чанки в пределах бюджета кадра.
// Возвращает число сгенерированных чанков.
func (w *World) Tick() int {
	if w.scheduler.Len() == 0 {
		return 0
	}
	generated := 0
	w.scheduler.Drain(w.budget, func(c ChunkCoord) {
		if !w.pending.Has(c) {
			return
		}
		delete(w.pending, c)
		if _, loaded := w.chunks[c]; loaded {
			return
		}
		w.loadChunk(c)
		generated++
	})
	w.updateGauges()
	return generated
}

func (w *World) loadChunk(coord ChunkCoord) {
	start := time.Now()
	chunk := NewChunk(coord, w.params.ChunkSize, w, w.renderer, w.overrides)
	chunk.Generate(w.generator)
	w.chunks[coord] = chunk

	// грани соседей, смотревшие в пустоту, теперь могут быть закрыты
	for _, d := range neighbours4 {
		if n, ok := w.chunks[coord.Add(d.X, d.Z)]; ok {
			n.RefreshBorder(-d.X, -d.Z)
		}
	}

	took := time.Since(start)
	w.metrics.GeneratedChunks.Inc()
	w.metrics.GenerationDuration.Observe(took.Seconds())
	logging.LogChunkLoaded(coord.X, coord.Z, chunk.InstanceCount(), took)
	w.publish(EventChunkLoaded, 1, ChunkEvent{Chunk: coord, Instances: chunk.InstanceCount()})
}

func (w *World) unloadChunk(coord ChunkCoord) {
	chunk, ok := w.chunks[coord]
	if !ok {
		return
	}
	chunk.DisposeInstances()
	delete(w.chunks, coord)

	for _, d := range neighbours4 {
		if n, ok := w.chunks[coord.Add(d.X, d.Z)]; ok {
			n.RefreshBorder(-d.X, -d.Z)
		}
	}

	w.metrics.UnloadedChunks.Inc()
	logging.LogChunkUnloaded(coord.X, coord.Z)
	w.publish(EventChunkUnloaded, 1, ChunkEvent{Chunk: coord})
}
