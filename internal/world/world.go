package world

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultStorageKey - пространство имён ключей снапшота по умолчанию
const DefaultStorageKey = "voxelworld"

// Stats - сводка состояния мира
type Stats struct {
	Loaded    int        `json:"loaded"`
	Pending   int        `json:"pending"`
	Instances int        `json:"instances"`
	Overrides int        `json:"overrides"`
	Observer  ChunkCoord `json:"observer"`
	Seed      int64      `json:"seed"`
}

// World управляет загруженными чанками вокруг наблюдателя.
//
// Мир однопоточный: все методы, кроме чтения OverrideStore, должны
// вызываться из одной горутины (см. app.Session).
type World struct {
	params    Params
	generator *Generator
	overrides *OverrideStore
	chunks    map[ChunkCoord]*Chunk
	pending   ChunkSet
	scheduler *Scheduler
	observer  ChunkCoord

	renderer   InstanceRenderer
	storage    storage.Provider
	storageKey string
	bus        eventbus.EventBus
	metrics    *Metrics
	tracer     trace.Tracer
	clock      Clock
	logger     *logging.Logger

	async         bool
	budget        time.Duration
	maxQueued     int
	initialRadius int
}

// Option настраивает World
type Option func(*World)

// WithRenderer подключает адаптер отрисовки
func WithRenderer(r InstanceRenderer) Option {
	return func(w *World) { w.renderer = r }
}

// WithStorage подключает хранилище снапшотов
func WithStorage(p storage.Provider) Option {
	return func(w *World) { w.storage = p }
}

// WithStorageKey задаёт пространство имён ключей снапшота
func WithStorageKey(key string) Option {
	return func(w *World) {
		if key != "" {
			w.storageKey = key
		}
	}
}

// WithEventBus подключает шину событий
func WithEventBus(bus eventbus.EventBus) Option {
	return func(w *World) { w.bus = bus }
}

// WithMetrics регистрирует метрики мира в reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(w *World) { w.metrics = NewMetrics(reg) }
}

// WithTracer задаёт трассировщик OpenTelemetry
func WithTracer(t trace.Tracer) Option {
	return func(w *World) { w.tracer = t }
}

// WithClock подменяет часы планировщика
func WithClock(c Clock) Option {
	return func(w *World) { w.clock = c }
}

// WithAsyncGeneration откладывает генерацию новых чанков до Tick.
// budget - время на кадр, maxQueued - предел очереди (0 - без предела).
func WithAsyncGeneration(budget time.Duration, maxQueued int) Option {
	return func(w *World) {
		w.async = true
		w.budget = budget
		w.maxQueued = maxQueued
	}
}

// WithInitialRadius задаёт радиус синхронно загружаемой области при генерации.
// По умолчанию совпадает с дальностью прорисовки.
func WithInitialRadius(r int) Option {
	return func(w *World) { w.initialRadius = r }
}

// NewWorld создаёт мир. Чанки не загружаются до Generate или Update.
func NewWorld(params Params, opts ...Option) (*World, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		params:        params.Clone(),
		overrides:     NewOverrideStore(),
		chunks:        make(map[ChunkCoord]*Chunk),
		pending:       make(ChunkSet),
		storageKey:    DefaultStorageKey,
		initialRadius: -1,
		logger:        logging.GetWorldLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.renderer == nil {
		w.renderer = NopRenderer{}
	}
	if w.metrics == nil {
		w.metrics = NewMetrics(nil)
	}
	if w.tracer == nil {
		w.tracer = otel.Tracer("github.com/annel0/voxel-world/internal/world")
	}
	if w.clock == nil {
		w.clock = time.Now
	}
	w.scheduler = NewScheduler(w.maxQueued, w.clock)
	w.generator = NewGenerator(w.params)
	return w, nil
}

// Params возвращает копию текущих параметров
func (w *World) Params() Params {
	return w.params.Clone()
}

// Overrides возвращает хранилище правок
func (w *World) Overrides() *OverrideStore {
	return w.overrides
}

// Renderer возвращает адаптер отрисовки
func (w *World) Renderer() InstanceRenderer {
	return w.renderer
}

// Generate строит мир с нуля: правки стираются.
func (w *World) Generate() {
	w.overrides.Clear()
	w.rebuild(context.Background(), "generate")
}

// Regenerate перестраивает мир, сохраняя правки.
func (w *World) Regenerate() {
	w.rebuild(context.Background(), "regenerate")
}

func (w *World) rebuild(ctx context.Context, reason string) {
	_, span := w.tracer.Start(ctx, "world."+reason, trace.WithAttributes(
		attribute.Int64("world.seed", w.params.Seed),
	))
	defer span.End()

	start := time.Now()
	for _, chunk := range w.chunks {
		chunk.DisposeInstances()
	}
	w.chunks = make(map[ChunkCoord]*Chunk)
	w.pending = make(ChunkSet)
	w.scheduler.Reset()
	w.generator = NewGenerator(w.params)

	radius := w.initialRadius
	if radius < 0 {
		radius = w.params.DrawDistance
	}
	for _, coord := range VisibleChunks(w.observer, radius) {
		w.loadChunk(coord)
	}
	w.updateGauges()

	span.SetAttributes(attribute.Int("world.chunks", len(w.chunks)))
	w.logger.Info("🌍 Мир построен (%s): seed=%d, чанков=%d, правок=%d за %s",
		reason, w.params.Seed, len(w.chunks), w.overrides.Len(), time.Since(start))
	w.publish(EventWorldGenerated, 5, WorldEvent{
		Seed:      w.params.Seed,
		Chunks:    len(w.chunks),
		Overrides: w.overrides.Len(),
	})
}

// SetParams применяет новые параметры. Смена сида строит мир заново,
// смена рельефа или размеров перестраивает его с правками,
// смена только дальности прорисовки вступает в силу при следующем Update.
func (w *World) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	old := w.params
	w.params = p.Clone()

	if old.ChunkSize.Width != p.ChunkSize.Width {
		w.observer = ChunkCoord{
			X: vec.FloorDiv(w.observer.X*old.ChunkSize.Width, p.ChunkSize.Width),
			Z: vec.FloorDiv(w.observer.Z*old.ChunkSize.Width, p.ChunkSize.Width),
		}
	}
	if old.ChunkSize != p.ChunkSize && old.Seed == p.Seed {
		if dropped := w.overrides.Rekey(old.ChunkSize.Width, p.ChunkSize); dropped > 0 {
			w.logger.Warn("Размер чанка %dx%d -> %dx%d: отброшено %d правок выше новой высоты",
				old.ChunkSize.Width, old.ChunkSize.Height, p.ChunkSize.Width, p.ChunkSize.Height, dropped)
		}
	}

	switch {
	case old.Seed != p.Seed:
		w.Generate()
	case !old.TerrainEqual(p):
		w.Regenerate()
	default:
		w.logger.Debug("Дальность прорисовки: %d -> %d", old.DrawDistance, p.DrawDistance)
	}
	return nil
}

// GetChunk возвращает загруженный чанк; ожидающие генерации не видны
func (w *World) GetChunk(coord ChunkCoord) (*Chunk, bool) {
	chunk, ok := w.chunks[coord]
	return chunk, ok
}

// LoadedChunks возвращает координаты загруженных чанков по порядку
func (w *World) LoadedChunks() []ChunkCoord {
	out := make([]ChunkCoord, 0, len(w.chunks))
	for c := range w.chunks {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}

// PendingChunks возвращает координаты чанков в очереди генерации
func (w *World) PendingChunks() []ChunkCoord {
	return w.pending.Sorted()
}

// GetBlock возвращает блок по мировым координатам.
// false - чанк не загружен или клетка вне высоты мира, это обычная ситуация.
func (w *World) GetBlock(x, y, z int) (Block, bool) {
	if y < 0 || y >= w.params.ChunkSize.Height {
		return Block{ID: block.Empty, Slot: NoSlot}, false
	}
	coord, local := WorldToChunkCoords(x, y, z, w.params.ChunkSize.Width)
	chunk, ok := w.chunks[coord]
	if !ok {
		return Block{ID: block.Empty, Slot: NoSlot}, false
	}
	return chunk.GetBlock(local.X, local.Y, local.Z)
}

// IsBlockObscured - все шесть соседей клетки заняты
func (w *World) IsBlockObscured(x, y, z int) bool {
	coord, local := WorldToChunkCoords(x, y, z, w.params.ChunkSize.Width)
	chunk, ok := w.chunks[coord]
	if !ok || !chunk.InBounds(local.X, local.Y, local.Z) {
		return false
	}
	return chunk.IsBlockObscured(local.X, local.Y, local.Z)
}

func (w *World) resolve(x, y, z int) (*Chunk, vec.Vec3, error) {
	if y < 0 || y >= w.params.ChunkSize.Height {
		return nil, vec.Vec3{}, fmt.Errorf("%w: y=%d", ErrOutOfBounds, y)
	}
	coord, local := WorldToChunkCoords(x, y, z, w.params.ChunkSize.Width)
	chunk, ok := w.chunks[coord]
	if !ok {
		return nil, vec.Vec3{}, fmt.Errorf("%w: (%d,%d)", ErrChunkNotLoaded, coord.X, coord.Z)
	}
	return chunk, local, nil
}

// AddBlock ставит блок и обновляет видимость клетки и её шести соседей,
// в том числе в соседних чанках. Повторная установка того же блока ничего не делает.
func (w *World) AddBlock(x, y, z int, id block.BlockID) error {
	if id == block.Empty || !block.IsValidBlockID(id) {
		return fmt.Errorf("%w: %d", ErrInvalidBlock, id)
	}
	chunk, local, err := w.resolve(x, y, z)
	if err != nil {
		return err
	}
	prev, _ := chunk.GetBlock(local.X, local.Y, local.Z)
	if !chunk.AddBlock(local.X, local.Y, local.Z, id) {
		return nil
	}
	w.refreshAround(x, y, z)

	w.metrics.BlockEdits.WithLabelValues("add").Inc()
	w.updateGauges()
	w.publish(EventBlockChanged, 3, BlockChangedEvent{
		Pos:      vec.Vec3{X: x, Y: y, Z: z},
		Previous: prev.ID,
		Block:    id,
	})
	return nil
}

// RemoveBlock очищает клетку и открывает соседей
func (w *World) RemoveBlock(x, y, z int) error {
	chunk, local, err := w.resolve(x, y, z)
	if err != nil {
		return err
	}
	prev, _ := chunk.GetBlock(local.X, local.Y, local.Z)
	if !chunk.RemoveBlock(local.X, local.Y, local.Z) {
		return nil
	}
	w.refreshAround(x, y, z)

	w.metrics.BlockEdits.WithLabelValues("remove").Inc()
	w.updateGauges()
	w.publish(EventBlockChanged, 3, BlockChangedEvent{
		Pos:      vec.Vec3{X: x, Y: y, Z: z},
		Previous: prev.ID,
		Block:    block.Empty,
	})
	return nil
}

func (w *World) refreshAround(x, y, z int) {
	w.refreshCell(x, y, z)
	for _, d := range vec.Neighbors6 {
		w.refreshCell(x+d.X, y+d.Y, z+d.Z)
	}
}

func (w *World) refreshCell(x, y, z int) {
	if y < 0 || y >= w.params.ChunkSize.Height {
		return
	}
	coord, local := WorldToChunkCoords(x, y, z, w.params.ChunkSize.Width)
	if chunk, ok := w.chunks[coord]; ok {
		chunk.RefreshBlock(local.X, local.Y, local.Z)
	}
}

// Stats возвращает сводку состояния
func (w *World) Stats() Stats {
	instances := 0
	for _, chunk := range w.chunks {
		instances += chunk.InstanceCount()
	}
	return Stats{
		Loaded:    len(w.chunks),
		Pending:   len(w.pending),
		Instances: instances,
		Overrides: w.overrides.Len(),
		Observer:  w.observer,
		Seed:      w.params.Seed,
	}
}

func (w *World) updateGauges() {
	s := w.Stats()
	w.metrics.LoadedChunks.Set(float64(s.Loaded))
	w.metrics.PendingChunks.Set(float64(s.Pending))
	w.metrics.Instances.Set(float64(s.Instances))
}
