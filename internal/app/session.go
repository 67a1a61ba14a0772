package app

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// ErrObserverBlocked - позиция наблюдателя пересекает твёрдые блоки
var ErrObserverBlocked = errors.New("observer position is blocked")

// ObserverCollider - габариты наблюдателя при ходьбе
var ObserverCollider = physics.NewBoxCollider(0.3, 1.8)

// ChunkInfo - краткое описание загруженного или ожидающего чанка
type ChunkInfo struct {
	Coords    world.ChunkCoord `json:"coords"`
	Pending   bool             `json:"pending"`
	Instances int              `json:"instances"`
}

// Session сериализует доступ к World из REST обработчиков и игрового цикла.
// World не потокобезопасен, поэтому любое обращение идёт под mu.
type Session struct {
	mu       sync.Mutex
	world    *world.World
	observer vec.Vec3Float
	logger   *logging.Logger
	ticks    uint64
}

// NewSession создаёт сессию над готовым миром
func NewSession(w *world.World) *Session {
	return &Session{
		world:  w,
		logger: logging.GetComponentLogger("session"),
	}
}

// Do выполняет fn с эксклюзивным доступом к миру
func (s *Session) Do(fn func(w *world.World) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.world)
}

// Start выполняет первичную генерацию вокруг текущего наблюдателя.
// При loadSaved сначала пробует восстановить сохранённый мир.
func (s *Session) Start(ctx context.Context, loadSaved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loadSaved {
		err := s.world.Load(ctx)
		if err == nil {
			s.world.Update(s.observer)
			return
		}
		s.logger.Info("Сохранённый мир не найден, генерируем новый: %v", err)
	}
	s.world.Generate()
	s.world.Update(s.observer)
}

// Observer возвращает позицию наблюдателя
func (s *Session) Observer() vec.Vec3Float {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer
}

// MoveObserver перемещает наблюдателя и запускает стриминг чанков
func (s *Session) MoveObserver(pos vec.Vec3Float) world.StreamDiff {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !pos.IsFinite() {
		return world.StreamDiff{}
	}
	s.observer = pos
	return s.world.Update(pos)
}

// WalkObserver перемещает наблюдателя с проверкой столкновений.
// Клетки незагруженных чанков не мешают движению.
func (s *Session) WalkObserver(pos vec.Vec3Float) (world.StreamDiff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !physics.CanMoveToPosition(s.world, pos, ObserverCollider) {
		return world.StreamDiff{}, ErrObserverBlocked
	}
	s.observer = pos
	return s.world.Update(pos), nil
}

// DropObserver ставит наблюдателя на поверхность колонки (x, z).
// Если колонка ещё не сгенерирована, высота наблюдателя не меняется.
func (s *Session) DropObserver(x, z float64) (vec.Vec3Float, world.StreamDiff) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := vec.Vec3Float{X: x, Y: s.observer.Y, Z: z}
	if !pos.IsFinite() {
		return s.observer, world.StreamDiff{}
	}
	diff := s.world.Update(pos)

	top := s.world.Params().ChunkSize.Height - 1
	if y, ok := physics.GroundHeight(s.world, int(math.Floor(x)), int(math.Floor(z)), top); ok {
		pos.Y = float64(y)
	}
	s.observer = pos
	return pos, diff
}

// Stats возвращает сводку мира
func (s *Session) Stats() world.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Stats()
}

// Params возвращает копию текущих параметров
func (s *Session) Params() world.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Params()
}

// SetParams применяет новые параметры и догружает чанки вокруг наблюдателя
func (s *Session) SetParams(p world.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.world.SetParams(p); err != nil {
		return err
	}
	s.world.Update(s.observer)
	return nil
}

// Generate пересоздаёт мир с текущим сидом, сбрасывая правки
func (s *Session) Generate() world.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.world.Generate()
	s.world.Update(s.observer)
	return s.world.Stats()
}

// Save сохраняет мир в хранилище
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Save(ctx)
}

// Load загружает мир из хранилища
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.world.Load(ctx); err != nil {
		return err
	}
	s.world.Update(s.observer)
	return nil
}

// GetBlock возвращает блок по мировым координатам
func (s *Session) GetBlock(x, y, z int) (world.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.GetBlock(x, y, z)
}

// AddBlock ставит блок
func (s *Session) AddBlock(x, y, z int, id block.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.AddBlock(x, y, z, id)
}

// RemoveBlock убирает блок
func (s *Session) RemoveBlock(x, y, z int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.RemoveBlock(x, y, z)
}

// Chunks перечисляет загруженные и ожидающие генерации чанки
func (s *Session) Chunks() []ChunkInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := s.world.LoadedChunks()
	pending := s.world.PendingChunks()
	out := make([]ChunkInfo, 0, len(loaded)+len(pending))
	for _, c := range loaded {
		info := ChunkInfo{Coords: c}
		if chunk, ok := s.world.GetChunk(c); ok {
			info.Instances = chunk.InstanceCount()
		}
		out = append(out, info)
	}
	for _, c := range pending {
		out = append(out, ChunkInfo{Coords: c, Pending: true})
	}
	return out
}

// Tick выполняет один кадр: генерирует отложенные чанки
func (s *Session) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
	return s.world.Tick()
}

// Ticks возвращает число выполненных кадров
func (s *Session) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Run запускает игровой цикл с частотой frameRate до отмены ctx
func (s *Session) Run(ctx context.Context, frameRate int) {
	if frameRate <= 0 {
		frameRate = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(frameRate))
	defer ticker.Stop()

	s.logger.Info("🎮 Игровой цикл запущен: %d FPS", frameRate)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("🛑 Игровой цикл остановлен после %d кадров", s.Ticks())
			return
		case <-ticker.C:
			if n := s.Tick(); n > 0 {
				s.logger.Trace("Кадр: сгенерировано %d чанков", n)
			}
		}
	}
}
