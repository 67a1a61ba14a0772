package world

import (
	"context"
	"encoding/json"
	"time"

	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/google/uuid"
)

// Типы событий мира
const (
	EventChunkLoaded    = "ChunkLoaded"
	EventChunkUnloaded  = "ChunkUnloaded"
	EventBlockChanged   = "BlockChanged"
	EventWorldGenerated = "WorldGenerated"
	EventWorldSaved     = "WorldSaved"
	EventWorldLoaded    = "WorldLoaded"
)

// EventSource - имя источника в Envelope
const EventSource = "world"

// ChunkEvent - полезная нагрузка ChunkLoaded/ChunkUnloaded
type ChunkEvent struct {
	Chunk     ChunkCoord `json:"chunk"`
	Instances int        `json:"instances,omitempty"`
}

// BlockChangedEvent - полезная нагрузка BlockChanged
type BlockChangedEvent struct {
	Pos      vec.Vec3      `json:"pos"`
	Previous block.BlockID `json:"previous"`
	Block    block.BlockID `json:"block"`
}

// WorldEvent - полезная нагрузка WorldGenerated/WorldSaved/WorldLoaded
type WorldEvent struct {
	Seed      int64 `json:"seed"`
	Chunks    int   `json:"chunks"`
	Overrides int   `json:"overrides"`
}

func (w *World) publish(eventType string, priority int, payload interface{}) {
	if w.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Не удалось сериализовать событие %s: %v", eventType, err)
		return
	}
	ev := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    EventSource,
		EventType: eventType,
		Version:   1,
		Priority:  priority,
		Payload:   data,
	}
	if err := w.bus.Publish(context.Background(), ev); err != nil {
		w.logger.Warn("Событие %s не опубликовано: %v", eventType, err)
	}
}
