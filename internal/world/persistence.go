package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/world/block"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const snapshotVersion = 1

type snapshotParams struct {
	Version int       `json:"version"`
	Params  Params    `json:"params"`
	SavedAt time.Time `json:"saved_at"`
}

type snapshotOverrides struct {
	Version int             `json:"version"`
	Entries []OverrideEntry `json:"entries"`
}

// ParamsKey - ключ снапшота параметров
func (w *World) ParamsKey() string {
	return w.storageKey + ":params"
}

// OverridesKey - ключ снапшота правок
func (w *World) OverridesKey() string {
	return w.storageKey + ":overrides"
}

// Save сохраняет параметры и правки в хранилище
func (w *World) Save(ctx context.Context) (err error) {
	ctx, span := w.tracer.Start(ctx, "world.Save")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if w.storage == nil {
		return fmt.Errorf("%w: storage not configured", ErrStorageUnavailable)
	}

	params, err := json.Marshal(snapshotParams{
		Version: snapshotVersion,
		Params:  w.params,
		SavedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: encode params: %w", ErrStorageUnavailable, err)
	}
	entries := w.overrides.Entries()
	overrides, err := json.Marshal(snapshotOverrides{Version: snapshotVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("%w: encode overrides: %w", ErrStorageUnavailable, err)
	}

	if err := w.storage.Save(ctx, w.ParamsKey(), params); err != nil {
		w.logger.Error("Не удалось сохранить параметры мира: %v", err)
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := w.storage.Save(ctx, w.OverridesKey(), overrides); err != nil {
		w.logger.Error("Не удалось сохранить правки мира: %v", err)
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	span.SetAttributes(attribute.Int("world.overrides", len(entries)))
	w.logger.Info("💾 Мир сохранён: seed=%d, правок=%d", w.params.Seed, len(entries))
	w.publish(EventWorldSaved, 5, WorldEvent{Seed: w.params.Seed, Chunks: len(w.chunks), Overrides: len(entries)})
	return nil
}

// Load читает снапшот и перестраивает мир. Оба ключа читаются и
// проверяются до изменения живого состояния: при любой ошибке мир не меняется.
func (w *World) Load(ctx context.Context) (err error) {
	ctx, span := w.tracer.Start(ctx, "world.Load")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if w.storage == nil {
		return fmt.Errorf("%w: storage not configured", ErrStorageUnavailable)
	}

	params, entries, err := w.readSnapshot(ctx)
	if err != nil {
		w.logger.Warn("Снапшот мира не загружен: %v", err)
		return err
	}

	w.params = params
	w.overrides.Replace(entries)
	w.rebuild(ctx, "load")

	span.SetAttributes(attribute.Int("world.overrides", len(entries)))
	w.logger.Info("📂 Мир загружен: seed=%d, правок=%d", params.Seed, len(entries))
	w.publish(EventWorldLoaded, 5, WorldEvent{Seed: params.Seed, Chunks: len(w.chunks), Overrides: len(entries)})
	return nil
}

func (w *World) readSnapshot(ctx context.Context) (Params, []OverrideEntry, error) {
	rawParams, err := w.storage.Load(ctx, w.ParamsKey())
	if err != nil {
		return Params{}, nil, wrapLoadError("params", err)
	}
	rawOverrides, err := w.storage.Load(ctx, w.OverridesKey())
	if err != nil {
		return Params{}, nil, wrapLoadError("overrides", err)
	}

	var sp snapshotParams
	if err := json.Unmarshal(rawParams, &sp); err != nil {
		return Params{}, nil, fmt.Errorf("%w: decode params: %w", ErrStorageUnavailable, err)
	}
	var so snapshotOverrides
	if err := json.Unmarshal(rawOverrides, &so); err != nil {
		return Params{}, nil, fmt.Errorf("%w: decode overrides: %w", ErrStorageUnavailable, err)
	}
	if sp.Version != snapshotVersion || so.Version != snapshotVersion {
		return Params{}, nil, fmt.Errorf("%w: unsupported snapshot version %d/%d",
			ErrStorageUnavailable, sp.Version, so.Version)
	}
	if err := sp.Params.Validate(); err != nil {
		return Params{}, nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	size := sp.Params.ChunkSize
	for i, e := range so.Entries {
		if !block.IsValidBlockID(e.Block) {
			return Params{}, nil, fmt.Errorf("%w: override #%d has unknown block %d", ErrStorageUnavailable, i, e.Block)
		}
		p := e.Pos
		if p.X < 0 || p.X >= size.Width || p.Y < 0 || p.Y >= size.Height || p.Z < 0 || p.Z >= size.Width {
			return Params{}, nil, fmt.Errorf("%w: override #%d outside chunk grid", ErrStorageUnavailable, i)
		}
	}
	return sp.Params, so.Entries, nil
}

func wrapLoadError(what string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: no saved %s: %w", ErrStorageUnavailable, what, err)
	}
	return fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, what, err)
}
