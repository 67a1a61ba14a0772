package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Символы высоты для ASCII-карты, от низин к вершинам
const heightRamp = " .:-=+*#%@"

func main() {
	var (
		configPath = flag.String("config", "", "YAML конфигурация (по умолчанию $VOXEL_CONFIG)")
		command    = flag.String("cmd", "heightmap", "Command: heightmap, stats, export, tail")
		seed       = flag.Int64("seed", 0, "Seed (переопределяет конфигурацию, если задан -seed-set)")
		seedSet    = flag.Bool("seed-set", false, "Использовать -seed вместо сида из конфигурации")
		chunkX     = flag.Int("cx", 0, "X чанка для heightmap")
		chunkZ     = flag.Int("cz", 0, "Z чанка для heightmap")
		radius     = flag.Int("radius", -1, "Радиус для stats (по умолчанию - дальность прорисовки)")
		types      = flag.String("types", "", "Фильтр типов событий для tail (через запятую)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	params := cfg.World.Params
	if *seedSet {
		params.Seed = *seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *command {
	case "heightmap":
		if err := printHeightmap(params, world.ChunkCoord{X: *chunkX, Z: *chunkZ}); err != nil {
			log.Fatalf("❌ Heightmap failed: %v", err)
		}

	case "stats":
		if err := printStats(params, *radius); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}

	case "export":
		if err := exportSnapshot(ctx, cfg); err != nil {
			log.Fatalf("❌ Export failed: %v", err)
		}

	case "tail":
		if err := tailEvents(ctx, cfg.EventBus, parseStringList(*types)); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		flag.Usage()
		os.Exit(1)
	}
}

// printHeightmap выводит карту высот одного чанка
func printHeightmap(params world.Params, coord world.ChunkCoord) error {
	if err := params.Validate(); err != nil {
		return err
	}
	gen := world.NewGenerator(params)
	width, height := params.ChunkSize.Width, params.ChunkSize.Height

	fmt.Printf("🗺️  Chunk (%d,%d), seed=%d, %s\n", coord.X, coord.Z, params.Seed, params.Terrain.Algorithm)
	for z := 0; z < width; z++ {
		var row strings.Builder
		for x := 0; x < width; x++ {
			h := gen.ColumnHeight(coord.X*width+x, coord.Z*width+z)
			idx := h * (len(heightRamp) - 1) / max(height-1, 1)
			row.WriteByte(heightRamp[idx])
		}
		fmt.Println(row.String())
	}
	return nil
}

// printStats генерирует мир и печатает распределение блоков
func printStats(params world.Params, radius int) error {
	renderer := world.NewMemoryRenderer()
	w, err := world.NewWorld(params, world.WithRenderer(renderer), world.WithInitialRadius(radius))
	if err != nil {
		return err
	}
	w.Generate()

	// пустые клетки ForEachBlock пропускает
	counts := make(map[block.BlockID]int)
	for _, coord := range w.LoadedChunks() {
		chunk, _ := w.GetChunk(coord)
		chunk.ForEachBlock(func(_ vec.Vec3, b world.Block) {
			counts[b.ID]++
		})
	}

	stats := w.Stats()
	fmt.Printf("🌍 Seed %d: %d chunks, %d visible instances, %d batches\n",
		stats.Seed, stats.Loaded, stats.Instances, len(renderer.Keys()))

	ids := make([]block.BlockID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Printf("   %-8s %d\n", id, counts[id])
	}
	return nil
}

// exportSnapshot печатает сохранённые параметры и правки в JSON
func exportSnapshot(ctx context.Context, cfg *config.Config) error {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []world.Option{world.WithStorage(store)}
	if cfg.Storage.Namespace != "" {
		opts = append(opts, world.WithStorageKey(cfg.Storage.Namespace))
	}
	w, err := world.NewWorld(cfg.World.Params, append(opts, world.WithInitialRadius(0))...)
	if err != nil {
		return err
	}
	if err := w.Load(ctx); err != nil {
		return err
	}

	out := struct {
		Params    world.Params          `json:"params"`
		Overrides []world.OverrideEntry `json:"overrides"`
	}{
		Params:    w.Params(),
		Overrides: w.Overrides().Entries(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// tailEvents печатает события шины до Ctrl+C
func tailEvents(ctx context.Context, cfg eventbus.Config, types []string) error {
	bus, err := eventbus.Open(cfg)
	if err != nil {
		return err
	}
	if bus == nil {
		return fmt.Errorf("шина событий отключена в конфигурации")
	}
	defer bus.Close()

	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: types}, func(_ context.Context, ev *eventbus.Envelope) {
		fmt.Printf("%s [%s] %s %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Source, ev.EventType, string(ev.Payload))
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Println("📡 Listening for events... (Ctrl+C to stop)")
	<-ctx.Done()
	return nil
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
