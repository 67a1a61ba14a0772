package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-world/internal/api"
	"github.com/annel0/voxel-world/internal/app"
	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	logging.Info("🎮 Запуск Voxel World Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТРАССИРОВКА ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	// === МЕТРИКИ ===
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// === ХРАНИЛИЩЕ ===
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища (%s): %v", cfg.Storage.Backend, err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("Ошибка закрытия хранилища: %v", err)
		}
	}()

	// === ШИНА СОБЫТИЙ ===
	bus, err := eventbus.Open(cfg.EventBus)
	if err != nil {
		logging.Error("❌ Ошибка подключения к шине событий: %v", err)
		os.Exit(1)
	}
	if bus != nil {
		defer bus.Close()
		if _, err := eventbus.StartLoggingListener(bus); err != nil {
			logging.Warn("Не удалось подписать логгер событий: %v", err)
		}
		exporter := eventbus.NewMetricsExporter(bus, registry)
		exporter.Start(10 * time.Second)
		defer exporter.Stop()
	}

	// === МИР ===
	w, err := world.NewWorld(cfg.World.Params, worldOptions(cfg, store, bus, registry)...)
	if err != nil {
		logging.Error("❌ Некорректные параметры мира: %v", err)
		os.Exit(1)
	}
	session := app.NewSession(w)
	session.Start(ctx, cfg.World.LoadOnStart)

	// === REST API ===
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	server := api.NewRestServer(api.Config{
		Port:       restPort,
		Session:    session,
		Registerer: registry,
		Gatherer:   registry,
	})
	go func() {
		if err := server.Start(); err != nil {
			logging.Error("❌ REST API остановлен с ошибкой: %v", err)
			stop()
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌍 Мир: seed=%d, чанк %dx%d, дальность %d",
		cfg.World.Params.Seed, cfg.World.Params.ChunkSize.Width, cfg.World.Params.ChunkSize.Height, cfg.World.Params.DrawDistance)
	logging.Info("   💾 Хранилище: %s", cfg.Storage.Backend)
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)

	// Игровой цикл блокируется до сигнала завершения
	session.Run(ctx, cfg.Server.GetFrameRate())

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Получен сигнал завершения, останавливаем сервисы...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки REST API: %v", err)
	}
	if cfg.World.SaveOnExit {
		if err := session.Save(shutdownCtx); err != nil {
			logging.Error("❌ Не удалось сохранить мир: %v", err)
		}
	}

	logging.Info("👋 Сервер остановлен")
}

func setupLogging(cfg config.LoggingConfig) error {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	if cfg.Directory != "" {
		logging.LogDir = cfg.Directory
	}
	if cfg.FileLogs {
		if err := logging.InitDefaultLogger("server"); err != nil {
			return err
		}
		logging.GetLoggerManager().EnableFileLogs(true)
	}
	logging.SetDefaultLevel(level)
	return nil
}

func worldOptions(cfg *config.Config, store storage.Provider, bus eventbus.EventBus, reg prometheus.Registerer) []world.Option {
	opts := []world.Option{
		world.WithStorage(store),
		world.WithMetrics(reg),
		world.WithTracer(observability.Tracer("world")),
		world.WithInitialRadius(cfg.World.Streaming.InitialRadius),
	}
	if cfg.Storage.Namespace != "" {
		opts = append(opts, world.WithStorageKey(cfg.Storage.Namespace))
	}
	if bus != nil {
		opts = append(opts, world.WithEventBus(bus))
	}
	if s := cfg.World.Streaming; s.Async {
		opts = append(opts, world.WithAsyncGeneration(s.Budget, s.MaxQueued))
	}
	return opts
}
