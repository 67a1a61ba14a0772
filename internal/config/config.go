package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/world"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig          `yaml:"world"`
	Storage   storage.Config       `yaml:"storage"`
	EventBus  eventbus.Config      `yaml:"eventbus"`
	Server    ServerConfig         `yaml:"server"`
	Telemetry observability.Config `yaml:"telemetry"`
	Logging   LoggingConfig        `yaml:"logging"`
}

// WorldConfig - параметры генерации и стриминга
type WorldConfig struct {
	Params      world.Params    `yaml:"params"`
	Streaming   StreamingConfig `yaml:"streaming"`
	LoadOnStart bool            `yaml:"load_on_start"`
	SaveOnExit  bool            `yaml:"save_on_exit"`
}

// StreamingConfig - отложенная генерация чанков
type StreamingConfig struct {
	Async         bool          `yaml:"async"`
	Budget        time.Duration `yaml:"budget"`
	MaxQueued     int           `yaml:"max_queued"`
	InitialRadius int           `yaml:"initial_radius"` // -1 - равен дальности прорисовки
}

type ServerConfig struct {
	RESTPort  int `yaml:"rest_port"`
	FrameRate int `yaml:"frame_rate"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLogs  bool   `yaml:"file_logs"`
	Directory string `yaml:"directory"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Params: world.DefaultParams(),
			Streaming: StreamingConfig{
				Async:         true,
				Budget:        4 * time.Millisecond,
				MaxQueued:     64,
				InitialRadius: -1,
			},
			LoadOnStart: true,
			SaveOnExit:  true,
		},
		Storage: storage.Config{
			Backend:   "file",
			Dir:       "data",
			Namespace: world.DefaultStorageKey,
		},
		EventBus: eventbus.Config{
			Backend: "memory",
			Buffer:  1024,
		},
		Server: ServerConfig{
			FrameRate: 30,
		},
		Telemetry: observability.Config{
			ServiceName: "voxel-world",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Directory: "logs",
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// GetFrameRate возвращает частоту тиков мира
func (s *ServerConfig) GetFrameRate() int {
	if s.FrameRate > 0 {
		return s.FrameRate
	}
	return 30
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл поверх Default().
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}
	if err := cfg.World.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
