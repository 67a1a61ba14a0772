package eventbus

import (
	"fmt"
	"time"
)

// Config выбирает реализацию шины
type Config struct {
	Backend   string        `yaml:"backend"` // memory | jetstream | none
	Buffer    int           `yaml:"buffer"`
	URL       string        `yaml:"url"`
	Stream    string        `yaml:"stream"`
	Retention time.Duration `yaml:"retention"`
}

// Open создаёт шину по конфигурации. Backend "none" - шина не нужна, возвращается nil.
func Open(cfg Config) (EventBus, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryBus(cfg.Buffer), nil
	case "jetstream":
		retention := cfg.Retention
		if retention <= 0 {
			retention = 24 * time.Hour
		}
		return NewJetStreamBus(cfg.URL, cfg.Stream, retention)
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("неизвестная шина событий %q", cfg.Backend)
}
