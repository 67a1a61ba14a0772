package storage

import (
	"context"
	"fmt"
)

// Config выбирает бэкенд хранилища снапшотов
type Config struct {
	Backend   string      `yaml:"backend"` // memory | file | badger | redis | sql | mongo
	Dir       string      `yaml:"dir"`     // каталог для file и badger
	Redis     RedisConfig `yaml:"redis"`
	SQL       SQLConfig   `yaml:"sql"`
	Mongo     MongoConfig `yaml:"mongo"`
	Compress  bool        `yaml:"compress"`  // zstd поверх бэкенда
	Namespace string      `yaml:"namespace"` // префикс ключей снапшота
}

// Open создаёт Provider по конфигурации
func Open(ctx context.Context, cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Backend {
	case "", "memory":
		p = NewMemoryStorage()
	case "file":
		p, err = NewFileStorage(defaultDir(cfg.Dir))
	case "badger":
		p, err = NewBadgerStorage(defaultDir(cfg.Dir))
	case "redis":
		rc := cfg.Redis
		if rc.Addr == "" {
			rc.Addr = DefaultRedisConfig().Addr
		}
		p, err = NewRedisStorage(ctx, &rc)
	case "sql":
		p, err = NewSQLStorage(ctx, cfg.SQL)
	case "mongo":
		p, err = NewMongoStorage(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранилища %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Compress {
		c, err := NewCompressedStorage(p)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		return c, nil
	}
	return p, nil
}

func defaultDir(dir string) string {
	if dir == "" {
		return "data"
	}
	return dir
}
