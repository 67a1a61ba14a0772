package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// SQLConfig - настройки SQL-хранилища.
// Driver: "mysql" (MariaDB/MySQL) или "sqlite" (файл или ":memory:").
type SQLConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type sqlDialect struct {
	createTable string
	upsert      string
	selectOne   string
}

var sqlDialects = map[string]sqlDialect{
	"mysql": {
		createTable: `
			CREATE TABLE IF NOT EXISTS world_snapshots (
				snapshot_key VARCHAR(191) PRIMARY KEY,
				data         LONGBLOB     NOT NULL,
				updated_at   BIGINT       NOT NULL
			) ENGINE=InnoDB`,
		upsert: `
			INSERT INTO world_snapshots (snapshot_key, data, updated_at)
			VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)`,
		selectOne: `SELECT data FROM world_snapshots WHERE snapshot_key = ?`,
	},
	"sqlite": {
		createTable: `
			CREATE TABLE IF NOT EXISTS world_snapshots (
				snapshot_key TEXT    PRIMARY KEY,
				data         BLOB    NOT NULL,
				updated_at   INTEGER NOT NULL
			)`,
		upsert: `
			INSERT INTO world_snapshots (snapshot_key, data, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(snapshot_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		selectOne: `SELECT data FROM world_snapshots WHERE snapshot_key = ?`,
	},
}

// SQLStorage хранит снапшоты в таблице world_snapshots
type SQLStorage struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLStorage подключается к базе и создаёт таблицу, если её нет
func NewSQLStorage(ctx context.Context, cfg SQLConfig) (*SQLStorage, error) {
	dialect, ok := sqlDialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("неизвестный SQL драйвер %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с %s: %w", cfg.Driver, err)
	}

	if _, err := db.ExecContext(ctx, dialect.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы world_snapshots: %w", err)
	}

	return &SQLStorage{db: db, dialect: dialect}, nil
}

func (s *SQLStorage) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, data, time.Now().Unix()); err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", key, err)
	}
	return nil
}

func (s *SQLStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.dialect.selectOne, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки %s: %w", key, err)
	}
	return data, nil
}

// Close закрывает пул соединений
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
