package storage

import (
	"context"
	"errors"
)

// ErrNotFound возвращается Load, если ключ отсутствует
var ErrNotFound = errors.New("storage: key not found")

// Provider определяет хранилище снапшотов мира: непрозрачные байты по строковому ключу.
// Реализации должны быть безопасны для вызова из нескольких горутин.
type Provider interface {
	// Save записывает данные по ключу, заменяя прежние.
	Save(ctx context.Context, key string, data []byte) error

	// Load читает данные по ключу. Отсутствующий ключ - ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Close освобождает соединения и файлы.
	Close() error
}
