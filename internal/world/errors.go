package world

import "errors"

// Ошибки движка мира. Все восстанавливаемые: вызывающий код
// трактует их как "ничего не произошло" и продолжает работу.
var (
	// ErrOutOfBounds - координата вне локальной сетки чанка или вне высоты мира
	ErrOutOfBounds = errors.New("block coordinates out of bounds")
	// ErrChunkNotLoaded - чанк не загружен (обычная ситуация на краю стриминга)
	ErrChunkNotLoaded = errors.New("chunk not loaded")
	// ErrStorageUnavailable - хранилище отсутствует, недоступно или данные повреждены
	ErrStorageUnavailable = errors.New("world storage unavailable")
	// ErrInvalidBlock - неизвестный ID блока
	ErrInvalidBlock = errors.New("invalid block id")
	// ErrInvalidParams - некорректные параметры генерации
	ErrInvalidParams = errors.New("invalid world params")
)
