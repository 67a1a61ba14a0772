package storage

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressedStorage сжимает значения zstd поверх любого Provider
type CompressedStorage struct {
	inner   Provider
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCompressedStorage оборачивает inner
func NewCompressedStorage(inner Provider) (*CompressedStorage, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &CompressedStorage{inner: inner, encoder: enc, decoder: dec}, nil
}

func (c *CompressedStorage) Save(ctx context.Context, key string, data []byte) error {
	return c.inner.Save(ctx, key, c.encoder.EncodeAll(data, nil))
}

func (c *CompressedStorage) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := c.decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode %s: %w", key, err)
	}
	return data, nil
}

// Close закрывает кодеки и внутреннее хранилище
func (c *CompressedStorage) Close() error {
	c.decoder.Close()
	_ = c.encoder.Close()
	return c.inner.Close()
}
