package middleware

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/klauspost/compress/zstd"
)

// DefaultMinSize is the smallest value NewCompressionMiddleware compresses.
const DefaultMinSize = 512

// zstdMagic starts every zstd frame. JSON records never start with it, so
// compressed and plain values can share a store.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// CompressionConfig tunes NewCompressionMiddleware.
type CompressionConfig struct {
	// MinSize leaves smaller values uncompressed. Zero means DefaultMinSize.
	MinSize int

	// Level is the zstd encoder level. Zero means zstd.SpeedDefault.
	Level zstd.EncoderLevel
}

type compressedStore struct {
	next    ports.RecordStore
	minSize int
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// NewCompressionMiddleware creates a middleware that stores large values as
// zstd frames. Values written before compression was enabled stay readable.
func NewCompressionMiddleware(config CompressionConfig) (Middleware, error) {
	if config.MinSize <= 0 {
		config.MinSize = DefaultMinSize
	}
	if config.Level == 0 {
		config.Level = zstd.SpeedDefault
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(config.Level))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return func(next ports.RecordStore) ports.RecordStore {
		return &compressedStore{next: next, minSize: config.MinSize, enc: enc, dec: dec}
	}, nil
}

// Get returns domain.ErrMalformedPayload when a stored frame is corrupt.
func (s *compressedStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	value, err := s.expand(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrMalformedPayload, key, err)
	}
	return value, nil
}

func (s *compressedStore) Insert(ctx context.Context, key string, value []byte) error {
	return s.next.Insert(ctx, key, s.shrink(value))
}

func (s *compressedStore) Update(ctx context.Context, key string, value []byte) error {
	return s.next.Update(ctx, key, s.shrink(value))
}

func (s *compressedStore) Delete(ctx context.Context, keys ...string) error {
	return s.next.Delete(ctx, keys...)
}

// Scan yields a nil value for corrupt frames, which the handler treats as
// malformed.
func (s *compressedStore) Scan(ctx context.Context, prefix, after string, limit int) ([]ports.Record, error) {
	records, err := s.next.Scan(ctx, prefix, after, limit)
	if err != nil {
		return nil, err
	}
	for i, r := range records {
		value, err := s.expand(r.Value)
		if err != nil {
			value = nil
		}
		records[i].Value = value
	}
	return records, nil
}

func (s *compressedStore) Close() error {
	return s.next.Close()
}

func (s *compressedStore) shrink(value []byte) []byte {
	if len(value) < s.minSize {
		return value
	}
	return s.enc.EncodeAll(value, make([]byte, 0, len(value)/2))
}

func (s *compressedStore) expand(raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, zstdMagic) {
		return raw, nil
	}
	return s.dec.DecodeAll(raw, nil)
}
