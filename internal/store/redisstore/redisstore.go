package redisstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	redis "github.com/redis/go-redis/v9"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/store"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Store keeps the snapshot under a single Redis key, zstd compressed.
// Plain JSON values written by other tools are still readable.
type Store struct {
	client *redis.Client
	key    string
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

func New(addr string, password string, db int, key string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return newWithClient(client, key)
}

func newWithClient(client *redis.Client, key string) (*Store, error) {
	if key == "" {
		key = store.DefaultKey
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &Store{client: client, key: key, enc: enc, dec: dec}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	s.dec.Close()
	_ = s.enc.Close()
	return s.client.Close()
}

func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, err
	}

	if bytes.HasPrefix(val, zstdMagic) {
		val, err = s.dec.DecodeAll(val, nil)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
		}
	}
	return store.Decode(val)
}

func (s *Store) Save(ctx context.Context, snapshot domain.Snapshot) error {
	payload, err := store.Encode(snapshot)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, s.enc.EncodeAll(payload, nil), 0).Err()
}
