package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meltforce/mapty/internal/config"
)

var (
	// ErrKeyNotFound is returned by KV.Get when the key has never been written.
	ErrKeyNotFound = errors.New("key not found")
	// ErrConflict is returned by KV.CompareAndSwap when the stored value changed.
	ErrConflict = errors.New("value changed concurrently")
)

// KV is the key-value collaborator that holds the persisted store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// CompareAndSwap writes value only while the stored value equals old.
	// A nil old means the key must be absent.
	CompareAndSwap(ctx context.Context, key string, old, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (KV, error) {
	switch cfg.Driver {
	case "sqlite":
		kv, err := OpenSQLite(cfg.SQLite.Dir)
		if err != nil {
			return nil, err
		}
		log.Info("storage ready", "driver", "sqlite", "dir", cfg.SQLite.Dir)
		return kv, nil
	case "postgres":
		dsn := cfg.Postgres.DSN()
		if err := RunMigrations(dsn, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		kv, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("storage ready", "driver", "postgres", "host", cfg.Postgres.Host)
		return kv, nil
	case "redis":
		kv, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("storage ready", "driver", "redis", "addr", cfg.Redis.Addr)
		return kv, nil
	case "memory":
		log.Warn("storage is in-memory; workouts are lost on exit")
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// Memory is a process-local KV.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) CompareAndSwap(_ context.Context, key string, old, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[key]
	if ok != (old != nil) || !bytes.Equal(cur, old) {
		return ErrConflict
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }
