package stash

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/stash/pkg/adapters/badger"
	"github.com/aretw0/stash/pkg/adapters/buntdb"
	"github.com/aretw0/stash/pkg/adapters/file"
	"github.com/aretw0/stash/pkg/adapters/memory"
	"github.com/aretw0/stash/pkg/adapters/redis"
	"github.com/aretw0/stash/pkg/ports"
)

// BackendFactory opens a record store from cfg. The locker is optional and
// coordinates garbage collection across replicas sharing the store.
type BackendFactory func(cfg Config) (ports.RecordStore, ports.DistributedLocker, error)

var backends = struct {
	mu        sync.RWMutex
	factories map[string]BackendFactory
}{factories: make(map[string]BackendFactory)}

// RegisterBackend makes a backend selectable through Config.Backend.
// Registering an existing name replaces it.
func RegisterBackend(name string, factory BackendFactory) {
	backends.mu.Lock()
	defer backends.mu.Unlock()
	backends.factories[name] = factory
}

// Backends lists the registered backend names, sorted.
func Backends() []string {
	backends.mu.RLock()
	defer backends.mu.RUnlock()
	names := make([]string, 0, len(backends.factories))
	for name := range backends.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookupBackend(name string) (BackendFactory, bool) {
	backends.mu.RLock()
	defer backends.mu.RUnlock()
	f, ok := backends.factories[name]
	return f, ok
}

// OpenRecordStore opens the record store selected by cfg.Backend.
// For the redis backend it also returns a locker sharing the client;
// the built-in embedded backends return a nil locker.
func OpenRecordStore(cfg Config) (ports.RecordStore, ports.DistributedLocker, error) {
	factory, ok := lookupBackend(cfg.Backend)
	if !ok {
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return factory(cfg)
}

func init() {
	RegisterBackend(BackendMemory, func(Config) (ports.RecordStore, ports.DistributedLocker, error) {
		return memory.NewStore(), nil, nil
	})
	RegisterBackend(BackendFile, func(cfg Config) (ports.RecordStore, ports.DistributedLocker, error) {
		return file.New(cfg.Path), nil, nil
	})
	RegisterBackend(BackendRedis, func(cfg Config) (ports.RecordStore, ports.DistributedLocker, error) {
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix))
		return store, redis.NewLocker(store.Client(), cfg.Redis.Prefix), nil
	})
	RegisterBackend(BackendBuntDB, func(cfg Config) (ports.RecordStore, ports.DistributedLocker, error) {
		store, err := buntdb.Open(cfg.Path)
		return store, nil, err
	})
	RegisterBackend(BackendBadger, func(cfg Config) (ports.RecordStore, ports.DistributedLocker, error) {
		store, err := badger.Open(cfg.Path)
		return store, nil, err
	})
}
