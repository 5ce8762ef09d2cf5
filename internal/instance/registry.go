package instance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tillkruss/ruddarr/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketInstances = []byte("instances")
	bucketSelection = []byte("selection")
)

// Registry implements domain.InstanceStore using BoltDB.
type Registry struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

var _ domain.InstanceStore = (*Registry)(nil)

// NewRegistry opens the registry database at path.
// An empty path keeps everything in memory.
func NewRegistry(path string) (*Registry, error) {
	if path == "" {
		return &Registry{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketInstances, bucketSelection} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Registry{db: db, cache: make(map[string][]byte)}, nil
}

func (r *Registry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (r *Registry) get(bucket []byte, key string) ([]byte, bool) {
	cacheKey := string(bucket) + ":" + key

	r.mu.RLock()
	if data, ok := r.cache[cacheKey]; ok {
		r.mu.RUnlock()
		return data, true
	}
	r.mu.RUnlock()

	if r.db == nil {
		return nil, false
	}

	var data []byte
	r.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil, false
	}

	// Promote to memory cache
	r.mu.Lock()
	r.cache[cacheKey] = data
	r.mu.Unlock()

	return data, true
}

func (r *Registry) set(bucket []byte, key string, data []byte) error {
	r.mu.Lock()
	r.cache[string(bucket)+":"+key] = data
	r.mu.Unlock()

	if r.db == nil {
		return nil // Memory-only mode
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (r *Registry) delete(bucket []byte, key string) error {
	r.mu.Lock()
	delete(r.cache, string(bucket)+":"+key)
	r.mu.Unlock()

	if r.db == nil {
		return nil
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// === Instances ===

// List returns every instance ordered by type, then label
func (r *Registry) List() ([]domain.Instance, error) {
	var instances []domain.Instance

	if r.db == nil {
		r.mu.RLock()
		prefix := string(bucketInstances) + ":"
		for k, v := range r.cache {
			if len(k) > len(prefix) && k[:len(prefix)] == prefix {
				var inst domain.Instance
				if err := json.Unmarshal(v, &inst); err != nil {
					r.mu.RUnlock()
					return nil, err
				}
				instances = append(instances, inst)
			}
		}
		r.mu.RUnlock()
	} else {
		err := r.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketInstances).ForEach(func(_, v []byte) error {
				var inst domain.Instance
				if err := json.Unmarshal(v, &inst); err != nil {
					return err
				}
				instances = append(instances, inst)
				return nil
			})
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(instances, func(i, j int) bool {
		if instances[i].Type != instances[j].Type {
			return instances[i].Type < instances[j].Type
		}
		return instances[i].Label < instances[j].Label
	})
	return instances, nil
}

// Get returns the instance with the given id
func (r *Registry) Get(id string) (domain.Instance, error) {
	data, ok := r.get(bucketInstances, id)
	if !ok {
		return domain.Instance{}, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, id)
	}
	var inst domain.Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return domain.Instance{}, err
	}
	return inst, nil
}

// Save creates or updates an instance
func (r *Registry) Save(inst domain.Instance) error {
	if inst.ID == "" {
		return fmt.Errorf("instance has no id")
	}
	data, err := json.Marshal(inst)
	if err != nil {
		return err
	}
	return r.set(bucketInstances, inst.ID, data)
}

// Delete removes an instance and clears it from the selection
func (r *Registry) Delete(id string) error {
	inst, err := r.Get(id)
	if err != nil {
		return err
	}

	if selected, ok := r.get(bucketSelection, string(inst.Type)); ok && string(selected) == id {
		if err := r.delete(bucketSelection, string(inst.Type)); err != nil {
			return err
		}
	}

	return r.delete(bucketInstances, id)
}

// === Selection ===

// Selected returns the selected instance of a type. Without an explicit
// selection the first instance of that type is used.
func (r *Registry) Selected(t domain.InstanceType) (domain.Instance, error) {
	if id, ok := r.get(bucketSelection, string(t)); ok {
		if inst, err := r.Get(string(id)); err == nil {
			return inst, nil
		}
	}

	instances, err := r.List()
	if err != nil {
		return domain.Instance{}, err
	}
	for _, inst := range instances {
		if inst.Type == t {
			return inst, nil
		}
	}
	return domain.Instance{}, fmt.Errorf("%w: %s", domain.ErrNoInstance, t)
}

// Select marks an instance as the active one for its type
func (r *Registry) Select(t domain.InstanceType, id string) error {
	inst, err := r.Get(id)
	if err != nil {
		return err
	}
	if inst.Type != t {
		return fmt.Errorf("instance %s is a %s instance", inst.Label, inst.Type.DisplayName())
	}
	return r.set(bucketSelection, string(t), []byte(id))
}
