package amm

import (
	"bytes"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// ConfigStore holds pool Configs keyed by their derived address.
type ConfigStore interface {
	Get(address solana.PublicKey) (Config, bool)
	Put(address solana.PublicKey, cfg Config)
	List() []StoredConfig
}

// StoredConfig pairs a Config with its address.
type StoredConfig struct {
	Address solana.PublicKey `json:"address"`
	Config  Config           `json:"config"`
}

// MemoryStore is a map-backed ConfigStore.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[solana.PublicKey]Config
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[solana.PublicKey]Config)}
}

func (s *MemoryStore) Get(address solana.PublicKey) (Config, bool) {
	s.mu.RLock()
	cfg, ok := s.data[address]
	s.mu.RUnlock()
	return cfg, ok
}

func (s *MemoryStore) Put(address solana.PublicKey, cfg Config) {
	s.mu.Lock()
	s.data[address] = cfg
	s.mu.Unlock()
}

// List returns every stored Config ordered by address.
func (s *MemoryStore) List() []StoredConfig {
	s.mu.RLock()
	out := make([]StoredConfig, 0, len(s.data))
	for addr, cfg := range s.data {
		out = append(out, StoredConfig{Address: addr, Config: cfg})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}

// Restore replaces the store contents with configs.
func (s *MemoryStore) Restore(configs []StoredConfig) {
	data := make(map[solana.PublicKey]Config, len(configs))
	for _, c := range configs {
		data[c.Address] = c.Config
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}
