package aggregate

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"ammCore/internal/ledger"
)

// MintSource resolves mint definitions. *ledger.Ledger satisfies it.
type MintSource interface {
	Mint(address solana.PublicKey) (ledger.Mint, error)
}

// DecimalsCache caches mint decimals by address.
type DecimalsCache struct {
	mu     sync.RWMutex
	data   map[solana.PublicKey]uint8
	source MintSource
}

func NewDecimalsCache(source MintSource) *DecimalsCache {
	return &DecimalsCache{data: make(map[solana.PublicKey]uint8), source: source}
}

func (c *DecimalsCache) Set(mint solana.PublicKey, decimals uint8) {
	c.mu.Lock()
	c.data[mint] = decimals
	c.mu.Unlock()
}

// Get returns the decimals of the mint named by address, asking the source
// on a miss.
func (c *DecimalsCache) Get(address string) (uint8, error) {
	mint, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid mint address %q: %w", address, err)
	}

	c.mu.RLock()
	decimals, ok := c.data[mint]
	c.mu.RUnlock()
	if ok {
		return decimals, nil
	}

	if c.source == nil {
		return 0, fmt.Errorf("no mint source for %s", mint)
	}
	m, err := c.source.Mint(mint)
	if err != nil {
		return 0, fmt.Errorf("load mint %s: %w", mint, err)
	}
	c.Set(mint, m.Decimals)
	return m.Decimals, nil
}
