// Package bolt persists runtime snapshots in a single bbolt file.
package bolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.etcd.io/bbolt"

	"ammCore/internal/amm"
	"ammCore/internal/ledger"
	"ammCore/internal/runtime"
)

var (
	ErrDBClosed = errors.New("state database is closed")

	bucketMints    = []byte("mints")
	bucketAccounts = []byte("accounts")
	bucketConfigs  = []byte("configs")
	bucketMeta     = []byte("meta")

	keySeq = []byte("seq")
)

// StateDB stores the latest runtime Snapshot. Every Save replaces the
// previous snapshot in one transaction.
type StateDB struct {
	db   *bbolt.DB
	path string
}

func Open(path string) (*StateDB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}
	return &StateDB{db: db, path: path}, nil
}

func (s *StateDB) Path() string {
	return s.path
}

func (s *StateDB) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Save writes snap, replacing whatever was stored before.
func (s *StateDB) Save(snap runtime.Snapshot) error {
	if s.db == nil {
		return ErrDBClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := make(map[string]*bbolt.Bucket, 4)
		for _, name := range [][]byte{bucketMints, bucketAccounts, bucketConfigs, bucketMeta} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return fmt.Errorf("reset bucket %s: %w", name, err)
				}
			}
			b, err := tx.CreateBucket(name)
			if err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
			buckets[string(name)] = b
		}

		for _, m := range snap.Ledger.Mints {
			data, err := ledger.EncodeMint(m)
			if err != nil {
				return err
			}
			if err := buckets[string(bucketMints)].Put(m.Address[:], data); err != nil {
				return fmt.Errorf("put mint %s: %w", m.Address, err)
			}
		}
		for _, a := range snap.Ledger.Accounts {
			data, err := ledger.EncodeAccount(a)
			if err != nil {
				return err
			}
			if err := buckets[string(bucketAccounts)].Put(a.Address[:], data); err != nil {
				return fmt.Errorf("put account %s: %w", a.Address, err)
			}
		}
		for _, c := range snap.Pools {
			data, err := amm.EncodeConfig(c.Config)
			if err != nil {
				return err
			}
			if err := buckets[string(bucketConfigs)].Put(c.Address[:], data); err != nil {
				return fmt.Errorf("put config %s: %w", c.Address, err)
			}
		}

		seq := make([]byte, 8)
		binary.BigEndian.PutUint64(seq, snap.Seq)
		return buckets[string(bucketMeta)].Put(keySeq, seq)
	})
}

// Load reads the stored snapshot. ok is false when nothing was saved yet.
func (s *StateDB) Load() (snap runtime.Snapshot, ok bool, err error) {
	if s.db == nil {
		return runtime.Snapshot{}, false, ErrDBClosed
	}
	err = s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return nil
		}
		raw := meta.Get(keySeq)
		if len(raw) != 8 {
			return fmt.Errorf("corrupt seq: %d bytes", len(raw))
		}
		snap.Seq = binary.BigEndian.Uint64(raw)

		if err := forEach(tx, bucketMints, func(addr solana.PublicKey, v []byte) error {
			m, err := ledger.DecodeMint(addr, v)
			if err != nil {
				return err
			}
			snap.Ledger.Mints = append(snap.Ledger.Mints, m)
			return nil
		}); err != nil {
			return err
		}
		if err := forEach(tx, bucketAccounts, func(addr solana.PublicKey, v []byte) error {
			a, err := ledger.DecodeAccount(addr, v)
			if err != nil {
				return err
			}
			snap.Ledger.Accounts = append(snap.Ledger.Accounts, a)
			return nil
		}); err != nil {
			return err
		}
		if err := forEach(tx, bucketConfigs, func(addr solana.PublicKey, v []byte) error {
			cfg, err := amm.DecodeConfig(v)
			if err != nil {
				return fmt.Errorf("config %s: %w", addr, err)
			}
			snap.Pools = append(snap.Pools, amm.StoredConfig{Address: addr, Config: cfg})
			return nil
		}); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return runtime.Snapshot{}, false, fmt.Errorf("load state: %w", err)
	}
	return snap, ok, nil
}

// forEach visits a bucket in key order. Values are only valid inside fn.
func forEach(tx *bbolt.Tx, name []byte, fn func(solana.PublicKey, []byte) error) error {
	b := tx.Bucket(name)
	if b == nil {
		return fmt.Errorf("bucket %s not found", name)
	}
	return b.ForEach(func(k, v []byte) error {
		if len(k) != solana.PublicKeyLength {
			return fmt.Errorf("bucket %s: bad key length %d", name, len(k))
		}
		return fn(solana.PublicKeyFromBytes(k), v)
	})
}
