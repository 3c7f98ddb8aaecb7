package amm

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"ammCore/internal/ledger"
)

var (
	configSeedPrefix = []byte("config")
	lpSeedPrefix     = []byte("lp")
)

// PoolAddresses holds every address derived from a pool seed.
type PoolAddresses struct {
	Config     solana.PublicKey
	ConfigBump uint8
	LPMint     solana.PublicKey
	LPBump     uint8
	VaultX     solana.PublicKey
	VaultY     solana.PublicKey
}

func seedBytes(seed uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, seed)
	return out
}

// DeriveConfig returns the Config address for seed under programID.
func DeriveConfig(programID solana.PublicKey, seed uint64) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{configSeedPrefix, seedBytes(seed)}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive config: %w", err)
	}
	return addr, bump, nil
}

// DeriveLPMint returns the LP mint address for seed under programID.
func DeriveLPMint(programID solana.PublicKey, seed uint64) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{lpSeedPrefix, seedBytes(seed)}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive lp mint: %w", err)
	}
	return addr, bump, nil
}

// DeriveVault returns the pool-owned token account for mint.
func DeriveVault(config, mint solana.PublicKey) (solana.PublicKey, error) {
	return ledger.AccountAddress(config, mint)
}

// DerivePool derives the full address set of a pool.
func DerivePool(programID solana.PublicKey, seed uint64, mintX, mintY solana.PublicKey) (PoolAddresses, error) {
	config, configBump, err := DeriveConfig(programID, seed)
	if err != nil {
		return PoolAddresses{}, err
	}
	lpMint, lpBump, err := DeriveLPMint(programID, seed)
	if err != nil {
		return PoolAddresses{}, err
	}
	vaultX, err := DeriveVault(config, mintX)
	if err != nil {
		return PoolAddresses{}, err
	}
	vaultY, err := DeriveVault(config, mintY)
	if err != nil {
		return PoolAddresses{}, err
	}
	return PoolAddresses{
		Config:     config,
		ConfigBump: configBump,
		LPMint:     lpMint,
		LPBump:     lpBump,
		VaultX:     vaultX,
		VaultY:     vaultY,
	}, nil
}

// poolAddresses re-derives the addresses of an existing Config from its
// stored bumps.
func poolAddresses(programID solana.PublicKey, cfg Config) (PoolAddresses, error) {
	seed := seedBytes(cfg.Seed)
	config, err := solana.CreateProgramAddress([][]byte{configSeedPrefix, seed, {cfg.ConfigBump}}, programID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("create config address: %w", err)
	}
	lpMint, err := solana.CreateProgramAddress([][]byte{lpSeedPrefix, seed, {cfg.LPBump}}, programID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("create lp mint address: %w", err)
	}
	vaultX, err := DeriveVault(config, cfg.MintX)
	if err != nil {
		return PoolAddresses{}, err
	}
	vaultY, err := DeriveVault(config, cfg.MintY)
	if err != nil {
		return PoolAddresses{}, err
	}
	return PoolAddresses{
		Config:     config,
		ConfigBump: cfg.ConfigBump,
		LPMint:     lpMint,
		LPBump:     cfg.LPBump,
		VaultX:     vaultX,
		VaultY:     vaultY,
	}, nil
}
