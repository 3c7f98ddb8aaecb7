package amm

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// MaxFeeBps is the exclusive upper bound for a pool fee (100%).
const MaxFeeBps = 10_000

// ConfigDiscriminator prefixes every encoded Config account.
var ConfigDiscriminator = discriminator("account", "Config")

// Config is the per-pool record. Field order is the on-ledger layout.
type Config struct {
	Seed       uint64            `json:"seed"`
	Authority  *solana.PublicKey `json:"authority"`
	MintX      solana.PublicKey  `json:"mint_x"`
	MintY      solana.PublicKey  `json:"mint_y"`
	FeeBps     uint16            `json:"fee_bps"`
	Locked     bool              `json:"locked"`
	ConfigBump uint8             `json:"config_bump"`
	LPBump     uint8             `json:"lp_bump"`
}

// HasAuthority reports whether signer may toggle the lock.
func (c Config) HasAuthority(signer solana.PublicKey) bool {
	return c.Authority != nil && c.Authority.Equals(signer)
}

// MarshalWithEncoder writes the discriminator followed by the Borsh fields.
func (c Config) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(ConfigDiscriminator[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint64(c.Seed, binary.LittleEndian); err != nil {
		return err
	}
	if err := writeOptionalKey(enc, c.Authority); err != nil {
		return err
	}
	if err := enc.WriteBytes(c.MintX[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(c.MintY[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint16(c.FeeBps, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteBool(c.Locked); err != nil {
		return err
	}
	if err := enc.WriteUint8(c.ConfigBump); err != nil {
		return err
	}
	return enc.WriteUint8(c.LPBump)
}

// UnmarshalWithDecoder reads a Config, rejecting foreign discriminators.
func (c *Config) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	disc, err := dec.ReadNBytes(8)
	if err != nil {
		return fmt.Errorf("read discriminator: %w", err)
	}
	if !bytes.Equal(disc, ConfigDiscriminator[:]) {
		return fmt.Errorf("invalid discriminator for Config: %x", disc)
	}
	if c.Seed, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	if c.Authority, err = readOptionalKey(dec); err != nil {
		return fmt.Errorf("read authority: %w", err)
	}
	if c.MintX, err = readKey(dec); err != nil {
		return fmt.Errorf("read mint_x: %w", err)
	}
	if c.MintY, err = readKey(dec); err != nil {
		return fmt.Errorf("read mint_y: %w", err)
	}
	if c.FeeBps, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return fmt.Errorf("read fee: %w", err)
	}
	if c.Locked, err = dec.ReadBool(); err != nil {
		return fmt.Errorf("read locked: %w", err)
	}
	if c.ConfigBump, err = dec.ReadUint8(); err != nil {
		return fmt.Errorf("read config_bump: %w", err)
	}
	if c.LPBump, err = dec.ReadUint8(); err != nil {
		return fmt.Errorf("read lp_bump: %w", err)
	}
	return nil
}

// EncodeConfig returns the account data for cfg.
func EncodeConfig(cfg Config) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := cfg.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeConfig parses Config account data.
func DecodeConfig(data []byte) (Config, error) {
	var cfg Config
	if err := cfg.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func discriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

func writeOptionalKey(enc *bin.Encoder, key *solana.PublicKey) error {
	if key == nil {
		return enc.WriteBool(false)
	}
	if err := enc.WriteBool(true); err != nil {
		return err
	}
	return enc.WriteBytes(key[:], false)
}

func readOptionalKey(dec *bin.Decoder) (*solana.PublicKey, error) {
	present, err := dec.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	key, err := readKey(dec)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}
