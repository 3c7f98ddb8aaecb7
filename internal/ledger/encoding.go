package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// MintSize and AccountSize are the encoded lengths of Mint and Account data.
// The address is not part of the data; it keys the record.
const (
	MintSize    = 32 + 1 + 8
	AccountSize = 32 + 32 + 8
)

// EncodeMint returns the account data of m.
func EncodeMint(m Mint) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(m.Authority[:], false); err != nil {
		return nil, fmt.Errorf("encode mint: %w", err)
	}
	if err := enc.WriteUint8(m.Decimals); err != nil {
		return nil, fmt.Errorf("encode mint: %w", err)
	}
	if err := enc.WriteUint64(m.Supply, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("encode mint: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMint parses mint data stored under address.
func DecodeMint(address solana.PublicKey, data []byte) (Mint, error) {
	if len(data) != MintSize {
		return Mint{}, fmt.Errorf("decode mint %s: %d bytes, want %d", address, len(data), MintSize)
	}
	dec := bin.NewBorshDecoder(data)
	m := Mint{Address: address}
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return Mint{}, fmt.Errorf("decode mint authority: %w", err)
	}
	m.Authority = solana.PublicKeyFromBytes(raw)
	if m.Decimals, err = dec.ReadUint8(); err != nil {
		return Mint{}, fmt.Errorf("decode mint decimals: %w", err)
	}
	if m.Supply, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return Mint{}, fmt.Errorf("decode mint supply: %w", err)
	}
	return m, nil
}

// EncodeAccount returns the account data of a.
func EncodeAccount(a Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(a.Mint[:], false); err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	if err := enc.WriteBytes(a.Owner[:], false); err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	if err := enc.WriteUint64(a.Amount, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeAccount parses token account data stored under address.
func DecodeAccount(address solana.PublicKey, data []byte) (Account, error) {
	if len(data) != AccountSize {
		return Account{}, fmt.Errorf("decode account %s: %d bytes, want %d", address, len(data), AccountSize)
	}
	dec := bin.NewBorshDecoder(data)
	a := Account{Address: address}
	mint, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return Account{}, fmt.Errorf("decode account mint: %w", err)
	}
	owner, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return Account{}, fmt.Errorf("decode account owner: %w", err)
	}
	a.Mint = solana.PublicKeyFromBytes(mint)
	a.Owner = solana.PublicKeyFromBytes(owner)
	if a.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return Account{}, fmt.Errorf("decode account amount: %w", err)
	}
	return a, nil
}
