// Package pool is the account-model pool program. It owns the vaults and the
// LP mint through its pool PDA, and delegates all pricing to a plugin program
// invoked over CPI.
package pool

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// PoolStateSize is the borsh-serialized size of PoolState.
const PoolStateSize = 5*32 + 8 + 1 + 2*32

// PoolState is the pool PDA account layout. TotalLpSupply is a cache of the
// LP mint supply, kept in sync by checked updates on every mint and burn.
type PoolState struct {
	TokenMintA        solana.PublicKey
	TokenMintB        solana.PublicKey
	VaultA            solana.PublicKey
	VaultB            solana.PublicKey
	LpMint            solana.PublicKey
	TotalLpSupply     uint64
	Bump              uint8
	PluginProgramID   solana.PublicKey
	PluginStatePubkey solana.PublicKey
}

// DecodePoolState reads a PoolState from account data.
func DecodePoolState(data []byte) (PoolState, error) {
	var st PoolState
	if err := bin.NewBorshDecoder(data).Decode(&st); err != nil {
		return PoolState{}, fmt.Errorf("decoding pool state: %w", err)
	}
	return st, nil
}

// Encode writes the state into account data.
func (st PoolState) Encode(data []byte) error {
	if len(data) < PoolStateSize {
		return fmt.Errorf("%w: pool state needs %d bytes, got %d",
			ErrInvalidAccountData, PoolStateSize, len(data))
	}
	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(st); err != nil {
		return fmt.Errorf("encoding pool state: %w", err)
	}
	copy(data, buf.Bytes())
	return nil
}
