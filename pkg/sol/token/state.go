// Package token emulates the SPL token program: packed mint and token
// account layouts, the instruction subset the pool needs, and associated
// token address helpers.
package token

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Packed account sizes, byte-identical to the SPL token layouts.
const (
	MintSize    = 82
	AccountSize = 165
)

// Token account states.
const (
	StateUninitialized uint8 = 0
	StateInitialized   uint8 = 1
	StateFrozen        uint8 = 2
)

// Mint layout offsets.
const (
	mintAuthorityOptionOffset = 0
	mintAuthorityOffset       = 4
	mintSupplyOffset          = 36
	mintDecimalsOffset        = 44
	mintInitializedOffset     = 45
	mintFreezeOptionOffset    = 46
	mintFreezeAuthorityOffset = 50
)

// Token account layout offsets.
const (
	accMintOffset   = 0
	accOwnerOffset  = 32
	accAmountOffset = 64
	accStateOffset  = 108
)

// Mint is the unpacked SPL mint.
type Mint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

// DecodeMint unpacks the 82-byte mint layout.
func DecodeMint(data []byte) (Mint, error) {
	if len(data) != MintSize {
		return Mint{}, fmt.Errorf("%w: mint needs %d bytes, got %d", ErrInvalidAccountData, MintSize, len(data))
	}
	var m Mint
	m.MintAuthority = decodeCOptionKey(data[mintAuthorityOptionOffset:])
	m.Supply = binary.LittleEndian.Uint64(data[mintSupplyOffset:])
	m.Decimals = data[mintDecimalsOffset]
	m.IsInitialized = data[mintInitializedOffset] == 1
	m.FreezeAuthority = decodeCOptionKey(data[mintFreezeOptionOffset:])
	return m, nil
}

// Encode packs the mint back into its account data.
func (m Mint) Encode(data []byte) error {
	if len(data) != MintSize {
		return fmt.Errorf("%w: mint needs %d bytes, got %d", ErrInvalidAccountData, MintSize, len(data))
	}
	encodeCOptionKey(data[mintAuthorityOptionOffset:], m.MintAuthority)
	binary.LittleEndian.PutUint64(data[mintSupplyOffset:], m.Supply)
	data[mintDecimalsOffset] = m.Decimals
	if m.IsInitialized {
		data[mintInitializedOffset] = 1
	} else {
		data[mintInitializedOffset] = 0
	}
	encodeCOptionKey(data[mintFreezeOptionOffset:], m.FreezeAuthority)
	return nil
}

// Account is the unpacked SPL token account. Delegate and close-authority
// fields are carried opaquely; the pool never uses them.
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
	State  uint8
}

// DecodeAccount unpacks the 165-byte token account layout.
func DecodeAccount(data []byte) (Account, error) {
	if len(data) != AccountSize {
		return Account{}, fmt.Errorf("%w: token account needs %d bytes, got %d", ErrInvalidAccountData, AccountSize, len(data))
	}
	var a Account
	copy(a.Mint[:], data[accMintOffset:accMintOffset+32])
	copy(a.Owner[:], data[accOwnerOffset:accOwnerOffset+32])
	a.Amount = binary.LittleEndian.Uint64(data[accAmountOffset:])
	a.State = data[accStateOffset]
	return a, nil
}

// Encode packs the token account back into its account data.
func (a Account) Encode(data []byte) error {
	if len(data) != AccountSize {
		return fmt.Errorf("%w: token account needs %d bytes, got %d", ErrInvalidAccountData, AccountSize, len(data))
	}
	copy(data[accMintOffset:], a.Mint[:])
	copy(data[accOwnerOffset:], a.Owner[:])
	binary.LittleEndian.PutUint64(data[accAmountOffset:], a.Amount)
	data[accStateOffset] = a.State
	return nil
}

func decodeCOptionKey(data []byte) *solana.PublicKey {
	if binary.LittleEndian.Uint32(data[0:4]) == 0 {
		return nil
	}
	var key solana.PublicKey
	copy(key[:], data[4:36])
	return &key
}

func encodeCOptionKey(data []byte, key *solana.PublicKey) {
	if key == nil {
		binary.LittleEndian.PutUint32(data[0:4], 0)
		copy(data[4:36], make([]byte, 32))
		return
	}
	binary.LittleEndian.PutUint32(data[0:4], 1)
	copy(data[4:36], key[:])
}
