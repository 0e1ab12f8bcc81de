package token

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/dexforge/cpamm/pkg/sol/runtime"
)

// Instruction tags, matching the SPL token program ABI.
const (
	tagInitializeMint    uint8 = 0
	tagInitializeAccount uint8 = 1
	tagTransfer          uint8 = 3
	tagMintTo            uint8 = 7
	tagBurn              uint8 = 8
)

// Program implements the token program against the runtime host.
type Program struct{}

// Register installs the token program at its well-known address.
func Register(rt *runtime.Runtime) {
	rt.RegisterProgram(solana.TokenProgramID, Program{})
}

func (Program) Execute(ctx *runtime.Ctx, accounts []runtime.AccountInfo, data []byte) error {
	if len(data) < 1 {
		return ErrInvalidInstruction
	}
	switch data[0] {
	case tagInitializeMint:
		return processInitializeMint(accounts, data[1:])
	case tagInitializeAccount:
		return processInitializeAccount(accounts)
	case tagTransfer:
		return processTransfer(accounts, data[1:])
	case tagMintTo:
		return processMintTo(accounts, data[1:])
	case tagBurn:
		return processBurn(accounts, data[1:])
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidInstruction, data[0])
	}
}

func processInitializeMint(accounts []runtime.AccountInfo, data []byte) error {
	if len(accounts) < 2 {
		return ErrInvalidInstruction
	}
	// data: decimals u8, mint authority key, freeze authority option
	if len(data) < 1+32+1 {
		return ErrInvalidInstruction
	}
	mintAcc := accounts[0].Account
	if err := requireTokenOwned(accounts[0]); err != nil {
		return err
	}
	if !runtime.IsRentExempt(mintAcc) {
		return fmt.Errorf("%w: %s", ErrNotRentExempt, accounts[0].Key)
	}
	if existing, err := DecodeMint(mintAcc.Data); err != nil {
		return err
	} else if existing.IsInitialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, accounts[0].Key)
	}

	var authority solana.PublicKey
	copy(authority[:], data[1:33])
	m := Mint{
		MintAuthority: &authority,
		Decimals:      data[0],
		IsInitialized: true,
	}
	if data[33] == 1 {
		if len(data) < 1+32+1+32 {
			return ErrInvalidInstruction
		}
		var freeze solana.PublicKey
		copy(freeze[:], data[34:66])
		m.FreezeAuthority = &freeze
	}
	return m.Encode(mintAcc.Data)
}

func processInitializeAccount(accounts []runtime.AccountInfo) error {
	if len(accounts) < 3 {
		return ErrInvalidInstruction
	}
	tokenAcc, mintInfo, ownerInfo := accounts[0], accounts[1], accounts[2]
	if err := requireTokenOwned(tokenAcc); err != nil {
		return err
	}
	if !runtime.IsRentExempt(tokenAcc.Account) {
		return fmt.Errorf("%w: %s", ErrNotRentExempt, tokenAcc.Key)
	}
	if existing, err := DecodeAccount(tokenAcc.Account.Data); err != nil {
		return err
	} else if existing.State != StateUninitialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, tokenAcc.Key)
	}
	if _, err := decodeMintChecked(mintInfo); err != nil {
		return err
	}

	a := Account{
		Mint:  mintInfo.Key,
		Owner: ownerInfo.Key,
		State: StateInitialized,
	}
	return a.Encode(tokenAcc.Account.Data)
}

func processTransfer(accounts []runtime.AccountInfo, data []byte) error {
	if len(accounts) < 3 || len(data) < 8 {
		return ErrInvalidInstruction
	}
	srcInfo, dstInfo, authInfo := accounts[0], accounts[1], accounts[2]
	amount := binary.LittleEndian.Uint64(data[0:8])

	src, err := decodeAccountChecked(srcInfo)
	if err != nil {
		return err
	}
	dst, err := decodeAccountChecked(dstInfo)
	if err != nil {
		return err
	}
	if err := requireAuthority(src.Owner, authInfo); err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%w: %s vs %s", ErrMintMismatch, src.Mint, dst.Mint)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, srcInfo.Key, src.Amount, amount)
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := src.Encode(srcInfo.Account.Data); err != nil {
		return err
	}
	return dst.Encode(dstInfo.Account.Data)
}

func processMintTo(accounts []runtime.AccountInfo, data []byte) error {
	if len(accounts) < 3 || len(data) < 8 {
		return ErrInvalidInstruction
	}
	mintInfo, destInfo, authInfo := accounts[0], accounts[1], accounts[2]
	amount := binary.LittleEndian.Uint64(data[0:8])

	mint, err := decodeMintChecked(mintInfo)
	if err != nil {
		return err
	}
	if mint.MintAuthority == nil {
		return ErrFixedSupply
	}
	if err := requireAuthority(*mint.MintAuthority, authInfo); err != nil {
		return err
	}
	dest, err := decodeAccountChecked(destInfo)
	if err != nil {
		return err
	}
	if !dest.Mint.Equals(mintInfo.Key) {
		return fmt.Errorf("%w: %s", ErrMintMismatch, destInfo.Key)
	}

	mint.Supply += amount
	dest.Amount += amount
	if err := mint.Encode(mintInfo.Account.Data); err != nil {
		return err
	}
	return dest.Encode(destInfo.Account.Data)
}

func processBurn(accounts []runtime.AccountInfo, data []byte) error {
	if len(accounts) < 3 || len(data) < 8 {
		return ErrInvalidInstruction
	}
	accInfo, mintInfo, authInfo := accounts[0], accounts[1], accounts[2]
	amount := binary.LittleEndian.Uint64(data[0:8])

	acc, err := decodeAccountChecked(accInfo)
	if err != nil {
		return err
	}
	mint, err := decodeMintChecked(mintInfo)
	if err != nil {
		return err
	}
	if !acc.Mint.Equals(mintInfo.Key) {
		return fmt.Errorf("%w: %s", ErrMintMismatch, accInfo.Key)
	}
	if err := requireAuthority(acc.Owner, authInfo); err != nil {
		return err
	}
	if acc.Amount < amount {
		return fmt.Errorf("%w: %s has %d, burning %d", ErrInsufficientFunds, accInfo.Key, acc.Amount, amount)
	}
	acc.Amount -= amount
	mint.Supply -= amount
	if err := acc.Encode(accInfo.Account.Data); err != nil {
		return err
	}
	return mint.Encode(mintInfo.Account.Data)
}

func requireTokenOwned(info runtime.AccountInfo) error {
	if !info.Account.Owner.Equals(solana.TokenProgramID) {
		return fmt.Errorf("%w: %s", ErrNotOwnedByTokenProg, info.Key)
	}
	return nil
}

func requireAuthority(expected solana.PublicKey, authInfo runtime.AccountInfo) error {
	if !authInfo.Key.Equals(expected) {
		return fmt.Errorf("%w: %s", ErrOwnerMismatch, authInfo.Key)
	}
	if !authInfo.IsSigner {
		return fmt.Errorf("%w: %s", runtime.ErrMissingSignature, authInfo.Key)
	}
	return nil
}

func decodeAccountChecked(info runtime.AccountInfo) (Account, error) {
	if err := requireTokenOwned(info); err != nil {
		return Account{}, err
	}
	acc, err := DecodeAccount(info.Account.Data)
	if err != nil {
		return Account{}, err
	}
	if acc.State != StateInitialized {
		return Account{}, fmt.Errorf("%w: %s", ErrUninitialized, info.Key)
	}
	return acc, nil
}

func decodeMintChecked(info runtime.AccountInfo) (Mint, error) {
	if err := requireTokenOwned(info); err != nil {
		return Mint{}, err
	}
	mint, err := DecodeMint(info.Account.Data)
	if err != nil {
		return Mint{}, err
	}
	if !mint.IsInitialized {
		return Mint{}, fmt.Errorf("%w: %s", ErrUninitialized, info.Key)
	}
	return mint, nil
}
