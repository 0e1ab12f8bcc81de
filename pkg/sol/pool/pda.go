package pool

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/dexforge/cpamm/pkg/sol/runtime"
	"github.com/dexforge/cpamm/pkg/sol/token"
)

var poolSeedPrefix = []byte("pool")

// sortMints orders two mints canonically, so either argument order derives
// the same pool address.
func sortMints(a, b solana.PublicKey) (solana.PublicKey, solana.PublicKey) {
	if bytes.Compare(a[:], b[:]) < 0 {
		return a, b
	}
	return b, a
}

// FindPoolAddress derives the pool PDA for a mint pair and plugin binding.
func FindPoolAddress(programID, mintA, mintB, pluginProgram, pluginState solana.PublicKey) (solana.PublicKey, uint8, error) {
	sortedA, sortedB := sortMints(mintA, mintB)
	addr, bump, err := solana.FindProgramAddress([][]byte{
		poolSeedPrefix,
		sortedA[:],
		sortedB[:],
		pluginProgram[:],
		pluginState[:],
	}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("deriving pool address: %w", err)
	}
	return addr, bump, nil
}

// poolSeeds returns the signing seeds for the pool PDA, bump included.
func poolSeeds(mintA, mintB, pluginProgram, pluginState solana.PublicKey, bump uint8) [][]byte {
	sortedA, sortedB := sortMints(mintA, mintB)
	return [][]byte{
		poolSeedPrefix,
		sortedA[:],
		sortedB[:],
		pluginProgram[:],
		pluginState[:],
		{bump},
	}
}

// validatePoolVault checks a vault account: it must be the associated token
// account of (pool PDA, mint), owned by the token program, initialized, with
// the PDA as internal owner and the expected mint.
func validatePoolVault(info runtime.AccountInfo, poolPDA, mint solana.PublicKey) error {
	expected, _, err := solana.FindAssociatedTokenAddress(poolPDA, mint)
	if err != nil {
		return fmt.Errorf("deriving vault address: %w", err)
	}
	if !info.Key.Equals(expected) {
		return fmt.Errorf("%w: expected %s, got %s", ErrIncorrectVaultATA, expected, info.Key)
	}
	if _, err := validateTokenAccountOwnedBy(info, poolPDA, mint); err != nil {
		if errors.Is(err, errTokenOwnerField) {
			return fmt.Errorf("%w: %s", ErrInvalidVaultOwner, info.Key)
		}
		return err
	}
	return nil
}

var errTokenOwnerField = errors.New("token account owner field mismatch")

// validateTokenAccountOwnedBy checks token-program ownership, initialization,
// the internal owner field, and the mint, returning the decoded account.
func validateTokenAccountOwnedBy(info runtime.AccountInfo, owner, mint solana.PublicKey) (token.Account, error) {
	if !info.Account.Owner.Equals(solana.TokenProgramID) {
		return token.Account{}, fmt.Errorf("%w: %s owned by %s", ErrInvalidAccountData, info.Key, info.Account.Owner)
	}
	acc, err := token.DecodeAccount(info.Account.Data)
	if err != nil {
		return token.Account{}, fmt.Errorf("%w: %s", ErrInvalidAccountData, info.Key)
	}
	if acc.State != token.StateInitialized {
		return token.Account{}, fmt.Errorf("%w: %s not initialized", ErrInvalidAccountData, info.Key)
	}
	if !acc.Owner.Equals(owner) {
		return token.Account{}, errTokenOwnerField
	}
	if !acc.Mint.Equals(mint) {
		return token.Account{}, fmt.Errorf("%w: %s holds %s, expected %s", ErrTokenMintMismatch, info.Key, acc.Mint, mint)
	}
	return acc, nil
}

// validateUserTokenAccount checks a user-owned token account for the given
// mint and returns its decoded form.
func validateUserTokenAccount(info runtime.AccountInfo, user, mint solana.PublicKey) (token.Account, error) {
	acc, err := validateTokenAccountOwnedBy(info, user, mint)
	if err != nil {
		if errors.Is(err, errTokenOwnerField) {
			return token.Account{}, fmt.Errorf("%w: %s not owned by user", ErrInvalidAccountData, info.Key)
		}
		return token.Account{}, err
	}
	return acc, nil
}

// validateMintBasic checks token-program ownership and initialization of a
// mint account and returns its decoded form.
func validateMintBasic(info runtime.AccountInfo) (token.Mint, error) {
	if !info.Account.Owner.Equals(solana.TokenProgramID) {
		return token.Mint{}, fmt.Errorf("%w: %s owned by %s", ErrInvalidAccountData, info.Key, info.Account.Owner)
	}
	mint, err := token.DecodeMint(info.Account.Data)
	if err != nil {
		return token.Mint{}, fmt.Errorf("%w: %s", ErrInvalidAccountData, info.Key)
	}
	if !mint.IsInitialized {
		return token.Mint{}, fmt.Errorf("%w: %s not initialized", ErrInvalidAccountData, info.Key)
	}
	return mint, nil
}

// validateLpMintProperties checks the mint authority is the pool PDA and no
// freeze authority is set.
func validateLpMintProperties(mint token.Mint, authority solana.PublicKey) error {
	if mint.MintAuthority == nil || !mint.MintAuthority.Equals(authority) {
		return fmt.Errorf("%w: expected %s", ErrInvalidMintAuthority, authority)
	}
	if mint.FreezeAuthority != nil {
		return ErrFreezeAuthoritySet
	}
	return nil
}

func validateLpMintZeroSupply(mint token.Mint) error {
	if mint.Supply != 0 {
		return fmt.Errorf("%w: supply %d", ErrNonZeroLpSupply, mint.Supply)
	}
	return nil
}

func validateProgramID(info runtime.AccountInfo, expected solana.PublicKey) error {
	if !info.Key.Equals(expected) {
		return fmt.Errorf("%w: expected %s, got %s", ErrIncorrectProgramID, expected, info.Key)
	}
	return nil
}

// validateExecutable checks the account is executable and loader-owned.
func validateExecutable(info runtime.AccountInfo) error {
	if !info.Account.Executable {
		return fmt.Errorf("%w: %s", ErrNotExecutable, info.Key)
	}
	if !info.Account.Owner.Equals(solana.BPFLoaderProgramID) &&
		!info.Account.Owner.Equals(solana.BPFLoaderUpgradeableProgramID) {
		return fmt.Errorf("%w: %s owned by %s", ErrInvalidAccountData, info.Key, info.Account.Owner)
	}
	return nil
}

func validateRentExemption(info runtime.AccountInfo) error {
	if !runtime.IsRentExempt(info.Account) {
		return fmt.Errorf("%w: %s", ErrNotRentExempt, info.Key)
	}
	return nil
}
