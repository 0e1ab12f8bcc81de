package pool

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/dexforge/cpamm/pkg/sol/plugin"
	"github.com/dexforge/cpamm/pkg/sol/runtime"
	"github.com/dexforge/cpamm/pkg/sol/token"
)

// Addresses groups the derived accounts of one pool.
type Addresses struct {
	Pool   solana.PublicKey
	VaultA solana.PublicKey
	VaultB solana.PublicKey
	LpMint solana.PublicKey
	Bump   uint8
}

// DeriveAddresses computes the pool PDA and its vault associated token
// accounts for a mint pair and plugin binding.
func DeriveAddresses(programID, mintA, mintB, pluginProgram, pluginState solana.PublicKey) (Addresses, error) {
	poolPDA, bump, err := FindPoolAddress(programID, mintA, mintB, pluginProgram, pluginState)
	if err != nil {
		return Addresses{}, err
	}
	vaultA, _, err := solana.FindAssociatedTokenAddress(poolPDA, mintA)
	if err != nil {
		return Addresses{}, fmt.Errorf("deriving vault a: %w", err)
	}
	vaultB, _, err := solana.FindAssociatedTokenAddress(poolPDA, mintB)
	if err != nil {
		return Addresses{}, fmt.Errorf("deriving vault b: %w", err)
	}
	return Addresses{Pool: poolPDA, VaultA: vaultA, VaultB: vaultB, Bump: bump}, nil
}

// CreateScratchAccount allocates the plugin's writable result account. The
// scratch key must co-sign its own creation.
func CreateScratchAccount(rt *runtime.Runtime, payer, scratch, pluginProgram solana.PublicKey) error {
	create := runtime.NewCreateAccountInstruction(
		payer, scratch, runtime.RentExemptBalance(plugin.CalcResultSize), plugin.CalcResultSize, pluginProgram)
	if err := rt.Execute(create, payer, scratch); err != nil {
		return fmt.Errorf("creating plugin scratch account: %w", err)
	}
	return nil
}

// CreatePool prepares the LP mint and vaults for a new pool and runs the
// initialize instruction. The LP mint is created fresh with the pool PDA as
// its only authority.
func CreatePool(rt *runtime.Runtime, programID, payer, mintA, mintB, pluginProgram, pluginState, lpMint solana.PublicKey, lpDecimals uint8) (Addresses, error) {
	addrs, err := DeriveAddresses(programID, mintA, mintB, pluginProgram, pluginState)
	if err != nil {
		return Addresses{}, err
	}
	addrs.LpMint = lpMint

	if err := token.CreateMint(rt, payer, lpMint, lpDecimals, addrs.Pool, nil); err != nil {
		return Addresses{}, fmt.Errorf("creating lp mint: %w", err)
	}
	if _, err := token.CreateAssociatedAccount(rt, payer, addrs.Pool, mintA); err != nil {
		return Addresses{}, fmt.Errorf("creating vault a: %w", err)
	}
	if _, err := token.CreateAssociatedAccount(rt, payer, addrs.Pool, mintB); err != nil {
		return Addresses{}, fmt.Errorf("creating vault b: %w", err)
	}

	init, err := NewInitializePoolInstruction(
		programID, payer, addrs.Pool, addrs.VaultA, addrs.VaultB, lpMint, mintA, mintB, pluginProgram, pluginState)
	if err != nil {
		return Addresses{}, err
	}
	if err := rt.Execute(init, payer); err != nil {
		return Addresses{}, err
	}
	return addrs, nil
}
