package pool

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/dexforge/cpamm/pkg/sol/runtime"
)

// Instruction tags, borsh enum discriminants.
const (
	tagInitializePool uint8 = iota
	tagAddLiquidity
	tagRemoveLiquidity
	tagSwap
)

// AddLiquidityArgs carries the maximum deposit amounts; the plugin clamps
// whichever side is in excess of the pool ratio.
type AddLiquidityArgs struct {
	AmountA uint64
	AmountB uint64
}

// RemoveLiquidityArgs names the LP amount to burn.
type RemoveLiquidityArgs struct {
	AmountLp uint64
}

// SwapArgs carries the input amount and the slippage floor.
type SwapArgs struct {
	AmountIn uint64
	MinOut   uint64
}

func encodeArgs(tag uint8, args interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(tag)
	if args != nil {
		if err := bin.NewBorshEncoder(&buf).Encode(args); err != nil {
			return nil, fmt.Errorf("encoding pool instruction: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// NewInitializePoolInstruction builds the pool-creation instruction. The pool
// state account is created by the program itself; vaults and the LP mint must
// exist already, owned and authorized by the derived pool PDA.
func NewInitializePoolInstruction(programID, payer, poolState, vaultA, vaultB, lpMint, mintA, mintB, pluginProgram, pluginState solana.PublicKey) (runtime.Instruction, error) {
	data, err := encodeArgs(tagInitializePool, nil)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: programID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(payer, true, true),
			runtime.Meta(poolState, false, true),
			runtime.Meta(vaultA, false, true),
			runtime.Meta(vaultB, false, true),
			runtime.Meta(lpMint, false, true),
			runtime.Meta(mintA, false, false),
			runtime.Meta(mintB, false, false),
			runtime.Meta(pluginProgram, false, false),
			runtime.Meta(pluginState, false, true),
			runtime.Meta(solana.SystemProgramID, false, false),
			runtime.Meta(solana.SysVarRentPubkey, false, false),
			runtime.Meta(solana.TokenProgramID, false, false),
		},
		Data: data,
	}, nil
}

// NewAddLiquidityInstruction builds an add-liquidity instruction.
func NewAddLiquidityInstruction(programID, user, poolState, vaultA, vaultB, lpMint, userTokenA, userTokenB, userLp, pluginProgram, pluginState solana.PublicKey, args AddLiquidityArgs) (runtime.Instruction, error) {
	data, err := encodeArgs(tagAddLiquidity, args)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: programID,
		Accounts:  liquidityAccounts(user, poolState, vaultA, vaultB, lpMint, userTokenA, userTokenB, userLp, pluginProgram, pluginState),
		Data:      data,
	}, nil
}

// NewRemoveLiquidityInstruction builds a remove-liquidity instruction. The
// account list matches AddLiquidity, with the user token accounts acting as
// destinations instead of sources.
func NewRemoveLiquidityInstruction(programID, user, poolState, vaultA, vaultB, lpMint, userTokenA, userTokenB, userLp, pluginProgram, pluginState solana.PublicKey, args RemoveLiquidityArgs) (runtime.Instruction, error) {
	data, err := encodeArgs(tagRemoveLiquidity, args)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: programID,
		Accounts:  liquidityAccounts(user, poolState, vaultA, vaultB, lpMint, userTokenA, userTokenB, userLp, pluginProgram, pluginState),
		Data:      data,
	}, nil
}

// NewSwapInstruction builds a swap instruction. Direction follows from the
// mint of the user source account.
func NewSwapInstruction(programID, user, poolState, vaultA, vaultB, userSource, userDestination, pluginProgram, pluginState solana.PublicKey, args SwapArgs) (runtime.Instruction, error) {
	data, err := encodeArgs(tagSwap, args)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: programID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(user, true, true),
			runtime.Meta(poolState, false, true),
			runtime.Meta(vaultA, false, true),
			runtime.Meta(vaultB, false, true),
			runtime.Meta(userSource, false, true),
			runtime.Meta(userDestination, false, true),
			runtime.Meta(solana.TokenProgramID, false, false),
			runtime.Meta(pluginProgram, false, false),
			runtime.Meta(pluginState, false, true),
		},
		Data: data,
	}, nil
}

func liquidityAccounts(user, poolState, vaultA, vaultB, lpMint, userTokenA, userTokenB, userLp, pluginProgram, pluginState solana.PublicKey) []runtime.AccountMeta {
	return []runtime.AccountMeta{
		runtime.Meta(user, true, true),
		runtime.Meta(poolState, false, true),
		runtime.Meta(vaultA, false, true),
		runtime.Meta(vaultB, false, true),
		runtime.Meta(lpMint, false, true),
		runtime.Meta(userTokenA, false, true),
		runtime.Meta(userTokenB, false, true),
		runtime.Meta(userLp, false, true),
		runtime.Meta(solana.TokenProgramID, false, false),
		runtime.Meta(pluginProgram, false, false),
		runtime.Meta(pluginState, false, true),
	}
}
