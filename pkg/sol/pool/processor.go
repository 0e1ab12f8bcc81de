package pool

import (
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/dexforge/cpamm/pkg/sol/plugin"
	"github.com/dexforge/cpamm/pkg/sol/runtime"
	"github.com/dexforge/cpamm/pkg/sol/token"
)

// Program is the pool program. Everything it custodies is held by the pool
// PDA: the vaults' internal owner and the LP mint authority both resolve to
// it, so outbound transfers and mints happen only under PDA-signed CPI.
type Program struct {
	log *zap.Logger
}

// New returns the program.
func New(log *zap.Logger) *Program {
	if log == nil {
		log = zap.NewNop()
	}
	return &Program{log: log}
}

// Register installs the program at the given ID.
func Register(rt *runtime.Runtime, id solana.PublicKey, log *zap.Logger) {
	rt.RegisterProgram(id, New(log))
}

func (p *Program) Execute(ctx *runtime.Ctx, accounts []runtime.AccountInfo, data []byte) error {
	if len(data) < 1 {
		return ErrInvalidInstruction
	}
	payload := data[1:]
	switch data[0] {
	case tagInitializePool:
		return p.processInitializePool(ctx, accounts)
	case tagAddLiquidity:
		var args AddLiquidityArgs
		if err := bin.NewBorshDecoder(payload).Decode(&args); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return p.processAddLiquidity(ctx, accounts, args)
	case tagRemoveLiquidity:
		var args RemoveLiquidityArgs
		if err := bin.NewBorshDecoder(payload).Decode(&args); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return p.processRemoveLiquidity(ctx, accounts, args)
	case tagSwap:
		var args SwapArgs
		if err := bin.NewBorshDecoder(payload).Decode(&args); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return p.processSwap(ctx, accounts, args)
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidInstruction, data[0])
	}
}

func (p *Program) processInitializePool(ctx *runtime.Ctx, accounts []runtime.AccountInfo) error {
	if len(accounts) < 12 {
		return ErrInvalidInstruction
	}
	payer := accounts[0]
	poolState := accounts[1]
	vaultA := accounts[2]
	vaultB := accounts[3]
	lpMint := accounts[4]
	mintA := accounts[5]
	mintB := accounts[6]
	pluginProg := accounts[7]
	pluginState := accounts[8]
	systemProg := accounts[9]
	rentSysvar := accounts[10]
	tokenProg := accounts[11]

	if !payer.IsSigner {
		return fmt.Errorf("%w: payer %s", runtime.ErrMissingSignature, payer.Key)
	}
	if err := validateProgramID(systemProg, solana.SystemProgramID); err != nil {
		return err
	}
	if err := validateProgramID(rentSysvar, solana.SysVarRentPubkey); err != nil {
		return err
	}
	if err := validateProgramID(tokenProg, solana.TokenProgramID); err != nil {
		return err
	}
	if err := validateExecutable(pluginProg); err != nil {
		return err
	}
	if err := validateRentExemption(pluginState); err != nil {
		return err
	}

	if mintA.Key.Equals(mintB.Key) {
		return ErrMintsMustBeDifferent
	}
	if _, err := validateMintBasic(mintA); err != nil {
		return err
	}
	if err := validateRentExemption(mintA); err != nil {
		return err
	}
	if _, err := validateMintBasic(mintB); err != nil {
		return err
	}
	if err := validateRentExemption(mintB); err != nil {
		return err
	}

	expectedPDA, bump, err := FindPoolAddress(ctx.ProgramID(), mintA.Key, mintB.Key, pluginProg.Key, pluginState.Key)
	if err != nil {
		return err
	}
	if !poolState.Key.Equals(expectedPDA) {
		return fmt.Errorf("%w: expected %s, got %s", ErrIncorrectPoolPDA, expectedPDA, poolState.Key)
	}

	lpMintData, err := validateMintBasic(lpMint)
	if err != nil {
		return err
	}
	if err := validateLpMintProperties(lpMintData, expectedPDA); err != nil {
		return err
	}
	if err := validateLpMintZeroSupply(lpMintData); err != nil {
		return err
	}
	if err := validateRentExemption(lpMint); err != nil {
		return err
	}
	if err := validatePoolVault(vaultA, expectedPDA, mintA.Key); err != nil {
		return err
	}
	if err := validatePoolVault(vaultB, expectedPDA, mintB.Key); err != nil {
		return err
	}

	p.log.Debug("creating pool state account",
		zap.Stringer("pool", poolState.Key), zap.Uint8("bump", bump))

	create := runtime.NewCreateAccountInstruction(
		payer.Key, poolState.Key, runtime.RentExemptBalance(PoolStateSize), PoolStateSize, ctx.ProgramID())
	seeds := poolSeeds(mintA.Key, mintB.Key, pluginProg.Key, pluginState.Key, bump)
	if err := ctx.InvokeSigned(create, seeds); err != nil {
		return err
	}

	st := PoolState{
		TokenMintA:        mintA.Key,
		TokenMintB:        mintB.Key,
		VaultA:            vaultA.Key,
		VaultB:            vaultB.Key,
		LpMint:            lpMint.Key,
		TotalLpSupply:     0,
		Bump:              bump,
		PluginProgramID:   pluginProg.Key,
		PluginStatePubkey: pluginState.Key,
	}
	return st.Encode(poolState.Account.Data)
}

// loadPool decodes the pool state, re-derives the PDA from it, and checks
// every passed account against the recorded keys. Each mutating instruction
// repeats this in full.
func (p *Program) loadPool(ctx *runtime.Ctx, poolState, vaultA, vaultB, pluginProg, pluginState runtime.AccountInfo) (PoolState, error) {
	st, err := DecodePoolState(poolState.Account.Data)
	if err != nil {
		return PoolState{}, err
	}
	expectedPDA, _, err := FindPoolAddress(ctx.ProgramID(), st.TokenMintA, st.TokenMintB, st.PluginProgramID, st.PluginStatePubkey)
	if err != nil {
		return PoolState{}, err
	}
	if !poolState.Key.Equals(expectedPDA) {
		return PoolState{}, fmt.Errorf("%w: expected %s, got %s", ErrIncorrectPoolPDA, expectedPDA, poolState.Key)
	}
	if !vaultA.Key.Equals(st.VaultA) || !vaultB.Key.Equals(st.VaultB) {
		return PoolState{}, ErrVaultMismatch
	}
	if !pluginProg.Key.Equals(st.PluginProgramID) {
		return PoolState{}, ErrPluginProgramMismatch
	}
	if !pluginState.Key.Equals(st.PluginStatePubkey) {
		return PoolState{}, ErrPluginStateMismatch
	}
	return st, nil
}

func (p *Program) processAddLiquidity(ctx *runtime.Ctx, accounts []runtime.AccountInfo, args AddLiquidityArgs) error {
	if len(accounts) < 11 {
		return ErrInvalidInstruction
	}
	user := accounts[0]
	poolState := accounts[1]
	vaultA := accounts[2]
	vaultB := accounts[3]
	lpMint := accounts[4]
	userTokenA := accounts[5]
	userTokenB := accounts[6]
	userLp := accounts[7]
	tokenProg := accounts[8]
	pluginProg := accounts[9]
	pluginState := accounts[10]

	if !user.IsSigner {
		return fmt.Errorf("%w: user %s", runtime.ErrMissingSignature, user.Key)
	}
	if err := validateProgramID(tokenProg, solana.TokenProgramID); err != nil {
		return err
	}
	st, err := p.loadPool(ctx, poolState, vaultA, vaultB, pluginProg, pluginState)
	if err != nil {
		return err
	}
	if !lpMint.Key.Equals(st.LpMint) {
		return ErrLpMintMismatch
	}

	if err := validatePoolVault(vaultA, poolState.Key, st.TokenMintA); err != nil {
		return err
	}
	if err := validatePoolVault(vaultB, poolState.Key, st.TokenMintB); err != nil {
		return err
	}
	if _, err := validateUserTokenAccount(userTokenA, user.Key, st.TokenMintA); err != nil {
		return err
	}
	if _, err := validateUserTokenAccount(userTokenB, user.Key, st.TokenMintB); err != nil {
		return err
	}
	lpMintData, err := validateMintBasic(lpMint)
	if err != nil {
		return err
	}
	if err := validateLpMintProperties(lpMintData, poolState.Key); err != nil {
		return err
	}
	if _, err := validateUserTokenAccount(userLp, user.Key, st.LpMint); err != nil {
		return err
	}

	reserveA, reserveB, err := vaultReserves(vaultA, vaultB)
	if err != nil {
		return err
	}

	compute, err := plugin.NewComputeAddLiquidityInstruction(st.PluginProgramID, pluginState.Key, plugin.ComputeAddLiquidityArgs{
		ReserveA:      reserveA,
		ReserveB:      reserveB,
		DepositA:      args.AmountA,
		DepositB:      args.AmountB,
		TotalLpSupply: st.TotalLpSupply,
	})
	if err != nil {
		return err
	}
	if err := ctx.Invoke(compute); err != nil {
		return err
	}
	result, err := plugin.DecodeCalcResult(pluginState.Account.Data)
	if err != nil {
		return err
	}
	if result.SharesToMint == 0 {
		return ErrZeroAmount
	}

	p.log.Debug("adding liquidity",
		zap.Stringer("pool", poolState.Key),
		zap.Uint64("actual_a", result.ActualA),
		zap.Uint64("actual_b", result.ActualB),
		zap.Uint64("shares", result.SharesToMint))

	if err := ctx.Invoke(token.NewTransferInstruction(userTokenA.Key, vaultA.Key, user.Key, result.ActualA)); err != nil {
		return err
	}
	if err := ctx.Invoke(token.NewTransferInstruction(userTokenB.Key, vaultB.Key, user.Key, result.ActualB)); err != nil {
		return err
	}

	seeds := poolSeeds(st.TokenMintA, st.TokenMintB, st.PluginProgramID, st.PluginStatePubkey, st.Bump)
	mintTo := token.NewMintToInstruction(st.LpMint, userLp.Key, poolState.Key, result.SharesToMint)
	if err := ctx.InvokeSigned(mintTo, seeds); err != nil {
		return err
	}

	if st.TotalLpSupply > math.MaxUint64-result.SharesToMint {
		return ErrArithmeticOverflow
	}
	st.TotalLpSupply += result.SharesToMint
	return st.Encode(poolState.Account.Data)
}

func (p *Program) processRemoveLiquidity(ctx *runtime.Ctx, accounts []runtime.AccountInfo, args RemoveLiquidityArgs) error {
	if len(accounts) < 11 {
		return ErrInvalidInstruction
	}
	user := accounts[0]
	poolState := accounts[1]
	vaultA := accounts[2]
	vaultB := accounts[3]
	lpMint := accounts[4]
	userTokenA := accounts[5]
	userTokenB := accounts[6]
	userLp := accounts[7]
	tokenProg := accounts[8]
	pluginProg := accounts[9]
	pluginState := accounts[10]

	if !user.IsSigner {
		return fmt.Errorf("%w: user %s", runtime.ErrMissingSignature, user.Key)
	}
	if err := validateProgramID(tokenProg, solana.TokenProgramID); err != nil {
		return err
	}
	st, err := p.loadPool(ctx, poolState, vaultA, vaultB, pluginProg, pluginState)
	if err != nil {
		return err
	}
	if !lpMint.Key.Equals(st.LpMint) {
		return ErrLpMintMismatch
	}
	if args.AmountLp == 0 {
		return ErrZeroAmount
	}
	if args.AmountLp > st.TotalLpSupply {
		return fmt.Errorf("%w: burning %d of %d shares", ErrInsufficientFunds, args.AmountLp, st.TotalLpSupply)
	}

	if err := validatePoolVault(vaultA, poolState.Key, st.TokenMintA); err != nil {
		return err
	}
	if err := validatePoolVault(vaultB, poolState.Key, st.TokenMintB); err != nil {
		return err
	}
	if _, err := validateUserTokenAccount(userTokenA, user.Key, st.TokenMintA); err != nil {
		return err
	}
	if _, err := validateUserTokenAccount(userTokenB, user.Key, st.TokenMintB); err != nil {
		return err
	}
	lpMintData, err := validateMintBasic(lpMint)
	if err != nil {
		return err
	}
	if err := validateLpMintProperties(lpMintData, poolState.Key); err != nil {
		return err
	}
	userLpData, err := validateUserTokenAccount(userLp, user.Key, st.LpMint)
	if err != nil {
		return err
	}
	if userLpData.Amount < args.AmountLp {
		return fmt.Errorf("%w: lp balance %d, burning %d", ErrInsufficientFunds, userLpData.Amount, args.AmountLp)
	}

	reserveA, reserveB, err := vaultReserves(vaultA, vaultB)
	if err != nil {
		return err
	}

	compute, err := plugin.NewComputeRemoveLiquidityInstruction(st.PluginProgramID, pluginState.Key, plugin.ComputeRemoveLiquidityArgs{
		ReserveA:        reserveA,
		ReserveB:        reserveB,
		TotalLpSupply:   st.TotalLpSupply,
		LpAmountBurning: args.AmountLp,
	})
	if err != nil {
		return err
	}
	if err := ctx.Invoke(compute); err != nil {
		return err
	}
	result, err := plugin.DecodeCalcResult(pluginState.Account.Data)
	if err != nil {
		return err
	}

	p.log.Debug("removing liquidity",
		zap.Stringer("pool", poolState.Key),
		zap.Uint64("burn", args.AmountLp),
		zap.Uint64("withdraw_a", result.WithdrawA),
		zap.Uint64("withdraw_b", result.WithdrawB))

	if err := ctx.Invoke(token.NewBurnInstruction(userLp.Key, st.LpMint, user.Key, args.AmountLp)); err != nil {
		return err
	}

	seeds := poolSeeds(st.TokenMintA, st.TokenMintB, st.PluginProgramID, st.PluginStatePubkey, st.Bump)
	if err := ctx.InvokeSigned(token.NewTransferInstruction(vaultA.Key, userTokenA.Key, poolState.Key, result.WithdrawA), seeds); err != nil {
		return err
	}
	if err := ctx.InvokeSigned(token.NewTransferInstruction(vaultB.Key, userTokenB.Key, poolState.Key, result.WithdrawB), seeds); err != nil {
		return err
	}

	st.TotalLpSupply -= args.AmountLp
	return st.Encode(poolState.Account.Data)
}

func (p *Program) processSwap(ctx *runtime.Ctx, accounts []runtime.AccountInfo, args SwapArgs) error {
	if len(accounts) < 9 {
		return ErrInvalidInstruction
	}
	user := accounts[0]
	poolState := accounts[1]
	vaultA := accounts[2]
	vaultB := accounts[3]
	userSrc := accounts[4]
	userDst := accounts[5]
	tokenProg := accounts[6]
	pluginProg := accounts[7]
	pluginState := accounts[8]

	if !user.IsSigner {
		return fmt.Errorf("%w: user %s", runtime.ErrMissingSignature, user.Key)
	}
	if err := validateProgramID(tokenProg, solana.TokenProgramID); err != nil {
		return err
	}
	if args.AmountIn == 0 {
		return ErrZeroAmount
	}
	if userSrc.Key.Equals(userDst.Key) {
		return ErrSameAccountSwap
	}
	st, err := p.loadPool(ctx, poolState, vaultA, vaultB, pluginProg, pluginState)
	if err != nil {
		return err
	}
	if err := validatePoolVault(vaultA, poolState.Key, st.TokenMintA); err != nil {
		return err
	}
	if err := validatePoolVault(vaultB, poolState.Key, st.TokenMintB); err != nil {
		return err
	}

	// Direction follows from the source account's mint.
	var vaultIn, vaultOut runtime.AccountInfo
	if srcData, aErr := validateUserTokenAccount(userSrc, user.Key, st.TokenMintA); aErr == nil {
		if _, err := validateUserTokenAccount(userDst, user.Key, st.TokenMintB); err != nil {
			return err
		}
		if srcData.Amount < args.AmountIn {
			return fmt.Errorf("%w: source holds %d, swapping %d", ErrInsufficientFunds, srcData.Amount, args.AmountIn)
		}
		vaultIn, vaultOut = vaultA, vaultB
	} else if srcData, bErr := validateUserTokenAccount(userSrc, user.Key, st.TokenMintB); bErr == nil {
		if _, err := validateUserTokenAccount(userDst, user.Key, st.TokenMintA); err != nil {
			return err
		}
		if srcData.Amount < args.AmountIn {
			return fmt.Errorf("%w: source holds %d, swapping %d", ErrInsufficientFunds, srcData.Amount, args.AmountIn)
		}
		vaultIn, vaultOut = vaultB, vaultA
	} else {
		return fmt.Errorf("%w: source %s matches neither pool mint", ErrTokenMintMismatch, userSrc.Key)
	}

	reserveIn, err := vaultAmount(vaultIn)
	if err != nil {
		return err
	}
	reserveOut, err := vaultAmount(vaultOut)
	if err != nil {
		return err
	}

	compute, err := plugin.NewComputeSwapInstruction(st.PluginProgramID, pluginState.Key, plugin.ComputeSwapArgs{
		ReserveIn:  reserveIn,
		ReserveOut: reserveOut,
		AmountIn:   args.AmountIn,
	})
	if err != nil {
		return err
	}
	if err := ctx.Invoke(compute); err != nil {
		return err
	}
	result, err := plugin.DecodeCalcResult(pluginState.Account.Data)
	if err != nil {
		return err
	}
	if result.AmountOut < args.MinOut {
		return fmt.Errorf("%w: out %d, minimum %d", ErrSlippageExceeded, result.AmountOut, args.MinOut)
	}
	if result.AmountOut == 0 {
		return ErrZeroAmount
	}

	p.log.Debug("swapping",
		zap.Stringer("pool", poolState.Key),
		zap.Uint64("amount_in", args.AmountIn),
		zap.Uint64("amount_out", result.AmountOut))

	if err := ctx.Invoke(token.NewTransferInstruction(userSrc.Key, vaultIn.Key, user.Key, args.AmountIn)); err != nil {
		return err
	}
	seeds := poolSeeds(st.TokenMintA, st.TokenMintB, st.PluginProgramID, st.PluginStatePubkey, st.Bump)
	return ctx.InvokeSigned(token.NewTransferInstruction(vaultOut.Key, userDst.Key, poolState.Key, result.AmountOut), seeds)
}

func vaultAmount(vault runtime.AccountInfo) (uint64, error) {
	acc, err := token.DecodeAccount(vault.Account.Data)
	if err != nil {
		return 0, fmt.Errorf("%w: vault %s", ErrInvalidAccountData, vault.Key)
	}
	return acc.Amount, nil
}

func vaultReserves(vaultA, vaultB runtime.AccountInfo) (uint64, uint64, error) {
	reserveA, err := vaultAmount(vaultA)
	if err != nil {
		return 0, 0, err
	}
	reserveB, err := vaultAmount(vaultB)
	if err != nil {
		return 0, 0, err
	}
	return reserveA, reserveB, nil
}
