package plugin

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/dexforge/cpamm/pkg/pricing"
	"github.com/dexforge/cpamm/pkg/sol/runtime"
)

// Program computes constant-product amounts on behalf of pools. Stateless
// beyond the scratch account it writes.
type Program struct {
	engine pricing.CeilingInputFee
}

// New returns the program with the standard fee schedule.
func New() *Program {
	return &Program{engine: pricing.NewCeilingInputFee()}
}

// Register installs the program at the given ID.
func Register(rt *runtime.Runtime, id solana.PublicKey) {
	rt.RegisterProgram(id, New())
}

func (p *Program) Execute(ctx *runtime.Ctx, accounts []runtime.AccountInfo, data []byte) error {
	if len(data) < 1 {
		return ErrInvalidInstruction
	}
	scratch, err := scratchAccount(accounts)
	if err != nil {
		return err
	}

	payload := data[1:]
	switch data[0] {
	case tagComputeAddLiquidity:
		var args ComputeAddLiquidityArgs
		if err := bin.NewBorshDecoder(payload).Decode(&args); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return p.computeAddLiquidity(scratch, args)
	case tagComputeRemoveLiquidity:
		var args ComputeRemoveLiquidityArgs
		if err := bin.NewBorshDecoder(payload).Decode(&args); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return p.computeRemoveLiquidity(scratch, args)
	case tagComputeSwap:
		var args ComputeSwapArgs
		if err := bin.NewBorshDecoder(payload).Decode(&args); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return p.computeSwap(scratch, args)
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidInstruction, data[0])
	}
}

func (p *Program) computeAddLiquidity(scratch *runtime.Account, args ComputeAddLiquidityArgs) error {
	actualA, actualB, shares, err := p.engine.ClampDeposit(
		args.DepositA, args.DepositB, args.ReserveA, args.ReserveB, args.TotalLpSupply)
	if err != nil {
		return err
	}
	res := CalcResult{ActualA: actualA, ActualB: actualB, SharesToMint: shares}
	return res.encode(scratch.Data)
}

func (p *Program) computeRemoveLiquidity(scratch *runtime.Account, args ComputeRemoveLiquidityArgs) error {
	if args.LpAmountBurning == 0 {
		return ErrZeroBurn
	}
	withdrawA, withdrawB, err := p.engine.Withdraw64(
		args.LpAmountBurning, args.ReserveA, args.ReserveB, args.TotalLpSupply)
	if err != nil {
		return err
	}
	res := CalcResult{WithdrawA: withdrawA, WithdrawB: withdrawB}
	return res.encode(scratch.Data)
}

func (p *Program) computeSwap(scratch *runtime.Account, args ComputeSwapArgs) error {
	amountOut, err := p.engine.Swap64(args.AmountIn, args.ReserveIn, args.ReserveOut)
	if err != nil {
		return err
	}
	res := CalcResult{AmountOut: amountOut}
	return res.encode(scratch.Data)
}

func scratchAccount(accounts []runtime.AccountInfo) (*runtime.Account, error) {
	if len(accounts) < 1 {
		return nil, ErrMissingScratch
	}
	if !accounts[0].IsWritable {
		return nil, fmt.Errorf("%w: %s", ErrScratchNotWritable, accounts[0].Key)
	}
	return accounts[0].Account, nil
}
