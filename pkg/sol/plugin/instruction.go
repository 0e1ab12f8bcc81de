// Package plugin is the pricing program the pool invokes over CPI. It holds
// no pool state of its own: each instruction carries the reserves and amounts,
// and the computed result is written into the shared scratch account the pool
// reads back after the call returns.
package plugin

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/dexforge/cpamm/pkg/sol/runtime"
)

// Instruction tags, borsh enum discriminants.
const (
	tagComputeAddLiquidity uint8 = iota
	tagComputeRemoveLiquidity
	tagComputeSwap
)

// ComputeAddLiquidityArgs asks for clamped deposit amounts and shares to mint.
type ComputeAddLiquidityArgs struct {
	ReserveA      uint64
	ReserveB      uint64
	DepositA      uint64
	DepositB      uint64
	TotalLpSupply uint64
}

// ComputeRemoveLiquidityArgs asks for the pro-rata withdrawal amounts.
type ComputeRemoveLiquidityArgs struct {
	ReserveA        uint64
	ReserveB        uint64
	TotalLpSupply   uint64
	LpAmountBurning uint64
}

// ComputeSwapArgs asks for the output amount of a swap.
type ComputeSwapArgs struct {
	ReserveIn  uint64
	ReserveOut uint64
	AmountIn   uint64
}

// CalcResult is the scratch-account layout shared with the pool program.
// Every compute instruction overwrites the whole struct; only the fields
// relevant to that instruction are meaningful.
type CalcResult struct {
	ActualA      uint64
	ActualB      uint64
	SharesToMint uint64
	WithdrawA    uint64
	WithdrawB    uint64
	AmountOut    uint64
}

// CalcResultSize is the borsh-serialized size of CalcResult.
const CalcResultSize = 48

// DecodeCalcResult reads a CalcResult from the front of scratch-account data.
func DecodeCalcResult(data []byte) (CalcResult, error) {
	var res CalcResult
	if err := bin.NewBorshDecoder(data).Decode(&res); err != nil {
		return CalcResult{}, fmt.Errorf("decoding plugin result: %w", err)
	}
	return res, nil
}

func (r CalcResult) encode(data []byte) error {
	if len(data) < CalcResultSize {
		return fmt.Errorf("%w: scratch account holds %d bytes, need %d",
			ErrScratchTooSmall, len(data), CalcResultSize)
	}
	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(r); err != nil {
		return fmt.Errorf("encoding plugin result: %w", err)
	}
	copy(data, buf.Bytes())
	return nil
}

func encodeInstruction(tag uint8, args interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(tag)
	if err := bin.NewBorshEncoder(&buf).Encode(args); err != nil {
		return nil, fmt.Errorf("encoding plugin instruction: %w", err)
	}
	return buf.Bytes(), nil
}

// NewComputeAddLiquidityInstruction builds the CPI instruction the pool sends
// when liquidity is added. The scratch account is the only account.
func NewComputeAddLiquidityInstruction(programID, scratch solana.PublicKey, args ComputeAddLiquidityArgs) (runtime.Instruction, error) {
	data, err := encodeInstruction(tagComputeAddLiquidity, args)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return scratchInstruction(programID, scratch, data), nil
}

// NewComputeRemoveLiquidityInstruction builds the CPI instruction for a
// liquidity withdrawal.
func NewComputeRemoveLiquidityInstruction(programID, scratch solana.PublicKey, args ComputeRemoveLiquidityArgs) (runtime.Instruction, error) {
	data, err := encodeInstruction(tagComputeRemoveLiquidity, args)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return scratchInstruction(programID, scratch, data), nil
}

// NewComputeSwapInstruction builds the CPI instruction for a swap quote.
func NewComputeSwapInstruction(programID, scratch solana.PublicKey, args ComputeSwapArgs) (runtime.Instruction, error) {
	data, err := encodeInstruction(tagComputeSwap, args)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return scratchInstruction(programID, scratch, data), nil
}

func scratchInstruction(programID, scratch solana.PublicKey, data []byte) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: programID,
		Accounts:  []runtime.AccountMeta{runtime.Meta(scratch, false, true)},
		Data:      data,
	}
}
