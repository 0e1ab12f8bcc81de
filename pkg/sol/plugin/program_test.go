package plugin_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/dexforge/cpamm/pkg/pricing"
	"github.com/dexforge/cpamm/pkg/sol/plugin"
	"github.com/dexforge/cpamm/pkg/sol/runtime"
)

type fixture struct {
	rt      *runtime.Runtime
	program solana.PublicKey
	scratch solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rt := runtime.New(nil)
	programID := solana.NewWallet().PublicKey()
	plugin.Register(rt, programID)

	scratch := solana.NewWallet().PublicKey()
	rt.NewAccount(scratch, runtime.RentExemptBalance(plugin.CalcResultSize), plugin.CalcResultSize, programID)
	return &fixture{rt: rt, program: programID, scratch: scratch}
}

func (f *fixture) result(t *testing.T) plugin.CalcResult {
	t.Helper()
	res, err := plugin.DecodeCalcResult(f.rt.Account(f.scratch).Data)
	require.NoError(t, err)
	return res
}

func TestComputeAddLiquidityInitial(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeAddLiquidityInstruction(f.program, f.scratch, plugin.ComputeAddLiquidityArgs{
		DepositA: 100_000,
		DepositB: 200_000,
	})
	require.NoError(t, err)
	require.NoError(t, f.rt.Execute(ins))

	res := f.result(t)
	require.Equal(t, uint64(100_000), res.ActualA)
	require.Equal(t, uint64(200_000), res.ActualB)
	require.Equal(t, uint64(141_421), res.SharesToMint)
}

func TestComputeAddLiquidityClampsExcessB(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeAddLiquidityInstruction(f.program, f.scratch, plugin.ComputeAddLiquidityArgs{
		ReserveA:      100_000,
		ReserveB:      200_000,
		DepositA:      50_000,
		DepositB:      120_000,
		TotalLpSupply: 141_421,
	})
	require.NoError(t, err)
	require.NoError(t, f.rt.Execute(ins))

	res := f.result(t)
	require.Equal(t, uint64(50_000), res.ActualA)
	require.Equal(t, uint64(100_000), res.ActualB)
	require.Equal(t, uint64(70_710), res.SharesToMint)
}

func TestComputeAddLiquidityClampsExcessA(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeAddLiquidityInstruction(f.program, f.scratch, plugin.ComputeAddLiquidityArgs{
		ReserveA:      100_000,
		ReserveB:      200_000,
		DepositA:      60_000,
		DepositB:      100_000,
		TotalLpSupply: 141_421,
	})
	require.NoError(t, err)
	require.NoError(t, f.rt.Execute(ins))

	res := f.result(t)
	require.Equal(t, uint64(50_000), res.ActualA)
	require.Equal(t, uint64(100_000), res.ActualB)
	require.Equal(t, uint64(70_710), res.SharesToMint)
}

func TestComputeAddLiquidityEmptyReserves(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeAddLiquidityInstruction(f.program, f.scratch, plugin.ComputeAddLiquidityArgs{
		DepositA:      1_000,
		DepositB:      1_000,
		TotalLpSupply: 500,
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.rt.Execute(ins), pricing.ErrZeroReserveShares)
}

func TestComputeRemoveLiquidity(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeRemoveLiquidityInstruction(f.program, f.scratch, plugin.ComputeRemoveLiquidityArgs{
		ReserveA:        100_000,
		ReserveB:        200_000,
		TotalLpSupply:   141_421,
		LpAmountBurning: 70_710,
	})
	require.NoError(t, err)
	require.NoError(t, f.rt.Execute(ins))

	res := f.result(t)
	require.Equal(t, uint64(49_999), res.WithdrawA)
	require.Equal(t, uint64(99_999), res.WithdrawB)
}

func TestComputeRemoveLiquidityRejectsZeroBurn(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeRemoveLiquidityInstruction(f.program, f.scratch, plugin.ComputeRemoveLiquidityArgs{
		ReserveA:      100_000,
		ReserveB:      200_000,
		TotalLpSupply: 141_421,
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.rt.Execute(ins), plugin.ErrZeroBurn)
}

func TestComputeRemoveLiquidityRejectsExcessBurn(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeRemoveLiquidityInstruction(f.program, f.scratch, plugin.ComputeRemoveLiquidityArgs{
		ReserveA:        100_000,
		ReserveB:        200_000,
		TotalLpSupply:   141_421,
		LpAmountBurning: 141_422,
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.rt.Execute(ins), pricing.ErrExcessiveBurn)
}

func TestComputeSwap(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeSwapInstruction(f.program, f.scratch, plugin.ComputeSwapArgs{
		ReserveIn:  100_000,
		ReserveOut: 200_000,
		AmountIn:   10_000,
	})
	require.NoError(t, err)
	require.NoError(t, f.rt.Execute(ins))

	// effective in 9_970, ceiling-derived new out reserve 181_868
	require.Equal(t, uint64(18_132), f.result(t).AmountOut)
}

func TestComputeSwapZeroInputYieldsZeroOutput(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeSwapInstruction(f.program, f.scratch, plugin.ComputeSwapArgs{
		ReserveIn:  100_000,
		ReserveOut: 200_000,
	})
	require.NoError(t, err)
	require.NoError(t, f.rt.Execute(ins))
	require.Zero(t, f.result(t).AmountOut)
}

func TestComputeSwapRejectsEmptyReserves(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeSwapInstruction(f.program, f.scratch, plugin.ComputeSwapArgs{
		ReserveOut: 200_000,
		AmountIn:   10,
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.rt.Execute(ins), pricing.ErrEmptyReserveSwap)
}

func TestScratchMustBeWritable(t *testing.T) {
	f := newFixture(t)

	ins, err := plugin.NewComputeSwapInstruction(f.program, f.scratch, plugin.ComputeSwapArgs{
		ReserveIn:  1,
		ReserveOut: 1,
		AmountIn:   1,
	})
	require.NoError(t, err)
	ins.Accounts[0].IsWritable = false
	require.ErrorIs(t, f.rt.Execute(ins), plugin.ErrScratchNotWritable)
}
