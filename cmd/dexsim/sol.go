package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/dexforge/cpamm/pkg/sol/plugin"
	"github.com/dexforge/cpamm/pkg/sol/pool"
	"github.com/dexforge/cpamm/pkg/sol/runtime"
	"github.com/dexforge/cpamm/pkg/sol/token"
)

// runSol plays the scenario on the program stack: register the token, plugin,
// and pool programs on a fresh runtime, create a pool, then run the same
// deposit/swap/withdraw sequence through instructions.
func runSol(cfg ScenarioConfig, log *zap.Logger) error {
	rt := runtime.New(log)
	token.Register(rt)

	poolProgram := solana.NewWallet().PublicKey()
	pluginProgram := solana.NewWallet().PublicKey()
	pool.Register(rt, poolProgram, log)
	plugin.Register(rt, pluginProgram)

	payer := solana.NewWallet().PublicKey()
	mintAuthority := solana.NewWallet().PublicKey()
	rt.Airdrop(payer, 100_000_000_000)

	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	if err := token.CreateMint(rt, payer, mintA, 6, mintAuthority, nil); err != nil {
		return fmt.Errorf("create mint A: %w", err)
	}
	if err := token.CreateMint(rt, payer, mintB, 6, mintAuthority, nil); err != nil {
		return fmt.Errorf("create mint B: %w", err)
	}

	scratch := solana.NewWallet().PublicKey()
	if err := pool.CreateScratchAccount(rt, payer, scratch, pluginProgram); err != nil {
		return fmt.Errorf("create scratch account: %w", err)
	}
	lpMint := solana.NewWallet().PublicKey()
	addrs, err := pool.CreatePool(rt, poolProgram, payer, mintA, mintB, pluginProgram, scratch, lpMint, 6)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	log.Info("pool created",
		zap.Stringer("pool", addrs.Pool),
		zap.Stringer("lp_mint", lpMint),
		zap.Uint8("bump", addrs.Bump))

	type walletAccounts struct {
		key, tokenA, tokenB, lp solana.PublicKey
	}
	newUser := func(fundA, fundB uint64) (walletAccounts, error) {
		u := walletAccounts{key: solana.NewWallet().PublicKey()}
		rt.Airdrop(u.key, 10_000_000_000)
		var err error
		if u.tokenA, err = token.CreateAssociatedAccount(rt, payer, u.key, mintA); err != nil {
			return u, err
		}
		if u.tokenB, err = token.CreateAssociatedAccount(rt, payer, u.key, mintB); err != nil {
			return u, err
		}
		if u.lp, err = token.CreateAssociatedAccount(rt, payer, u.key, lpMint); err != nil {
			return u, err
		}
		if fundA > 0 {
			if err := rt.Execute(token.NewMintToInstruction(mintA, u.tokenA, mintAuthority, fundA), mintAuthority); err != nil {
				return u, err
			}
		}
		if fundB > 0 {
			if err := rt.Execute(token.NewMintToInstruction(mintB, u.tokenB, mintAuthority, fundB), mintAuthority); err != nil {
				return u, err
			}
		}
		return u, nil
	}

	addLiquidity := func(u walletAccounts, amountA, amountB uint64) error {
		ins, err := pool.NewAddLiquidityInstruction(poolProgram, u.key,
			addrs.Pool, addrs.VaultA, addrs.VaultB, lpMint,
			u.tokenA, u.tokenB, u.lp, pluginProgram, scratch,
			pool.AddLiquidityArgs{AmountA: amountA, AmountB: amountB})
		if err != nil {
			return err
		}
		return rt.Execute(ins, u.key)
	}
	removeLiquidity := func(u walletAccounts, amountLp uint64) error {
		ins, err := pool.NewRemoveLiquidityInstruction(poolProgram, u.key,
			addrs.Pool, addrs.VaultA, addrs.VaultB, lpMint,
			u.tokenA, u.tokenB, u.lp, pluginProgram, scratch,
			pool.RemoveLiquidityArgs{AmountLp: amountLp})
		if err != nil {
			return err
		}
		return rt.Execute(ins, u.key)
	}
	logState := func(stage string) error {
		st, err := pool.DecodePoolState(rt.Account(addrs.Pool).Data)
		if err != nil {
			return err
		}
		reserveA, err := token.Balance(rt, addrs.VaultA)
		if err != nil {
			return err
		}
		reserveB, err := token.Balance(rt, addrs.VaultB)
		if err != nil {
			return err
		}
		log.Info("pool state",
			zap.String("stage", stage),
			zap.Uint64("reserve_a", reserveA),
			zap.Uint64("reserve_b", reserveB),
			zap.Uint64("total_lp_supply", st.TotalLpSupply))
		return nil
	}

	alice, err := newUser(uint64(cfg.DepositA), uint64(cfg.DepositB))
	if err != nil {
		return fmt.Errorf("set up alice: %w", err)
	}
	if err := addLiquidity(alice, uint64(cfg.DepositA), uint64(cfg.DepositB)); err != nil {
		return fmt.Errorf("alice add liquidity: %w", err)
	}
	if err := logState("after seed deposit"); err != nil {
		return err
	}

	var bob walletAccounts
	if cfg.SecondA > 0 && cfg.SecondB > 0 {
		if bob, err = newUser(uint64(cfg.SecondA), uint64(cfg.SecondB)); err != nil {
			return fmt.Errorf("set up bob: %w", err)
		}
		if err := addLiquidity(bob, uint64(cfg.SecondA), uint64(cfg.SecondB)); err != nil {
			return fmt.Errorf("bob add liquidity: %w", err)
		}
		if err := logState("after second deposit"); err != nil {
			return err
		}
	}

	if cfg.SwapIn > 0 {
		carol, err := newUser(uint64(cfg.SwapIn), 0)
		if err != nil {
			return fmt.Errorf("set up carol: %w", err)
		}
		ins, err := pool.NewSwapInstruction(poolProgram, carol.key,
			addrs.Pool, addrs.VaultA, addrs.VaultB,
			carol.tokenA, carol.tokenB, pluginProgram, scratch,
			pool.SwapArgs{AmountIn: uint64(cfg.SwapIn), MinOut: uint64(cfg.MinOut)})
		if err != nil {
			return err
		}
		if err := rt.Execute(ins, carol.key); err != nil {
			return fmt.Errorf("swap: %w", err)
		}
		received, err := token.Balance(rt, carol.tokenB)
		if err != nil {
			return err
		}
		log.Info("swap executed",
			zap.Int64("amount_in", cfg.SwapIn),
			zap.Uint64("received", received))
		if err := logState("after swap"); err != nil {
			return err
		}
	}

	for _, provider := range []struct {
		name string
		acct walletAccounts
	}{{"bob", bob}, {"alice", alice}} {
		if provider.acct.key.IsZero() {
			continue
		}
		shares, err := token.Balance(rt, provider.acct.lp)
		if err != nil {
			return err
		}
		if shares == 0 {
			continue
		}
		if err := removeLiquidity(provider.acct, shares); err != nil {
			return fmt.Errorf("%s withdraw: %w", provider.name, err)
		}
		balA, err := token.Balance(rt, provider.acct.tokenA)
		if err != nil {
			return err
		}
		balB, err := token.Balance(rt, provider.acct.tokenB)
		if err != nil {
			return err
		}
		log.Info("liquidity withdrawn",
			zap.String("provider", provider.name),
			zap.Uint64("shares_burned", shares),
			zap.Uint64("token_a", balA),
			zap.Uint64("token_b", balB))
	}

	return logState("final")
}
