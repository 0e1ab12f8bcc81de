package main

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"go.uber.org/zap"

	"github.com/dexforge/cpamm/pkg/cw/cw20"
	"github.com/dexforge/cpamm/pkg/cw/factory"
	"github.com/dexforge/cpamm/pkg/cw/pool"
	"github.com/dexforge/cpamm/pkg/cw/wasmvm"
)

// runCw plays the scenario on the contract stack: deploy factory and pool
// contracts, seed liquidity from two providers, swap, then withdraw all
// shares through the LP token send hook.
func runCw(cfg ScenarioConfig, log *zap.Logger) error {
	app := wasmvm.NewApp(log)

	cw20Code := app.StoreCode(func() wasmvm.Contract { return cw20.New() })
	poolCode := app.StoreCode(func() wasmvm.Contract { return pool.New() })
	factoryCode := app.StoreCode(func() wasmvm.Contract { return factory.New() })

	init, err := json.Marshal(factory.InstantiateMsg{
		DefaultPoolLogicCodeID: cw20Code,
		Admin:                  "admin",
	})
	if err != nil {
		return err
	}
	factoryAddr, _, err := app.Instantiate(factoryCode, "admin", init, nil, "factory")
	if err != nil {
		return fmt.Errorf("instantiate factory: %w", err)
	}
	log.Info("factory deployed", zap.String("address", factoryAddr))

	createMsg, err := json.Marshal(factory.ExecuteMsg{
		CreatePool: &factory.CreatePoolMsg{
			DenomA:          cfg.DenomA,
			DenomB:          cfg.DenomB,
			PoolLogicCodeID: poolCode,
		},
	})
	if err != nil {
		return err
	}
	if _, err := app.Execute(factoryAddr, "alice", createMsg, nil); err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	poolAddr, err := queryPoolAddress(app, factoryAddr, cfg, poolCode)
	if err != nil {
		return err
	}
	st, err := queryPoolState(app, poolAddr)
	if err != nil {
		return err
	}
	log.Info("pool created",
		zap.String("address", poolAddr),
		zap.String("lp_token", st.LpTokenAddress))

	if err := cwAddLiquidity(app, poolAddr, "alice", cfg.DenomA, cfg.DenomB, cfg.DepositA, cfg.DepositB); err != nil {
		return fmt.Errorf("alice add liquidity: %w", err)
	}
	if err := logPoolState(app, poolAddr, log, "after seed deposit"); err != nil {
		return err
	}

	if cfg.SecondA > 0 && cfg.SecondB > 0 {
		if err := cwAddLiquidity(app, poolAddr, "bob", cfg.DenomA, cfg.DenomB, cfg.SecondA, cfg.SecondB); err != nil {
			return fmt.Errorf("bob add liquidity: %w", err)
		}
		if err := logPoolState(app, poolAddr, log, "after second deposit"); err != nil {
			return err
		}
	}

	if cfg.SwapIn > 0 {
		app.MintCoins("carol", wasmvm.NewCoin(cfg.DenomA, cfg.SwapIn))
		swapMsg, err := json.Marshal(pool.ExecuteMsg{
			Swap: &pool.SwapMsg{OfferDenom: cfg.DenomA, MinReceive: math.NewInt(cfg.MinOut)},
		})
		if err != nil {
			return err
		}
		if _, err := app.Execute(poolAddr, "carol", swapMsg, []wasmvm.Coin{wasmvm.NewCoin(cfg.DenomA, cfg.SwapIn)}); err != nil {
			return fmt.Errorf("swap: %w", err)
		}
		log.Info("swap executed",
			zap.String("trader", "carol"),
			zap.Int64("amount_in", cfg.SwapIn),
			zap.String("received", app.BankBalance("carol", cfg.DenomB).String()))
		if err := logPoolState(app, poolAddr, log, "after swap"); err != nil {
			return err
		}
	}

	for _, provider := range []string{"bob", "alice"} {
		shares, err := cwLpBalance(app, st.LpTokenAddress, provider)
		if err != nil {
			return err
		}
		if shares.IsZero() {
			continue
		}
		if err := cwWithdraw(app, st.LpTokenAddress, poolAddr, provider, shares); err != nil {
			return fmt.Errorf("%s withdraw: %w", provider, err)
		}
		log.Info("liquidity withdrawn",
			zap.String("provider", provider),
			zap.String("shares_burned", shares.String()),
			zap.String(cfg.DenomA, app.BankBalance(provider, cfg.DenomA).String()),
			zap.String(cfg.DenomB, app.BankBalance(provider, cfg.DenomB).String()))
	}

	return logPoolState(app, poolAddr, log, "final")
}

func cwAddLiquidity(app *wasmvm.App, poolAddr, sender, denomA, denomB string, amountA, amountB int64) error {
	app.MintCoins(sender, wasmvm.NewCoin(denomA, amountA), wasmvm.NewCoin(denomB, amountB))
	msg, err := json.Marshal(pool.ExecuteMsg{AddLiquidity: &pool.AddLiquidityMsg{}})
	if err != nil {
		return err
	}
	_, err = app.Execute(poolAddr, sender, msg,
		[]wasmvm.Coin{wasmvm.NewCoin(denomA, amountA), wasmvm.NewCoin(denomB, amountB)})
	return err
}

func cwWithdraw(app *wasmvm.App, lpAddr, poolAddr, sender string, shares math.Int) error {
	msg, err := json.Marshal(cw20.ExecuteMsg{
		Send: &cw20.SendMsg{
			Contract: poolAddr,
			Amount:   shares,
			Msg:      json.RawMessage(`{"withdraw_liquidity":{}}`),
		},
	})
	if err != nil {
		return err
	}
	_, err = app.Execute(lpAddr, sender, msg, nil)
	return err
}

func cwLpBalance(app *wasmvm.App, lpAddr, holder string) (math.Int, error) {
	q, err := json.Marshal(cw20.QueryMsg{Balance: &cw20.BalanceQuery{Address: holder}})
	if err != nil {
		return math.Int{}, err
	}
	raw, err := app.Query(lpAddr, q)
	if err != nil {
		return math.Int{}, err
	}
	var resp cw20.BalanceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return math.Int{}, err
	}
	return resp.Balance, nil
}

func queryPoolAddress(app *wasmvm.App, factoryAddr string, cfg ScenarioConfig, poolCode uint64) (string, error) {
	q, err := json.Marshal(factory.QueryMsg{
		PoolAddress: &factory.PoolAddressQuery{
			DenomA:          cfg.DenomA,
			DenomB:          cfg.DenomB,
			PoolLogicCodeID: poolCode,
		},
	})
	if err != nil {
		return "", err
	}
	raw, err := app.Query(factoryAddr, q)
	if err != nil {
		return "", fmt.Errorf("query pool address: %w", err)
	}
	var resp factory.PoolAddressResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}

func queryPoolState(app *wasmvm.App, poolAddr string) (*pool.PoolStateResponse, error) {
	q, err := json.Marshal(pool.QueryMsg{PoolState: &struct{}{}})
	if err != nil {
		return nil, err
	}
	raw, err := app.Query(poolAddr, q)
	if err != nil {
		return nil, fmt.Errorf("query pool state: %w", err)
	}
	var st pool.PoolStateResponse
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func logPoolState(app *wasmvm.App, poolAddr string, log *zap.Logger, stage string) error {
	st, err := queryPoolState(app, poolAddr)
	if err != nil {
		return err
	}
	log.Info("pool state",
		zap.String("stage", stage),
		zap.String("reserve_a", st.ReserveA.String()),
		zap.String("reserve_b", st.ReserveB.String()),
		zap.String("total_lp_shares", st.TotalLpShares.String()))
	return nil
}
