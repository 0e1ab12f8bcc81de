// Package pool implements the constant-product pool contract: two bank
// denoms in custody, a cw20 LP token instantiated asynchronously, and
// add/swap/withdraw operations priced by the floor-rounding engine.
package pool

import (
	"cosmossdk.io/math"

	"github.com/dexforge/cpamm/pkg/cw/cw20"
)

// InstantiateMsg is sent by the factory when creating a pool instance.
type InstantiateMsg struct {
	DenomA        string `json:"denom_a"`
	DenomB        string `json:"denom_b"`
	LpTokenCodeID uint64 `json:"lp_token_code_id"`
	FactoryAddr   string `json:"factory_addr"`
}

// ExecuteMsg is the execute enum; exactly one field is set.
type ExecuteMsg struct {
	AddLiquidity *AddLiquidityMsg `json:"add_liquidity,omitempty"`
	Swap         *SwapMsg         `json:"swap,omitempty"`
	Receive      *cw20.ReceiveMsg `json:"receive,omitempty"`
}

// AddLiquidityMsg carries no fields; deposit amounts come from attached
// funds.
type AddLiquidityMsg struct{}

type SwapMsg struct {
	OfferDenom string   `json:"offer_denom"`
	MinReceive math.Int `json:"min_receive"`
}

// HookMsg is the payload wrapped inside the cw20 receive hook.
type HookMsg struct {
	WithdrawLiquidity *struct{} `json:"withdraw_liquidity,omitempty"`
}

// QueryMsg is the query enum; exactly one field is set.
type QueryMsg struct {
	PoolState *struct{} `json:"pool_state,omitempty"`
}

type PoolStateResponse struct {
	DenomA         string   `json:"denom_a"`
	DenomB         string   `json:"denom_b"`
	ReserveA       math.Int `json:"reserve_a"`
	ReserveB       math.Int `json:"reserve_b"`
	TotalLpShares  math.Int `json:"total_lp_shares"`
	LpTokenAddress string   `json:"lp_token_address"`
}
