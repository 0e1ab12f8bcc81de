package pool

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cosmossdk.io/math"

	"github.com/dexforge/cpamm/pkg/cw/cw20"
	"github.com/dexforge/cpamm/pkg/cw/wasmvm"
	"github.com/dexforge/cpamm/pkg/pricing"
)

const (
	keyPoolConfig        = "pool_config"
	instantiateLpReplyID = 1
	lpTokenDecimals      = 6
)

type poolConfig struct {
	FactoryAddr string `json:"factory_addr"`
	DenomA      string `json:"denom_a"`
	DenomB      string `json:"denom_b"`
	LpTokenAddr string `json:"lp_token_addr"`
}

// Contract is the pool contract implementation. It holds no state of its
// own: configuration lives in the host store and reserves are read live from
// the bank ledger on every operation.
type Contract struct {
	engine pricing.Engine
}

// New returns a pool contract using the floor-rounding pricing engine.
func New() *Contract {
	return &Contract{engine: pricing.NewFloorOutputFee()}
}

var _ wasmvm.Contract = (*Contract)(nil)

func (p *Contract) Instantiate(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	var init InstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, fmt.Errorf("parsing instantiate msg: %w", err)
	}
	denomA, denomB := init.DenomA, init.DenomB
	if denomB < denomA {
		denomA, denomB = denomB, denomA
	}

	cfg := poolConfig{
		FactoryAddr: init.FactoryAddr,
		DenomA:      denomA,
		DenomB:      denomB,
	}
	if err := saveConfig(ctx.Store, cfg); err != nil {
		return nil, err
	}

	lpInit, err := json.Marshal(cw20.InstantiateMsg{
		Name:     fmt.Sprintf("%s-%s LP", denomA, denomB),
		Symbol:   fmt.Sprintf("LP-%s-%s", symbolFragment(denomA), symbolFragment(denomB)),
		Decimals: lpTokenDecimals,
		Mint:     &cw20.MinterInfo{Minter: ctx.Env.ContractAddress},
	})
	if err != nil {
		return nil, err
	}

	return wasmvm.NewResponse().
		AddSubMessage(instantiateLpReplyID, wasmvm.WasmInstantiateMsg{
			CodeID: init.LpTokenCodeID,
			Msg:    lpInit,
			Label:  fmt.Sprintf("DEX LP %s-%s", denomA, denomB),
			Admin:  ctx.Env.ContractAddress,
		}).
		AddAttribute("action", "instantiate_pool_contract").
		AddAttribute("factory", init.FactoryAddr).
		AddAttribute("denom_a", denomA).
		AddAttribute("denom_b", denomB).
		AddAttribute("lp_token_code_id", fmt.Sprintf("%d", init.LpTokenCodeID)), nil
}

// symbolFragment derives up to four uppercase characters from a denom,
// dropping the conventional micro-unit "u" prefix.
func symbolFragment(denom string) string {
	cleaned := strings.TrimPrefix(denom, "u")
	if len(cleaned) > 4 {
		cleaned = cleaned[:4]
	}
	return strings.ToUpper(cleaned)
}

func (p *Contract) Reply(ctx *wasmvm.Ctx, reply wasmvm.Reply) (*wasmvm.Response, error) {
	if reply.ID != instantiateLpReplyID {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReplyID, reply.ID)
	}
	lpAddr, err := wasmvm.ParseInstantiateData(reply.Data)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx.Store)
	if err != nil {
		return nil, err
	}
	if cfg.LpTokenAddr != "" {
		return nil, ErrLpTokenAlreadySet
	}
	cfg.LpTokenAddr = lpAddr
	if err := saveConfig(ctx.Store, cfg); err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddAttribute("action", "lp_token_instantiated").
		AddAttribute("lp_token_address", lpAddr), nil
}

func (p *Contract) Execute(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	var em ExecuteMsg
	if err := json.Unmarshal(msg, &em); err != nil {
		return nil, fmt.Errorf("parsing execute msg: %w", err)
	}
	switch {
	case em.AddLiquidity != nil:
		return p.addLiquidity(ctx, info)
	case em.Swap != nil:
		return p.swap(ctx, info, em.Swap)
	case em.Receive != nil:
		return p.receive(ctx, info, em.Receive)
	default:
		return nil, ErrUnknownMessage
	}
}

func (p *Contract) addLiquidity(ctx *wasmvm.Ctx, info wasmvm.MessageInfo) (*wasmvm.Response, error) {
	cfg, err := loadInitializedConfig(ctx.Store)
	if err != nil {
		return nil, err
	}

	// bank balances already include the attached deposit
	currentReserveA := ctx.BankBalance(ctx.Env.ContractAddress, cfg.DenomA)
	currentReserveB := ctx.BankBalance(ctx.Env.ContractAddress, cfg.DenomB)
	totalShares, err := queryLpTotalSupply(ctx, cfg.LpTokenAddr)
	if err != nil {
		return nil, err
	}

	amountA, amountB, err := liquidityFunds(info.Funds, cfg.DenomA, cfg.DenomB)
	if err != nil {
		return nil, err
	}

	var shares math.Int
	initial := totalShares.IsZero()
	if initial {
		shares, err = p.engine.InitialShares(amountA, amountB)
		if err != nil {
			return nil, err
		}
	} else {
		reserveABefore := currentReserveA.Sub(amountA)
		reserveBBefore := currentReserveB.Sub(amountB)
		if err := pricing.ValidateDepositRatio(amountA, amountB, reserveABefore, reserveBBefore); err != nil {
			return nil, err
		}
		shares, err = p.engine.SubsequentShares(amountA, amountB, reserveABefore, reserveBBefore, totalShares)
		if err != nil {
			return nil, err
		}
	}

	mintMsg, err := lpExecuteMsg(cfg.LpTokenAddr, cw20.ExecuteMsg{
		Mint: &cw20.MintMsg{Recipient: info.Sender, Amount: shares},
	})
	if err != nil {
		return nil, err
	}

	eventType := "liquidity_added"
	if initial {
		eventType = "initial_liquidity_provided"
	}
	return wasmvm.NewResponse().
		AddMessage(mintMsg).
		AddAttribute("action", "add_liquidity").
		AddAttribute("sender", info.Sender).
		AddAttribute("denom_a_deposited", amountA.String()).
		AddAttribute("denom_b_deposited", amountB.String()).
		AddAttribute("shares_minted", shares.String()).
		AddEvent(wasmvm.NewEvent(eventType,
			"sender", info.Sender,
			"amount_a", amountA.String(),
			"amount_b", amountB.String(),
			"shares", shares.String(),
		)), nil
}

func (p *Contract) swap(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *SwapMsg) (*wasmvm.Response, error) {
	cfg, err := loadInitializedConfig(ctx.Store)
	if err != nil {
		return nil, err
	}

	offerAmount, err := offerAmount(info.Funds, msg.OfferDenom)
	if err != nil {
		return nil, err
	}

	// reserves are queried after the offer was credited, so reserveIn
	// already includes it
	currentReserveA := ctx.BankBalance(ctx.Env.ContractAddress, cfg.DenomA)
	currentReserveB := ctx.BankBalance(ctx.Env.ContractAddress, cfg.DenomB)

	var askDenom string
	var reserveIn, reserveOut math.Int
	switch msg.OfferDenom {
	case cfg.DenomA:
		askDenom, reserveIn, reserveOut = cfg.DenomB, currentReserveA, currentReserveB
	case cfg.DenomB:
		askDenom, reserveIn, reserveOut = cfg.DenomA, currentReserveB, currentReserveA
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidLiquidityDenom, msg.OfferDenom)
	}

	output, err := p.engine.SwapOutput(offerAmount, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}

	minReceive := msg.MinReceive
	if minReceive.IsNil() {
		minReceive = math.ZeroInt()
	}
	if output.LT(minReceive) {
		return nil, fmt.Errorf("%w: output %s, min_receive %s", ErrMinimumReceiveViolation, output, minReceive)
	}

	return wasmvm.NewResponse().
		AddMessage(wasmvm.BankSendMsg{
			ToAddress: info.Sender,
			Amount:    []wasmvm.Coin{{Denom: askDenom, Amount: output}},
		}).
		AddAttribute("action", "swap").
		AddAttribute("sender", info.Sender).
		AddAttribute("offer_denom", msg.OfferDenom).
		AddAttribute("ask_denom", askDenom).
		AddAttribute("offer_amount", offerAmount.String()).
		AddAttribute("return_amount", output.String()).
		AddEvent(wasmvm.NewEvent("swap",
			"sender", info.Sender,
			"offer_denom", msg.OfferDenom,
			"offer_amount", offerAmount.String(),
			"ask_denom", askDenom,
			"return_amount", output.String(),
		)), nil
}

func (p *Contract) receive(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *cw20.ReceiveMsg) (*wasmvm.Response, error) {
	cfg, err := loadConfig(ctx.Store)
	if err != nil {
		return nil, err
	}
	if cfg.LpTokenAddr == "" || info.Sender != cfg.LpTokenAddr {
		return nil, fmt.Errorf("%w: expected %s", ErrUnauthorizedLpToken, cfg.LpTokenAddr)
	}

	var hook HookMsg
	if err := json.Unmarshal(msg.Msg, &hook); err != nil {
		return nil, fmt.Errorf("parsing hook msg: %w", err)
	}
	if hook.WithdrawLiquidity == nil {
		return nil, ErrUnknownMessage
	}
	if msg.Amount.IsNil() || msg.Amount.IsZero() {
		return nil, ErrZeroWithdrawAmount
	}

	currentReserveA := ctx.BankBalance(ctx.Env.ContractAddress, cfg.DenomA)
	currentReserveB := ctx.BankBalance(ctx.Env.ContractAddress, cfg.DenomB)
	totalShares, err := queryLpTotalSupply(ctx, cfg.LpTokenAddr)
	if err != nil {
		return nil, err
	}

	returnA, returnB, err := p.engine.WithdrawAmounts(msg.Amount, currentReserveA, currentReserveB, totalShares)
	if err != nil {
		return nil, err
	}

	// burn the LP tokens the Send hook just credited to this contract
	burnMsg, err := lpExecuteMsg(cfg.LpTokenAddr, cw20.ExecuteMsg{
		Burn: &cw20.BurnMsg{Amount: msg.Amount},
	})
	if err != nil {
		return nil, err
	}

	return wasmvm.NewResponse().
		AddMessage(burnMsg).
		AddMessage(wasmvm.BankSendMsg{
			ToAddress: msg.Sender,
			Amount: []wasmvm.Coin{
				{Denom: cfg.DenomA, Amount: returnA},
				{Denom: cfg.DenomB, Amount: returnB},
			},
		}).
		AddAttribute("action", "withdraw_liquidity").
		AddAttribute("sender", msg.Sender).
		AddAttribute("lp_token_contract", info.Sender).
		AddAttribute("withdrawn_share", msg.Amount.String()).
		AddAttribute("return_a", returnA.String()).
		AddAttribute("return_b", returnB.String()).
		AddEvent(wasmvm.NewEvent("liquidity_removed",
			"sender", msg.Sender,
			"shares_burned", msg.Amount.String(),
			"return_a", returnA.String(),
			"return_b", returnB.String(),
		)), nil
}

func (p *Contract) Query(ctx *wasmvm.Ctx, msg []byte) ([]byte, error) {
	var qm QueryMsg
	if err := json.Unmarshal(msg, &qm); err != nil {
		return nil, fmt.Errorf("parsing query msg: %w", err)
	}
	if qm.PoolState == nil {
		return nil, ErrUnknownMessage
	}

	cfg, err := loadConfig(ctx.Store)
	if err != nil {
		return nil, err
	}
	totalShares := math.ZeroInt()
	if cfg.LpTokenAddr != "" {
		totalShares, err = queryLpTotalSupply(ctx, cfg.LpTokenAddr)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(PoolStateResponse{
		DenomA:         cfg.DenomA,
		DenomB:         cfg.DenomB,
		ReserveA:       ctx.BankBalance(ctx.Env.ContractAddress, cfg.DenomA),
		ReserveB:       ctx.BankBalance(ctx.Env.ContractAddress, cfg.DenomB),
		TotalLpShares:  totalShares,
		LpTokenAddress: cfg.LpTokenAddr,
	})
}

// liquidityFunds validates that the attached funds are exactly the two pool
// denoms with nonzero amounts and returns them in pool order.
func liquidityFunds(funds []wasmvm.Coin, denomA, denomB string) (math.Int, math.Int, error) {
	amountA, amountB := math.ZeroInt(), math.ZeroInt()
	for _, c := range funds {
		switch c.Denom {
		case denomA:
			amountA = c.Amount
		case denomB:
			amountB = c.Amount
		default:
			return math.Int{}, math.Int{}, fmt.Errorf("%w: %s", ErrInvalidLiquidityDenom, c.Denom)
		}
	}
	if amountA.IsZero() || amountB.IsZero() {
		return math.Int{}, math.Int{}, ErrMissingLiquidityToken
	}
	return amountA, amountB, nil
}

// offerAmount extracts the attached amount matching the offer denom.
func offerAmount(funds []wasmvm.Coin, offerDenom string) (math.Int, error) {
	for _, c := range funds {
		if c.Denom == offerDenom {
			if c.Amount.IsZero() {
				return math.Int{}, ErrZeroOfferAmount
			}
			return c.Amount, nil
		}
	}
	return math.Int{}, fmt.Errorf("%w: %s", ErrNoMatchingOfferCoin, offerDenom)
}

func lpExecuteMsg(lpAddr string, msg cw20.ExecuteMsg) (wasmvm.Msg, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return wasmvm.WasmExecuteMsg{ContractAddr: lpAddr, Msg: raw}, nil
}

func queryLpTotalSupply(ctx *wasmvm.Ctx, lpAddr string) (math.Int, error) {
	raw, err := json.Marshal(cw20.QueryMsg{TokenInfo: &struct{}{}})
	if err != nil {
		return math.Int{}, err
	}
	out, err := ctx.QuerySmart(lpAddr, raw)
	if err != nil {
		return math.Int{}, fmt.Errorf("querying lp total supply: %w", err)
	}
	var resp cw20.TokenInfoResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return math.Int{}, err
	}
	return resp.TotalSupply, nil
}

func loadConfig(store *wasmvm.Store) (poolConfig, error) {
	raw, ok := store.Get(keyPoolConfig)
	if !ok {
		return poolConfig{}, errors.New("pool config not set")
	}
	var cfg poolConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return poolConfig{}, err
	}
	return cfg, nil
}

func loadInitializedConfig(store *wasmvm.Store) (poolConfig, error) {
	cfg, err := loadConfig(store)
	if err != nil {
		return poolConfig{}, err
	}
	if cfg.LpTokenAddr == "" {
		return poolConfig{}, ErrNotInitialized
	}
	return cfg, nil
}

func saveConfig(store *wasmvm.Store, cfg poolConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	store.Set(keyPoolConfig, raw)
	return nil
}
