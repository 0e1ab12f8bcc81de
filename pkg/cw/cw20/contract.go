package cw20

import (
	"encoding/json"
	"errors"
	"fmt"

	"cosmossdk.io/math"

	"github.com/dexforge/cpamm/pkg/cw/wasmvm"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidZeroAmount   = errors.New("invalid zero amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownMessage      = errors.New("unknown message variant")
)

const (
	keyTokenInfo     = "token_info"
	balanceKeyPrefix = "balances/"
)

type tokenInfo struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Decimals    uint8    `json:"decimals"`
	TotalSupply math.Int `json:"total_supply"`
	Minter      string   `json:"minter,omitempty"`
}

// Token is the contract implementation. All state lives in the host store.
type Token struct{}

// New returns a fresh token contract instance.
func New() *Token { return &Token{} }

var _ wasmvm.Contract = (*Token)(nil)

func (t *Token) Instantiate(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	var init InstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, fmt.Errorf("parsing instantiate msg: %w", err)
	}
	ti := tokenInfo{
		Name:        init.Name,
		Symbol:      init.Symbol,
		Decimals:    init.Decimals,
		TotalSupply: math.ZeroInt(),
	}
	if init.Mint != nil {
		ti.Minter = init.Mint.Minter
	}
	if err := saveTokenInfo(ctx.Store, ti); err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("symbol", init.Symbol), nil
}

func (t *Token) Execute(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	var em ExecuteMsg
	if err := json.Unmarshal(msg, &em); err != nil {
		return nil, fmt.Errorf("parsing execute msg: %w", err)
	}
	switch {
	case em.Mint != nil:
		return t.mint(ctx, info, em.Mint)
	case em.Burn != nil:
		return t.burn(ctx, info, em.Burn)
	case em.Transfer != nil:
		return t.transfer(ctx, info, em.Transfer)
	case em.Send != nil:
		return t.sendTo(ctx, info, em.Send)
	default:
		return nil, ErrUnknownMessage
	}
}

func (t *Token) mint(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *MintMsg) (*wasmvm.Response, error) {
	if msg.Amount.IsNil() || !msg.Amount.IsPositive() {
		return nil, ErrInvalidZeroAmount
	}
	ti, err := loadTokenInfo(ctx.Store)
	if err != nil {
		return nil, err
	}
	if ti.Minter == "" || info.Sender != ti.Minter {
		return nil, ErrUnauthorized
	}
	ti.TotalSupply = ti.TotalSupply.Add(msg.Amount)
	if err := saveTokenInfo(ctx.Store, ti); err != nil {
		return nil, err
	}
	addBalance(ctx.Store, msg.Recipient, msg.Amount)
	return wasmvm.NewResponse().
		AddAttribute("action", "mint").
		AddAttribute("to", msg.Recipient).
		AddAttribute("amount", msg.Amount.String()), nil
}

func (t *Token) burn(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *BurnMsg) (*wasmvm.Response, error) {
	if msg.Amount.IsNil() || !msg.Amount.IsPositive() {
		return nil, ErrInvalidZeroAmount
	}
	if err := subBalance(ctx.Store, info.Sender, msg.Amount); err != nil {
		return nil, err
	}
	ti, err := loadTokenInfo(ctx.Store)
	if err != nil {
		return nil, err
	}
	ti.TotalSupply = ti.TotalSupply.Sub(msg.Amount)
	if err := saveTokenInfo(ctx.Store, ti); err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddAttribute("action", "burn").
		AddAttribute("from", info.Sender).
		AddAttribute("amount", msg.Amount.String()), nil
}

func (t *Token) transfer(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *TransferMsg) (*wasmvm.Response, error) {
	if msg.Amount.IsNil() || !msg.Amount.IsPositive() {
		return nil, ErrInvalidZeroAmount
	}
	if err := subBalance(ctx.Store, info.Sender, msg.Amount); err != nil {
		return nil, err
	}
	addBalance(ctx.Store, msg.Recipient, msg.Amount)
	return wasmvm.NewResponse().
		AddAttribute("action", "transfer").
		AddAttribute("from", info.Sender).
		AddAttribute("to", msg.Recipient).
		AddAttribute("amount", msg.Amount.String()), nil
}

// sendTo moves tokens to a contract and emits the receive hook so the target
// can act on them within the same transaction.
func (t *Token) sendTo(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *SendMsg) (*wasmvm.Response, error) {
	if msg.Amount.IsNil() || !msg.Amount.IsPositive() {
		return nil, ErrInvalidZeroAmount
	}
	if err := subBalance(ctx.Store, info.Sender, msg.Amount); err != nil {
		return nil, err
	}
	addBalance(ctx.Store, msg.Contract, msg.Amount)

	hook, err := json.Marshal(struct {
		Receive ReceiveMsg `json:"receive"`
	}{Receive: ReceiveMsg{Sender: info.Sender, Amount: msg.Amount, Msg: msg.Msg}})
	if err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddMessage(wasmvm.WasmExecuteMsg{ContractAddr: msg.Contract, Msg: hook}).
		AddAttribute("action", "send").
		AddAttribute("from", info.Sender).
		AddAttribute("to", msg.Contract).
		AddAttribute("amount", msg.Amount.String()), nil
}

func (t *Token) Query(ctx *wasmvm.Ctx, msg []byte) ([]byte, error) {
	var qm QueryMsg
	if err := json.Unmarshal(msg, &qm); err != nil {
		return nil, fmt.Errorf("parsing query msg: %w", err)
	}
	switch {
	case qm.TokenInfo != nil:
		ti, err := loadTokenInfo(ctx.Store)
		if err != nil {
			return nil, err
		}
		return json.Marshal(TokenInfoResponse{
			Name:        ti.Name,
			Symbol:      ti.Symbol,
			Decimals:    ti.Decimals,
			TotalSupply: ti.TotalSupply,
		})
	case qm.Balance != nil:
		return json.Marshal(BalanceResponse{Balance: balanceOf(ctx.Store, qm.Balance.Address)})
	default:
		return nil, ErrUnknownMessage
	}
}

func (t *Token) Reply(ctx *wasmvm.Ctx, reply wasmvm.Reply) (*wasmvm.Response, error) {
	return nil, fmt.Errorf("unexpected reply id %d", reply.ID)
}

func loadTokenInfo(store *wasmvm.Store) (tokenInfo, error) {
	raw, ok := store.Get(keyTokenInfo)
	if !ok {
		return tokenInfo{}, errors.New("token info not set")
	}
	var ti tokenInfo
	if err := json.Unmarshal(raw, &ti); err != nil {
		return tokenInfo{}, err
	}
	return ti, nil
}

func saveTokenInfo(store *wasmvm.Store, ti tokenInfo) error {
	raw, err := json.Marshal(ti)
	if err != nil {
		return err
	}
	store.Set(keyTokenInfo, raw)
	return nil
}

func balanceOf(store *wasmvm.Store, addr string) math.Int {
	raw, ok := store.Get(balanceKeyPrefix + addr)
	if !ok {
		return math.ZeroInt()
	}
	var amt math.Int
	if err := json.Unmarshal(raw, &amt); err != nil {
		return math.ZeroInt()
	}
	return amt
}

func setBalance(store *wasmvm.Store, addr string, amt math.Int) {
	if amt.IsZero() {
		store.Delete(balanceKeyPrefix + addr)
		return
	}
	raw, _ := json.Marshal(amt)
	store.Set(balanceKeyPrefix+addr, raw)
}

func addBalance(store *wasmvm.Store, addr string, amt math.Int) {
	setBalance(store, addr, balanceOf(store, addr).Add(amt))
}

func subBalance(store *wasmvm.Store, addr string, amt math.Int) error {
	cur := balanceOf(store, addr)
	if cur.LT(amt) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, addr, cur, amt)
	}
	setBalance(store, addr, cur.Sub(amt))
	return nil
}
