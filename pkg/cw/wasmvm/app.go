package wasmvm

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"go.uber.org/zap"
)

// Contract is the entry-point set a contract instance exposes to the host.
type Contract interface {
	Instantiate(ctx *Ctx, info MessageInfo, msg []byte) (*Response, error)
	Execute(ctx *Ctx, info MessageInfo, msg []byte) (*Response, error)
	Query(ctx *Ctx, msg []byte) ([]byte, error)
	Reply(ctx *Ctx, reply Reply) (*Response, error)
}

// Ctx is the host handle passed into contract entry points.
type Ctx struct {
	Env   Env
	Store *Store

	app *App
}

// BankBalance reports the live bank balance of addr in denom.
func (c *Ctx) BankBalance(addr, denom string) math.Int {
	return c.app.BankBalance(addr, denom)
}

// QuerySmart runs a read-only query against another contract.
func (c *Ctx) QuerySmart(contractAddr string, msg []byte) ([]byte, error) {
	return c.app.Query(contractAddr, msg)
}

type instance struct {
	contract Contract
	store    *Store
}

// App hosts contract instances and the bank ledger, and drives message
// dispatch. Top-level Instantiate/Execute calls are transactional: any error
// rolls the whole state back.
type App struct {
	codes     map[uint64]func() Contract
	nextCode  uint64
	instances map[string]*instance
	nextAddr  uint64
	bank      map[string]map[string]math.Int
	log       *zap.Logger
}

// NewApp returns an empty host.
func NewApp(log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		codes:     make(map[uint64]func() Contract),
		nextCode:  1,
		instances: make(map[string]*instance),
		bank:      make(map[string]map[string]math.Int),
		log:       log,
	}
}

// StoreCode registers a contract constructor and returns its code ID.
func (a *App) StoreCode(factory func() Contract) uint64 {
	id := a.nextCode
	a.nextCode++
	a.codes[id] = factory
	return id
}

// MintCoins credits coins to addr. Test and genesis helper.
func (a *App) MintCoins(addr string, coins ...Coin) {
	for _, c := range coins {
		a.credit(addr, c.Denom, c.Amount)
	}
}

// BankBalance reports addr's balance in denom, zero if absent.
func (a *App) BankBalance(addr, denom string) math.Int {
	if bals, ok := a.bank[addr]; ok {
		if amt, ok := bals[denom]; ok {
			return amt
		}
	}
	return math.ZeroInt()
}

func (a *App) credit(addr, denom string, amount math.Int) {
	if amount.IsZero() {
		return
	}
	bals, ok := a.bank[addr]
	if !ok {
		bals = make(map[string]math.Int)
		a.bank[addr] = bals
	}
	cur, ok := bals[denom]
	if !ok {
		cur = math.ZeroInt()
	}
	bals[denom] = cur.Add(amount)
}

func (a *App) send(from, to string, coins []Coin) error {
	for _, c := range coins {
		if c.Amount.IsZero() {
			continue
		}
		cur := a.BankBalance(from, c.Denom)
		if cur.LT(c.Amount) {
			return fmt.Errorf("%w: %s has %s%s, needs %s", ErrInsufficientFunds, from, cur, c.Denom, c.Amount)
		}
		a.bank[from][c.Denom] = cur.Sub(c.Amount)
		a.credit(to, c.Denom, c.Amount)
	}
	return nil
}

type snapshot struct {
	bank      map[string]map[string]math.Int
	instances map[string]*instance
	nextAddr  uint64
}

func (a *App) snapshot() snapshot {
	bank := make(map[string]map[string]math.Int, len(a.bank))
	for addr, bals := range a.bank {
		cp := make(map[string]math.Int, len(bals))
		for d, amt := range bals {
			cp[d] = amt
		}
		bank[addr] = cp
	}
	insts := make(map[string]*instance, len(a.instances))
	for addr, inst := range a.instances {
		insts[addr] = &instance{contract: inst.contract, store: inst.store.clone()}
	}
	return snapshot{bank: bank, instances: insts, nextAddr: a.nextAddr}
}

func (a *App) restore(s snapshot) {
	a.bank = s.bank
	a.instances = s.instances
	a.nextAddr = s.nextAddr
}

// ExecResult collects what a successful top-level call produced.
type ExecResult struct {
	Attributes []Attribute
	Events     []Event
	Data       []byte
}

// HasAttribute reports whether the result carries the given attribute pair.
func (r *ExecResult) HasAttribute(key, value string) bool {
	for _, at := range r.Attributes {
		if at.Key == key && at.Value == value {
			return true
		}
	}
	return false
}

// Attribute returns the value of the first attribute with the given key.
func (r *ExecResult) Attribute(key string) (string, bool) {
	for _, at := range r.Attributes {
		if at.Key == key {
			return at.Value, true
		}
	}
	return "", false
}

// Instantiate creates an instance of codeID and runs its Instantiate entry
// point transactionally. Returns the new contract address.
func (a *App) Instantiate(codeID uint64, sender string, msg []byte, funds []Coin, label string) (string, *ExecResult, error) {
	snap := a.snapshot()
	res := &ExecResult{}
	addr, err := a.doInstantiate(codeID, sender, msg, funds, label, res)
	if err != nil {
		a.restore(snap)
		a.log.Debug("instantiate rolled back", zap.Uint64("code_id", codeID), zap.Error(err))
		return "", nil, err
	}
	return addr, res, nil
}

// Execute runs a contract's Execute entry point transactionally. Funds are
// credited to the contract before the entry point runs, so live bank balances
// observed during execution already include them.
func (a *App) Execute(contractAddr, sender string, msg []byte, funds []Coin) (*ExecResult, error) {
	snap := a.snapshot()
	res := &ExecResult{}
	if err := a.doExecute(contractAddr, sender, msg, funds, res); err != nil {
		a.restore(snap)
		a.log.Debug("execute rolled back", zap.String("contract", contractAddr), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// Query runs a contract's read-only Query entry point.
func (a *App) Query(contractAddr string, msg []byte) ([]byte, error) {
	inst, ok := a.instances[contractAddr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContractNotFound, contractAddr)
	}
	ctx := &Ctx{Env: Env{ContractAddress: contractAddr}, Store: inst.store, app: a}
	return inst.contract.Query(ctx, msg)
}

func (a *App) doInstantiate(codeID uint64, sender string, msg []byte, funds []Coin, label string, res *ExecResult) (string, error) {
	factory, ok := a.codes[codeID]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrCodeNotFound, codeID)
	}
	addr := fmt.Sprintf("contract%d", a.nextAddr)
	a.nextAddr++
	inst := &instance{contract: factory(), store: newStore()}
	a.instances[addr] = inst

	if err := a.send(sender, addr, funds); err != nil {
		return "", err
	}
	ctx := &Ctx{Env: Env{ContractAddress: addr}, Store: inst.store, app: a}
	resp, err := inst.contract.Instantiate(ctx, MessageInfo{Sender: sender, Funds: funds}, msg)
	if err != nil {
		return "", fmt.Errorf("instantiate %s (%s): %w", addr, label, err)
	}
	if err := a.processResponse(addr, resp, res); err != nil {
		return "", err
	}
	return addr, nil
}

func (a *App) doExecute(contractAddr, sender string, msg []byte, funds []Coin, res *ExecResult) error {
	inst, ok := a.instances[contractAddr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrContractNotFound, contractAddr)
	}
	if err := a.send(sender, contractAddr, funds); err != nil {
		return err
	}
	ctx := &Ctx{Env: Env{ContractAddress: contractAddr}, Store: inst.store, app: a}
	resp, err := inst.contract.Execute(ctx, MessageInfo{Sender: sender, Funds: funds}, msg)
	if err != nil {
		return fmt.Errorf("execute %s: %w", contractAddr, err)
	}
	return a.processResponse(contractAddr, resp, res)
}

// processResponse dispatches a response's submessages then messages, in
// order, and folds its attributes/events/data into res. Submessage success
// is continued into the emitting contract's Reply entry point.
func (a *App) processResponse(emitter string, resp *Response, res *ExecResult) error {
	if resp == nil {
		return nil
	}
	res.Attributes = append(res.Attributes, resp.Attributes...)
	res.Events = append(res.Events, resp.Events...)
	if len(resp.Data) > 0 {
		res.Data = resp.Data
	}

	for _, sub := range resp.SubMessages {
		data, err := a.dispatchMsg(emitter, sub.Msg, res)
		if err != nil {
			return err
		}
		inst := a.instances[emitter]
		ctx := &Ctx{Env: Env{ContractAddress: emitter}, Store: inst.store, app: a}
		replyResp, err := inst.contract.Reply(ctx, Reply{ID: sub.ID, Data: data})
		if err != nil {
			return fmt.Errorf("reply %s id=%d: %w", emitter, sub.ID, err)
		}
		if err := a.processResponse(emitter, replyResp, res); err != nil {
			return err
		}
	}
	for _, m := range resp.Messages {
		if _, err := a.dispatchMsg(emitter, m, res); err != nil {
			return err
		}
	}
	return nil
}

// dispatchMsg executes one emitted message with the emitter as sender and
// returns the data payload for a potential reply.
func (a *App) dispatchMsg(emitter string, m Msg, res *ExecResult) ([]byte, error) {
	switch msg := m.(type) {
	case BankSendMsg:
		return nil, a.send(emitter, msg.ToAddress, msg.Amount)
	case WasmExecuteMsg:
		return nil, a.doExecute(msg.ContractAddr, emitter, msg.Msg, msg.Funds, res)
	case WasmInstantiateMsg:
		addr, err := a.doInstantiate(msg.CodeID, emitter, msg.Msg, nil, msg.Label, res)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(instantiateData{ContractAddress: addr})
		if err != nil {
			return nil, err
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported message type %T", m)
	}
}
