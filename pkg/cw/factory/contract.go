package factory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dexforge/cpamm/pkg/cw/pool"
	"github.com/dexforge/cpamm/pkg/cw/wasmvm"
)

var (
	ErrIdenticalDenoms       = errors.New("pool denoms must differ")
	ErrPoolAlreadyExists     = errors.New("pool already exists for this pair")
	ErrPoolCreationPending   = errors.New("another pool creation is in flight")
	ErrFundsSentOnCreatePool = errors.New("create_pool accepts no funds")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrAdminCannotBeNone     = errors.New("admin cannot be unset")
	ErrUnknownReplyID        = errors.New("unknown reply id")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrUnknownMessage        = errors.New("unknown message variant")
)

const (
	keyConfig     = "config"
	keyPending    = "pending_pool_instance"
	poolKeyPrefix = "pools/"
	poolReplyID   = 1
)

type config struct {
	DefaultPoolLogicCodeID uint64 `json:"default_pool_logic_code_id"`
	Admin                  string `json:"admin"`
}

// pendingKey identifies the pool creation currently awaiting its reply.
// At most one exists at a time; its presence serializes CreatePool calls.
type pendingKey struct {
	DenomA          string `json:"denom_a"`
	DenomB          string `json:"denom_b"`
	PoolLogicCodeID uint64 `json:"pool_logic_code_id"`
}

func (k pendingKey) storageKey() string {
	return fmt.Sprintf("%s%s/%s/%d", poolKeyPrefix, k.DenomA, k.DenomB, k.PoolLogicCodeID)
}

// Contract is the factory contract implementation.
type Contract struct{}

// New returns a fresh factory contract instance.
func New() *Contract { return &Contract{} }

var _ wasmvm.Contract = (*Contract)(nil)

func (f *Contract) Instantiate(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	var init InstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, fmt.Errorf("parsing instantiate msg: %w", err)
	}
	if init.Admin == "" {
		return nil, ErrAdminCannotBeNone
	}
	cfg := config{DefaultPoolLogicCodeID: init.DefaultPoolLogicCodeID, Admin: init.Admin}
	if err := saveConfig(ctx.Store, cfg); err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddAttribute("action", "instantiate_factory").
		AddAttribute("admin", init.Admin).
		AddAttribute("default_pool_logic_code_id", fmt.Sprintf("%d", init.DefaultPoolLogicCodeID)), nil
}

func (f *Contract) Execute(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	var em ExecuteMsg
	if err := json.Unmarshal(msg, &em); err != nil {
		return nil, fmt.Errorf("parsing execute msg: %w", err)
	}
	switch {
	case em.CreatePool != nil:
		return f.createPool(ctx, info, em.CreatePool)
	case em.RegisterPoolType != nil:
		return f.registerPoolType(ctx, info, em.RegisterPoolType)
	case em.UpdateAdmin != nil:
		return f.updateAdmin(ctx, info, em.UpdateAdmin)
	case em.UpdateDefaultLpCodeID != nil:
		return f.updateDefaultLpCodeID(ctx, info, em.UpdateDefaultLpCodeID)
	default:
		return nil, ErrUnknownMessage
	}
}

func (f *Contract) createPool(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *CreatePoolMsg) (*wasmvm.Response, error) {
	if msg.DenomA == msg.DenomB {
		return nil, ErrIdenticalDenoms
	}
	denomA, denomB := orderedDenoms(msg.DenomA, msg.DenomB)
	key := pendingKey{DenomA: denomA, DenomB: denomB, PoolLogicCodeID: msg.PoolLogicCodeID}

	cfg, err := loadConfig(ctx.Store)
	if err != nil {
		return nil, err
	}
	if _, exists := ctx.Store.Get(key.storageKey()); exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrPoolAlreadyExists, denomA, denomB)
	}
	if _, pending := ctx.Store.Get(keyPending); pending {
		return nil, ErrPoolCreationPending
	}
	if len(info.Funds) != 0 {
		return nil, ErrFundsSentOnCreatePool
	}

	poolInit, err := json.Marshal(pool.InstantiateMsg{
		DenomA:        denomA,
		DenomB:        denomB,
		LpTokenCodeID: cfg.DefaultPoolLogicCodeID,
		FactoryAddr:   ctx.Env.ContractAddress,
	})
	if err != nil {
		return nil, err
	}

	rawKey, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	ctx.Store.Set(keyPending, rawKey)

	return wasmvm.NewResponse().
		AddSubMessage(poolReplyID, wasmvm.WasmInstantiateMsg{
			CodeID: msg.PoolLogicCodeID,
			Msg:    poolInit,
			Label:  fmt.Sprintf("DEX Pool-%s-%s (Logic %d)", denomA, denomB, msg.PoolLogicCodeID),
			Admin:  ctx.Env.ContractAddress,
		}).
		AddAttribute("action", "create_pool_instance").
		AddAttribute("pool_logic_code_id", fmt.Sprintf("%d", msg.PoolLogicCodeID)).
		AddAttribute("denom_a", denomA).
		AddAttribute("denom_b", denomB), nil
}

func (f *Contract) registerPoolType(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *RegisterPoolTypeMsg) (*wasmvm.Response, error) {
	if err := f.requireAdmin(ctx, info); err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddAttribute("action", "register_pool_type").
		AddAttribute("code_id", fmt.Sprintf("%d", msg.PoolLogicCodeID)), nil
}

func (f *Contract) updateAdmin(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *UpdateAdminMsg) (*wasmvm.Response, error) {
	cfg, err := loadConfig(ctx.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.Admin {
		return nil, ErrUnauthorized
	}
	if msg.NewAdmin == nil || *msg.NewAdmin == "" {
		return nil, ErrAdminCannotBeNone
	}
	cfg.Admin = *msg.NewAdmin
	if err := saveConfig(ctx.Store, cfg); err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddAttribute("action", "update_admin").
		AddAttribute("new_admin", cfg.Admin), nil
}

func (f *Contract) updateDefaultLpCodeID(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg *UpdateDefaultLpCodeIDMsg) (*wasmvm.Response, error) {
	cfg, err := loadConfig(ctx.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.Admin {
		return nil, ErrUnauthorized
	}
	cfg.DefaultPoolLogicCodeID = msg.NewCodeID
	if err := saveConfig(ctx.Store, cfg); err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddAttribute("action", "update_default_pool_logic_code_id").
		AddAttribute("new_code_id", fmt.Sprintf("%d", msg.NewCodeID)), nil
}

func (f *Contract) requireAdmin(ctx *wasmvm.Ctx, info wasmvm.MessageInfo) error {
	cfg, err := loadConfig(ctx.Store)
	if err != nil {
		return err
	}
	if info.Sender != cfg.Admin {
		return ErrUnauthorized
	}
	return nil
}

// Reply records the instantiated pool address under the pending key and
// releases the creation mutex.
func (f *Contract) Reply(ctx *wasmvm.Ctx, reply wasmvm.Reply) (*wasmvm.Response, error) {
	if reply.ID != poolReplyID {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReplyID, reply.ID)
	}
	poolAddr, err := wasmvm.ParseInstantiateData(reply.Data)
	if err != nil {
		return nil, err
	}

	rawKey, ok := ctx.Store.Get(keyPending)
	if !ok {
		return nil, errors.New("no pending pool creation")
	}
	var key pendingKey
	if err := json.Unmarshal(rawKey, &key); err != nil {
		return nil, err
	}

	ctx.Store.Set(key.storageKey(), []byte(poolAddr))
	ctx.Store.Delete(keyPending)

	return wasmvm.NewResponse().
		AddAttribute("action", "pool_instance_created").
		AddAttribute("pool_contract_address", poolAddr).
		AddAttribute("denom_a", key.DenomA).
		AddAttribute("denom_b", key.DenomB).
		AddAttribute("pool_logic_code_id", fmt.Sprintf("%d", key.PoolLogicCodeID)), nil
}

func (f *Contract) Query(ctx *wasmvm.Ctx, msg []byte) ([]byte, error) {
	var qm QueryMsg
	if err := json.Unmarshal(msg, &qm); err != nil {
		return nil, fmt.Errorf("parsing query msg: %w", err)
	}
	switch {
	case qm.PoolAddress != nil:
		denomA, denomB := orderedDenoms(qm.PoolAddress.DenomA, qm.PoolAddress.DenomB)
		key := pendingKey{DenomA: denomA, DenomB: denomB, PoolLogicCodeID: qm.PoolAddress.PoolLogicCodeID}
		addr, ok := ctx.Store.Get(key.storageKey())
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrPoolNotFound, denomA, denomB)
		}
		return json.Marshal(PoolAddressResponse{Address: string(addr)})
	case qm.Config != nil:
		cfg, err := loadConfig(ctx.Store)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ConfigResponse{
			Admin:                  cfg.Admin,
			DefaultPoolLogicCodeID: cfg.DefaultPoolLogicCodeID,
		})
	default:
		return nil, ErrUnknownMessage
	}
}

func orderedDenoms(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

func loadConfig(store *wasmvm.Store) (config, error) {
	raw, ok := store.Get(keyConfig)
	if !ok {
		return config{}, errors.New("factory config not set")
	}
	var cfg config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func saveConfig(store *wasmvm.Store, cfg config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	store.Set(keyConfig, raw)
	return nil
}
