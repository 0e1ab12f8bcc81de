package factory_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexforge/cpamm/pkg/cw/cw20"
	"github.com/dexforge/cpamm/pkg/cw/factory"
	"github.com/dexforge/cpamm/pkg/cw/pool"
	"github.com/dexforge/cpamm/pkg/cw/wasmvm"
)

const admin = "admin"

type fixture struct {
	app         *wasmvm.App
	factoryAddr string
	poolCode    uint64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	app := wasmvm.NewApp(nil)
	cw20Code := app.StoreCode(func() wasmvm.Contract { return cw20.New() })
	poolCode := app.StoreCode(func() wasmvm.Contract { return pool.New() })
	factoryCode := app.StoreCode(func() wasmvm.Contract { return factory.New() })

	init, err := json.Marshal(factory.InstantiateMsg{
		DefaultPoolLogicCodeID: cw20Code,
		Admin:                  admin,
	})
	require.NoError(t, err)
	addr, _, err := app.Instantiate(factoryCode, admin, init, nil, "factory")
	require.NoError(t, err)
	return &fixture{app: app, factoryAddr: addr, poolCode: poolCode}
}

func (f *fixture) exec(t *testing.T, sender string, msg factory.ExecuteMsg, funds ...wasmvm.Coin) (*wasmvm.ExecResult, error) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return f.app.Execute(f.factoryAddr, sender, raw, funds)
}

func (f *fixture) createPool(t *testing.T, denomA, denomB string) (*wasmvm.ExecResult, error) {
	t.Helper()
	return f.exec(t, "alice", factory.ExecuteMsg{
		CreatePool: &factory.CreatePoolMsg{DenomA: denomA, DenomB: denomB, PoolLogicCodeID: f.poolCode},
	})
}

func (f *fixture) poolAddress(t *testing.T, denomA, denomB string) (string, error) {
	t.Helper()
	raw, err := json.Marshal(factory.QueryMsg{
		PoolAddress: &factory.PoolAddressQuery{DenomA: denomA, DenomB: denomB, PoolLogicCodeID: f.poolCode},
	})
	require.NoError(t, err)
	out, err := f.app.Query(f.factoryAddr, raw)
	if err != nil {
		return "", err
	}
	var resp factory.PoolAddressResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	return resp.Address, nil
}

func TestCreatePoolRegistersInstance(t *testing.T) {
	f := setup(t)

	res, err := f.createPool(t, "uosmo", "uatom")
	require.NoError(t, err)
	assert.True(t, res.HasAttribute("action", "pool_instance_created"))
	// canonical ordering
	assert.True(t, res.HasAttribute("denom_a", "uatom"))
	assert.True(t, res.HasAttribute("denom_b", "uosmo"))

	addr, err := f.poolAddress(t, "uatom", "uosmo")
	require.NoError(t, err)
	require.NotEmpty(t, addr)

	// the registered pool is live and fully initialized
	raw, err := json.Marshal(pool.QueryMsg{PoolState: &struct{}{}})
	require.NoError(t, err)
	out, err := f.app.Query(addr, raw)
	require.NoError(t, err)
	var st pool.PoolStateResponse
	require.NoError(t, json.Unmarshal(out, &st))
	assert.Equal(t, "uatom", st.DenomA)
	assert.NotEmpty(t, st.LpTokenAddress)
}

func TestCreatePoolLookupOrderInsensitive(t *testing.T) {
	f := setup(t)
	_, err := f.createPool(t, "uatom", "uosmo")
	require.NoError(t, err)

	a1, err := f.poolAddress(t, "uatom", "uosmo")
	require.NoError(t, err)
	a2, err := f.poolAddress(t, "uosmo", "uatom")
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestCreatePoolDuplicateRejected(t *testing.T) {
	f := setup(t)
	_, err := f.createPool(t, "uatom", "uosmo")
	require.NoError(t, err)

	_, err = f.createPool(t, "uatom", "uosmo")
	require.ErrorIs(t, err, factory.ErrPoolAlreadyExists)

	// swapped order hits the same canonical key
	_, err = f.createPool(t, "uosmo", "uatom")
	require.ErrorIs(t, err, factory.ErrPoolAlreadyExists)
}

func TestCreatePoolIdenticalDenoms(t *testing.T) {
	f := setup(t)
	_, err := f.createPool(t, "uatom", "uatom")
	require.ErrorIs(t, err, factory.ErrIdenticalDenoms)
}

func TestCreatePoolRejectsFunds(t *testing.T) {
	f := setup(t)
	f.app.MintCoins("alice", wasmvm.NewCoin("uatom", 100))
	_, err := f.exec(t, "alice", factory.ExecuteMsg{
		CreatePool: &factory.CreatePoolMsg{DenomA: "uatom", DenomB: "uosmo", PoolLogicCodeID: f.poolCode},
	}, wasmvm.NewCoin("uatom", 100))
	require.ErrorIs(t, err, factory.ErrFundsSentOnCreatePool)
}

// reentrant calls CreatePool on the factory from inside its own
// instantiation, while the factory's pending marker is still held.
type reentrant struct{}

type reentrantInit struct {
	Factory string `json:"factory_addr"`
}

func (reentrant) Instantiate(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	var init reentrantInit
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, err
	}
	inner, err := json.Marshal(factory.ExecuteMsg{
		CreatePool: &factory.CreatePoolMsg{DenomA: "x", DenomB: "y", PoolLogicCodeID: 1},
	})
	if err != nil {
		return nil, err
	}
	return wasmvm.NewResponse().
		AddMessage(wasmvm.WasmExecuteMsg{ContractAddr: init.Factory, Msg: inner}), nil
}

func (reentrant) Execute(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	return wasmvm.NewResponse(), nil
}
func (reentrant) Query(ctx *wasmvm.Ctx, msg []byte) ([]byte, error) { return nil, nil }
func (reentrant) Reply(ctx *wasmvm.Ctx, reply wasmvm.Reply) (*wasmvm.Response, error) {
	return nil, nil
}

func TestCreatePoolPendingMutex(t *testing.T) {
	f := setup(t)
	reentrantCode := f.app.StoreCode(func() wasmvm.Contract {
		return reentrant{}
	})

	// route the pool-logic code id at the reentrant contract so its
	// instantiation runs while the pending marker exists
	raw, err := json.Marshal(factory.ExecuteMsg{
		CreatePool: &factory.CreatePoolMsg{DenomA: "uatom", DenomB: "uosmo", PoolLogicCodeID: reentrantCode},
	})
	require.NoError(t, err)

	// the factory passes its own address in the pool instantiate msg
	_, err = f.app.Execute(f.factoryAddr, "alice", raw, nil)
	require.ErrorIs(t, err, factory.ErrPoolCreationPending)

	// the failed transaction rolled back completely: a retry succeeds
	_, err = f.createPool(t, "uatom", "uosmo")
	require.NoError(t, err)
}

func TestAdminOperations(t *testing.T) {
	f := setup(t)

	_, err := f.exec(t, "mallory", factory.ExecuteMsg{
		RegisterPoolType: &factory.RegisterPoolTypeMsg{PoolLogicCodeID: 42},
	})
	require.ErrorIs(t, err, factory.ErrUnauthorized)

	_, err = f.exec(t, admin, factory.ExecuteMsg{
		RegisterPoolType: &factory.RegisterPoolTypeMsg{PoolLogicCodeID: 42},
	})
	require.NoError(t, err)

	_, err = f.exec(t, admin, factory.ExecuteMsg{
		UpdateDefaultLpCodeID: &factory.UpdateDefaultLpCodeIDMsg{NewCodeID: 7},
	})
	require.NoError(t, err)

	newAdmin := "admin2"
	_, err = f.exec(t, admin, factory.ExecuteMsg{
		UpdateAdmin: &factory.UpdateAdminMsg{NewAdmin: &newAdmin},
	})
	require.NoError(t, err)

	// old admin lost its rights
	_, err = f.exec(t, admin, factory.ExecuteMsg{
		UpdateDefaultLpCodeID: &factory.UpdateDefaultLpCodeIDMsg{NewCodeID: 8},
	})
	require.ErrorIs(t, err, factory.ErrUnauthorized)

	raw, err := json.Marshal(factory.QueryMsg{Config: &struct{}{}})
	require.NoError(t, err)
	out, err := f.app.Query(f.factoryAddr, raw)
	require.NoError(t, err)
	var cfg factory.ConfigResponse
	require.NoError(t, json.Unmarshal(out, &cfg))
	assert.Equal(t, newAdmin, cfg.Admin)
	assert.Equal(t, uint64(7), cfg.DefaultPoolLogicCodeID)
}

func TestUpdateAdminNoneRejected(t *testing.T) {
	f := setup(t)
	_, err := f.exec(t, admin, factory.ExecuteMsg{
		UpdateAdmin: &factory.UpdateAdminMsg{NewAdmin: nil},
	})
	require.ErrorIs(t, err, factory.ErrAdminCannotBeNone)
}

func TestPoolAddressNotFound(t *testing.T) {
	f := setup(t)
	_, err := f.poolAddress(t, "uatom", "uosmo")
	require.ErrorIs(t, err, factory.ErrPoolNotFound)
}
