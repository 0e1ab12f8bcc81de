package wasmvm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoContract stores every execute payload under "last" and fails when the
// payload is "boom". On instantiate it optionally spawns a child instance of
// its own code as a reply-on-success submessage.
type echoContract struct{}

type echoInit struct {
	SpawnCode uint64 `json:"spawn_code,omitempty"`
}

func (echoContract) Instantiate(ctx *Ctx, info MessageInfo, msg []byte) (*Response, error) {
	var init echoInit
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, err
	}
	resp := NewResponse()
	if init.SpawnCode != 0 {
		resp.AddSubMessage(7, WasmInstantiateMsg{CodeID: init.SpawnCode, Msg: []byte(`{}`), Label: "child"})
	}
	return resp, nil
}

func (echoContract) Execute(ctx *Ctx, info MessageInfo, msg []byte) (*Response, error) {
	if string(msg) == `"boom"` {
		return nil, errors.New("boom")
	}
	ctx.Store.Set("last", msg)
	return NewResponse().AddAttribute("echoed", string(msg)), nil
}

func (echoContract) Query(ctx *Ctx, msg []byte) ([]byte, error) {
	v, _ := ctx.Store.Get("last")
	return v, nil
}

func (echoContract) Reply(ctx *Ctx, reply Reply) (*Response, error) {
	child, err := ParseInstantiateData(reply.Data)
	if err != nil {
		return nil, err
	}
	ctx.Store.Set("child", []byte(child))
	return NewResponse().AddAttribute("child_addr", child), nil
}

func TestExecuteRollbackOnError(t *testing.T) {
	app := NewApp(nil)
	code := app.StoreCode(func() Contract { return echoContract{} })
	addr, _, err := app.Instantiate(code, "alice", []byte(`{}`), nil, "echo")
	require.NoError(t, err)

	app.MintCoins("alice", NewCoin("uatom", 100))
	_, err = app.Execute(addr, "alice", []byte(`"boom"`), []Coin{NewCoin("uatom", 40)})
	require.Error(t, err)

	// attached funds are returned by the rollback
	assert.Equal(t, int64(100), app.BankBalance("alice", "uatom").Int64())
	assert.True(t, app.BankBalance(addr, "uatom").IsZero())
}

func TestExecuteCreditsFundsBeforeEntryPoint(t *testing.T) {
	app := NewApp(nil)
	code := app.StoreCode(func() Contract { return echoContract{} })
	addr, _, err := app.Instantiate(code, "alice", []byte(`{}`), nil, "echo")
	require.NoError(t, err)

	app.MintCoins("alice", NewCoin("uatom", 100))
	res, err := app.Execute(addr, "alice", []byte(`"hi"`), []Coin{NewCoin("uatom", 40)})
	require.NoError(t, err)
	assert.True(t, res.HasAttribute("echoed", `"hi"`))
	assert.Equal(t, int64(40), app.BankBalance(addr, "uatom").Int64())
	assert.Equal(t, int64(60), app.BankBalance("alice", "uatom").Int64())
}

func TestInstantiateReplyContinuation(t *testing.T) {
	app := NewApp(nil)
	code := app.StoreCode(func() Contract { return echoContract{} })

	init, err := json.Marshal(echoInit{SpawnCode: code})
	require.NoError(t, err)
	addr, res, err := app.Instantiate(code, "alice", init, nil, "parent")
	require.NoError(t, err)

	child, ok := res.Attribute("child_addr")
	require.True(t, ok)
	assert.NotEqual(t, addr, child)

	// the child is addressable
	_, err = app.Query(child, []byte(`{}`))
	require.NoError(t, err)
}

func TestInsufficientFunds(t *testing.T) {
	app := NewApp(nil)
	code := app.StoreCode(func() Contract { return echoContract{} })
	addr, _, err := app.Instantiate(code, "alice", []byte(`{}`), nil, "echo")
	require.NoError(t, err)

	_, err = app.Execute(addr, "alice", []byte(`"hi"`), []Coin{NewCoin("uatom", 1)})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}
