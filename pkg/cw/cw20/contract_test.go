package cw20_test

import (
	"encoding/json"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexforge/cpamm/pkg/cw/cw20"
	"github.com/dexforge/cpamm/pkg/cw/wasmvm"
)

func setupToken(t *testing.T, minter string) (*wasmvm.App, string) {
	t.Helper()
	app := wasmvm.NewApp(nil)
	code := app.StoreCode(func() wasmvm.Contract { return cw20.New() })
	init, err := json.Marshal(cw20.InstantiateMsg{
		Name:     "tokenA-tokenB LP",
		Symbol:   "LP-TOKA-TOKB",
		Decimals: 6,
		Mint:     &cw20.MinterInfo{Minter: minter},
	})
	require.NoError(t, err)
	addr, _, err := app.Instantiate(code, minter, init, nil, "lp")
	require.NoError(t, err)
	return app, addr
}

func execToken(t *testing.T, app *wasmvm.App, token, sender string, msg cw20.ExecuteMsg) (*wasmvm.ExecResult, error) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return app.Execute(token, sender, raw, nil)
}

func queryBalance(t *testing.T, app *wasmvm.App, token, addr string) math.Int {
	t.Helper()
	raw, err := json.Marshal(cw20.QueryMsg{Balance: &cw20.BalanceQuery{Address: addr}})
	require.NoError(t, err)
	out, err := app.Query(token, raw)
	require.NoError(t, err)
	var resp cw20.BalanceResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	return resp.Balance
}

func queryTokenInfo(t *testing.T, app *wasmvm.App, token string) cw20.TokenInfoResponse {
	t.Helper()
	raw, err := json.Marshal(cw20.QueryMsg{TokenInfo: &struct{}{}})
	require.NoError(t, err)
	out, err := app.Query(token, raw)
	require.NoError(t, err)
	var resp cw20.TokenInfoResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	return resp
}

func TestMintRequiresMinter(t *testing.T) {
	app, token := setupToken(t, "pool")

	_, err := execToken(t, app, token, "mallory", cw20.ExecuteMsg{
		Mint: &cw20.MintMsg{Recipient: "mallory", Amount: math.NewInt(1000)},
	})
	require.ErrorIs(t, err, cw20.ErrUnauthorized)

	_, err = execToken(t, app, token, "pool", cw20.ExecuteMsg{
		Mint: &cw20.MintMsg{Recipient: "alice", Amount: math.NewInt(1000)},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1000), queryBalance(t, app, token, "alice").Int64())
	assert.Equal(t, int64(1000), queryTokenInfo(t, app, token).TotalSupply.Int64())
}

func TestBurnReducesSupply(t *testing.T) {
	app, token := setupToken(t, "pool")
	_, err := execToken(t, app, token, "pool", cw20.ExecuteMsg{
		Mint: &cw20.MintMsg{Recipient: "alice", Amount: math.NewInt(500)},
	})
	require.NoError(t, err)

	_, err = execToken(t, app, token, "alice", cw20.ExecuteMsg{
		Burn: &cw20.BurnMsg{Amount: math.NewInt(200)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300), queryBalance(t, app, token, "alice").Int64())
	assert.Equal(t, int64(300), queryTokenInfo(t, app, token).TotalSupply.Int64())

	_, err = execToken(t, app, token, "alice", cw20.ExecuteMsg{
		Burn: &cw20.BurnMsg{Amount: math.NewInt(400)},
	})
	require.ErrorIs(t, err, cw20.ErrInsufficientBalance)
}

func TestTransfer(t *testing.T) {
	app, token := setupToken(t, "pool")
	_, err := execToken(t, app, token, "pool", cw20.ExecuteMsg{
		Mint: &cw20.MintMsg{Recipient: "alice", Amount: math.NewInt(100)},
	})
	require.NoError(t, err)

	_, err = execToken(t, app, token, "alice", cw20.ExecuteMsg{
		Transfer: &cw20.TransferMsg{Recipient: "bob", Amount: math.NewInt(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(70), queryBalance(t, app, token, "alice").Int64())
	assert.Equal(t, int64(30), queryBalance(t, app, token, "bob").Int64())
}

// hookRecorder records the receive hook it gets so the test can inspect it.
type hookRecorder struct{}

func (hookRecorder) Instantiate(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	return wasmvm.NewResponse(), nil
}

func (hookRecorder) Execute(ctx *wasmvm.Ctx, info wasmvm.MessageInfo, msg []byte) (*wasmvm.Response, error) {
	ctx.Store.Set("hook", msg)
	ctx.Store.Set("hook_sender", []byte(info.Sender))
	return wasmvm.NewResponse(), nil
}

func (hookRecorder) Query(ctx *wasmvm.Ctx, msg []byte) ([]byte, error) {
	v, _ := ctx.Store.Get(string(msg))
	return v, nil
}

func (hookRecorder) Reply(ctx *wasmvm.Ctx, reply wasmvm.Reply) (*wasmvm.Response, error) {
	return nil, nil
}

func TestSendDeliversReceiveHook(t *testing.T) {
	app, token := setupToken(t, "pool")
	recvCode := app.StoreCode(func() wasmvm.Contract { return hookRecorder{} })
	recv, _, err := app.Instantiate(recvCode, "alice", []byte(`{}`), nil, "recorder")
	require.NoError(t, err)

	_, err = execToken(t, app, token, "pool", cw20.ExecuteMsg{
		Mint: &cw20.MintMsg{Recipient: "alice", Amount: math.NewInt(100)},
	})
	require.NoError(t, err)

	_, err = execToken(t, app, token, "alice", cw20.ExecuteMsg{
		Send: &cw20.SendMsg{Contract: recv, Amount: math.NewInt(60), Msg: json.RawMessage(`{"withdraw_liquidity":{}}`)},
	})
	require.NoError(t, err)

	// tokens moved to the receiving contract
	assert.Equal(t, int64(40), queryBalance(t, app, token, "alice").Int64())
	assert.Equal(t, int64(60), queryBalance(t, app, token, recv).Int64())

	// hook sender is the token contract, payload names the original holder
	sender, err := app.Query(recv, []byte("hook_sender"))
	require.NoError(t, err)
	assert.Equal(t, token, string(sender))

	raw, err := app.Query(recv, []byte("hook"))
	require.NoError(t, err)
	var wrapper struct {
		Receive cw20.ReceiveMsg `json:"receive"`
	}
	require.NoError(t, json.Unmarshal(raw, &wrapper))
	assert.Equal(t, "alice", wrapper.Receive.Sender)
	assert.Equal(t, int64(60), wrapper.Receive.Amount.Int64())
	assert.JSONEq(t, `{"withdraw_liquidity":{}}`, string(wrapper.Receive.Msg))
}
