// Package cw20 implements the fungible-token contract the pool uses for LP
// shares: minter-gated mint, burn, transfer, and send-with-hook.
package cw20

import (
	"encoding/json"

	"cosmossdk.io/math"
)

// InstantiateMsg configures a new token.
type InstantiateMsg struct {
	Name     string      `json:"name"`
	Symbol   string      `json:"symbol"`
	Decimals uint8       `json:"decimals"`
	Mint     *MinterInfo `json:"mint,omitempty"`
}

// MinterInfo names the only address allowed to mint.
type MinterInfo struct {
	Minter string `json:"minter"`
}

// ExecuteMsg is the execute enum; exactly one field is set.
type ExecuteMsg struct {
	Mint     *MintMsg     `json:"mint,omitempty"`
	Burn     *BurnMsg     `json:"burn,omitempty"`
	Transfer *TransferMsg `json:"transfer,omitempty"`
	Send     *SendMsg     `json:"send,omitempty"`
}

type MintMsg struct {
	Recipient string   `json:"recipient"`
	Amount    math.Int `json:"amount"`
}

type BurnMsg struct {
	Amount math.Int `json:"amount"`
}

type TransferMsg struct {
	Recipient string   `json:"recipient"`
	Amount    math.Int `json:"amount"`
}

// SendMsg moves tokens to a contract and delivers a ReceiveMsg hook to it.
type SendMsg struct {
	Contract string          `json:"contract"`
	Amount   math.Int        `json:"amount"`
	Msg      json.RawMessage `json:"msg"`
}

// ReceiveMsg is the hook payload delivered to the target of a Send. Sender is
// the original token holder; the hook's own info.sender is the token
// contract.
type ReceiveMsg struct {
	Sender string          `json:"sender"`
	Amount math.Int        `json:"amount"`
	Msg    json.RawMessage `json:"msg"`
}

// QueryMsg is the query enum; exactly one field is set.
type QueryMsg struct {
	TokenInfo *struct{}     `json:"token_info,omitempty"`
	Balance   *BalanceQuery `json:"balance,omitempty"`
}

type BalanceQuery struct {
	Address string `json:"address"`
}

type TokenInfoResponse struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Decimals    uint8    `json:"decimals"`
	TotalSupply math.Int `json:"total_supply"`
}

type BalanceResponse struct {
	Balance math.Int `json:"balance"`
}
