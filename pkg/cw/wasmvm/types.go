// Package wasmvm is a minimal in-process actor-model contract host: a bank
// ledger, a contract registry, and message dispatch with submessage/reply
// continuations and whole-transaction rollback. It provides exactly the
// execution semantics the factory and pool contracts rely on; it is not a
// general Wasm runtime.
package wasmvm

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
)

// Coin is a denominated amount held in the bank ledger.
type Coin struct {
	Denom  string   `json:"denom"`
	Amount math.Int `json:"amount"`
}

func NewCoin(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: math.NewInt(amount)}
}

// MessageInfo describes the caller of an execute/instantiate entry point.
type MessageInfo struct {
	Sender string
	Funds  []Coin
}

// Env describes the executing contract instance.
type Env struct {
	ContractAddress string
}

// Attribute is an indexer-facing key/value pair attached to a response.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a typed group of attributes.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// NewEvent builds an event from alternating key/value strings.
func NewEvent(ty string, kv ...string) Event {
	ev := Event{Type: ty}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Attributes = append(ev.Attributes, Attribute{Key: kv[i], Value: kv[i+1]})
	}
	return ev
}

// BankSendMsg transfers coins from the emitting contract to an address.
type BankSendMsg struct {
	ToAddress string
	Amount    []Coin
}

// WasmExecuteMsg calls another contract with the emitting contract as sender.
type WasmExecuteMsg struct {
	ContractAddr string
	Msg          json.RawMessage
	Funds        []Coin
}

// WasmInstantiateMsg creates a new contract instance from a stored code ID.
type WasmInstantiateMsg struct {
	CodeID uint64
	Msg    json.RawMessage
	Label  string
	Admin  string
}

// Msg is one of BankSendMsg, WasmExecuteMsg, WasmInstantiateMsg.
type Msg interface{ isMsg() }

func (BankSendMsg) isMsg()        {}
func (WasmExecuteMsg) isMsg()     {}
func (WasmInstantiateMsg) isMsg() {}

// SubMsg is a message whose outcome is delivered back to the emitting
// contract's Reply entry point, correlated by ID. Only reply-on-success is
// supported, matching the contracts built on this host.
type SubMsg struct {
	ID  uint64
	Msg Msg
}

// Reply is the continuation payload delivered to a contract after one of its
// submessages succeeds.
type Reply struct {
	ID   uint64
	Data []byte
}

// instantiateData is the payload carried in Reply.Data after a
// WasmInstantiateMsg submessage.
type instantiateData struct {
	ContractAddress string `json:"contract_address"`
}

// ParseInstantiateData extracts the instantiated contract address from a
// reply payload.
func ParseInstantiateData(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrMissingReplyData
	}
	var d instantiateData
	if err := json.Unmarshal(data, &d); err != nil {
		return "", fmt.Errorf("parsing instantiate reply: %w", err)
	}
	return d.ContractAddress, nil
}

// Response is the result of a contract entry point: emitted messages and
// submessages plus indexer attributes/events. Data is set by instantiate
// handlers that want to expose their address to a waiting reply.
type Response struct {
	Messages    []Msg
	SubMessages []SubMsg
	Attributes  []Attribute
	Events      []Event
	Data        []byte
}

// NewResponse returns an empty response.
func NewResponse() *Response { return &Response{} }

// AddMessage appends a fire-and-forget message.
func (r *Response) AddMessage(m Msg) *Response {
	r.Messages = append(r.Messages, m)
	return r
}

// AddSubMessage appends a reply-on-success submessage.
func (r *Response) AddSubMessage(id uint64, m Msg) *Response {
	r.SubMessages = append(r.SubMessages, SubMsg{ID: id, Msg: m})
	return r
}

// AddAttribute appends an indexer attribute.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// AddEvent appends a typed event.
func (r *Response) AddEvent(ev Event) *Response {
	r.Events = append(r.Events, ev)
	return r
}
