// Package factory implements the pool registry contract: it instantiates
// pool contracts through a reply-on-success submessage and records exactly
// one pool per canonical (denomA, denomB, code ID) key.
package factory

// InstantiateMsg configures the factory.
type InstantiateMsg struct {
	DefaultPoolLogicCodeID uint64 `json:"default_pool_logic_code_id"`
	Admin                  string `json:"admin"`
}

// ExecuteMsg is the execute enum; exactly one field is set.
type ExecuteMsg struct {
	CreatePool            *CreatePoolMsg            `json:"create_pool,omitempty"`
	RegisterPoolType      *RegisterPoolTypeMsg      `json:"register_pool_type,omitempty"`
	UpdateAdmin           *UpdateAdminMsg           `json:"update_admin,omitempty"`
	UpdateDefaultLpCodeID *UpdateDefaultLpCodeIDMsg `json:"update_default_lp_code_id,omitempty"`
}

type CreatePoolMsg struct {
	DenomA          string `json:"denom_a"`
	DenomB          string `json:"denom_b"`
	PoolLogicCodeID uint64 `json:"pool_logic_code_id"`
}

type RegisterPoolTypeMsg struct {
	PoolLogicCodeID uint64 `json:"pool_logic_code_id"`
}

type UpdateAdminMsg struct {
	NewAdmin *string `json:"new_admin"`
}

type UpdateDefaultLpCodeIDMsg struct {
	NewCodeID uint64 `json:"new_code_id"`
}

// QueryMsg is the query enum; exactly one field is set.
type QueryMsg struct {
	PoolAddress *PoolAddressQuery `json:"pool_address,omitempty"`
	Config      *struct{}         `json:"config,omitempty"`
}

type PoolAddressQuery struct {
	DenomA          string `json:"denom_a"`
	DenomB          string `json:"denom_b"`
	PoolLogicCodeID uint64 `json:"pool_logic_code_id"`
}

type PoolAddressResponse struct {
	Address string `json:"address"`
}

type ConfigResponse struct {
	Admin                  string `json:"admin"`
	DefaultPoolLogicCodeID uint64 `json:"default_pool_logic_code_id"`
}
