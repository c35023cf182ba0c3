package dto

import "time"

// TokenInfoResponse describes the contract instance
type TokenInfoResponse struct {
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	ContractURI          string `json:"contract_uri,omitempty"`
	Owner                string `json:"owner"`
	PrimarySaleRecipient string `json:"primary_sale_recipient"`
	TotalSupply          string `json:"total_supply"`
	Sequence             uint64 `json:"sequence"`
}

// BalanceResponse reports an account's balance
type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// AllowanceResponse reports a spender's remaining allowance
type AllowanceResponse struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

// VotesResponse reports a delegate's voting weight, current or historical
type VotesResponse struct {
	Delegate string  `json:"delegate"`
	Votes    string  `json:"votes"`
	Sequence *uint64 `json:"sequence,omitempty"`
}

// DelegateResponse reports where a holder's voting weight is attributed
type DelegateResponse struct {
	Holder   string `json:"holder"`
	Delegate string `json:"delegate"`
}

// CheckpointResponse is one entry of a delegate's vote history
type CheckpointResponse struct {
	Sequence uint64 `json:"sequence"`
	Votes    string `json:"votes"`
}

// ClaimConditionResponse describes the active claim condition
type ClaimConditionResponse struct {
	StartTime              time.Time `json:"start_time"`
	PricePerToken          string    `json:"price_per_token"`
	Currency               string    `json:"currency"`
	MaxClaimableSupply     *string   `json:"max_claimable_supply,omitempty"`
	SupplyClaimed          string    `json:"supply_claimed"`
	QuantityLimitPerWallet *string   `json:"quantity_limit_per_wallet,omitempty"`
	MerkleRoot             string    `json:"merkle_root"`
}

// ClaimedResponse reports a wallet's cumulative claimed quantity
type ClaimedResponse struct {
	Address string `json:"address"`
	Claimed string `json:"claimed"`
}

// RoleMembersResponse lists the members of a role
type RoleMembersResponse struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}

// OperationResponse acknowledges a committed operation
type OperationResponse struct {
	Sequence uint64 `json:"sequence"`
}

// SignatureMintResponse acknowledges a redeemed signed mint request
type SignatureMintResponse struct {
	Sequence uint64 `json:"sequence"`
	Signer   string `json:"signer"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status string `json:"status"`
}
