package dto

import "time"

// Addresses and hashes are 0x-prefixed hex strings; token amounts and prices
// are decimal strings to survive JSON number precision limits.

// MintRequest mints quantity to a recipient
type MintRequest struct {
	To       string `json:"to" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
}

// BurnRequest burns quantity from the caller, or from another account when
// From is set (spending the caller's allowance)
type BurnRequest struct {
	From     string `json:"from,omitempty"`
	Quantity string `json:"quantity" binding:"required"`
}

// TransferRequest moves quantity from the caller to a recipient, or from
// another account when From is set (spending the caller's allowance)
type TransferRequest struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
}

// ApproveRequest sets a spender's allowance over the caller's balance
type ApproveRequest struct {
	Spender  string `json:"spender" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
}

// DelegateRequest attributes the caller's voting weight to a delegatee
type DelegateRequest struct {
	Delegatee string `json:"delegatee" binding:"required"`
}

// AllowlistProof accompanies a claim against an allowlisted condition
type AllowlistProof struct {
	Proof                  []string `json:"proof"`
	QuantityLimitPerWallet *string  `json:"quantity_limit_per_wallet,omitempty"`
	PricePerToken          *string  `json:"price_per_token,omitempty"`
	Currency               *string  `json:"currency,omitempty"`
}

// ClaimRequest claims quantity against the active claim condition. Receiver
// defaults to the caller. Value is the native payment attached to the call.
type ClaimRequest struct {
	Receiver      string          `json:"receiver,omitempty"`
	Quantity      string          `json:"quantity" binding:"required"`
	Currency      string          `json:"currency,omitempty"`
	PricePerToken string          `json:"price_per_token,omitempty"`
	Value         string          `json:"value,omitempty"`
	Proof         *AllowlistProof `json:"proof,omitempty"`
}

// SignedMintPayload is the EIP-712 typed payload of a signed mint request
type SignedMintPayload struct {
	To                   string    `json:"to" binding:"required"`
	PrimarySaleRecipient string    `json:"primary_sale_recipient,omitempty"`
	Quantity             string    `json:"quantity" binding:"required"`
	PricePerToken        string    `json:"price_per_token,omitempty"`
	Currency             string    `json:"currency,omitempty"`
	ValidityStart        time.Time `json:"validity_start" binding:"required"`
	ValidityEnd          time.Time `json:"validity_end" binding:"required"`
	UID                  string    `json:"uid" binding:"required"`
}

// SignatureMintRequest redeems an off-line-signed mint authorization
type SignatureMintRequest struct {
	Request   SignedMintPayload `json:"request" binding:"required"`
	Signature string            `json:"signature" binding:"required"`
	Value     string            `json:"value,omitempty"`
}

// ClaimConditionRequest replaces the active claim condition wholesale
type ClaimConditionRequest struct {
	StartTime              time.Time `json:"start_time"`
	PricePerToken          string    `json:"price_per_token,omitempty"`
	Currency               string    `json:"currency,omitempty"`
	MaxClaimableSupply     *string   `json:"max_claimable_supply,omitempty"`
	QuantityLimitPerWallet *string   `json:"quantity_limit_per_wallet,omitempty"`
	MerkleRoot             string    `json:"merkle_root,omitempty"`
	ResetEligibility       bool      `json:"reset_eligibility"`
}

// RoleRequest grants or revokes a role. Role is either a 0x-prefixed role
// hash or a role name such as MINTER_ROLE.
type RoleRequest struct {
	Role    string `json:"role" binding:"required"`
	Account string `json:"account" binding:"required"`
}

// SetAddressRequest carries a single address-valued setting
type SetAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

// SetContractURIRequest replaces the contract metadata URI
type SetContractURIRequest struct {
	URI string `json:"uri" binding:"required"`
}

// MulticallCall is one operation inside a multicall batch
type MulticallCall struct {
	// Type is one of: mint, burn, transfer, approve, delegate
	Type      string `json:"type" binding:"required"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Spender   string `json:"spender,omitempty"`
	Delegatee string `json:"delegatee,omitempty"`
	Quantity  string `json:"quantity,omitempty"`
}

// MulticallRequest executes calls as one atomic unit
type MulticallRequest struct {
	Calls []MulticallCall `json:"calls" binding:"required"`
}
