package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role identifies a permission group. Role identifiers follow the
// keccak256("<NAME>_ROLE") convention; the default admin role is the zero hash.
type Role = common.Hash

var (
	// DefaultAdminRole administers every other role. It always has at least
	// one member after engine construction.
	DefaultAdminRole Role

	// MinterRole marks addresses allowed to sign mint requests.
	MinterRole = RoleID("MINTER_ROLE")

	// TransferRole marks addresses exempt from transfer restrictions.
	TransferRole = RoleID("TRANSFER_ROLE")
)

// RoleID derives a role identifier from its name
func RoleID(name string) Role {
	return crypto.Keccak256Hash([]byte(name))
}

// NativeCurrency is the zero address, denoting payment in the native unit
var NativeCurrency = common.Address{}

// IsNativeCurrency reports whether the currency address denotes the native unit
func IsNativeCurrency(currency common.Address) bool {
	return currency == NativeCurrency
}

// ClaimCondition is the single active public distribution phase.
// Nil limits mean unlimited.
type ClaimCondition struct {
	// StartTime is the instant from which claims are accepted
	StartTime time.Time `json:"start_time"`
	// PricePerToken is the price of one whole token, expressed in the
	// smallest unit of Currency
	PricePerToken *big.Int `json:"price_per_token"`
	// Currency is the payment currency; the zero address means native
	Currency common.Address `json:"currency"`
	// MaxClaimableSupply caps the cumulative quantity claimable under this
	// condition; nil means unlimited
	MaxClaimableSupply *big.Int `json:"max_claimable_supply,omitempty"`
	// SupplyClaimed is the cumulative quantity claimed so far
	SupplyClaimed *big.Int `json:"supply_claimed"`
	// QuantityLimitPerWallet caps the cumulative quantity a single wallet may
	// claim; nil means unlimited
	QuantityLimitPerWallet *big.Int `json:"quantity_limit_per_wallet,omitempty"`
	// MerkleRoot gates claims behind an allowlist proof; the zero hash
	// disables the allowlist
	MerkleRoot common.Hash `json:"merkle_root"`
}

// Clone returns a deep copy of the condition
func (c *ClaimCondition) Clone() *ClaimCondition {
	if c == nil {
		return nil
	}
	clone := *c
	clone.PricePerToken = CloneBig(c.PricePerToken)
	clone.MaxClaimableSupply = CloneBig(c.MaxClaimableSupply)
	clone.SupplyClaimed = CloneBig(c.SupplyClaimed)
	clone.QuantityLimitPerWallet = CloneBig(c.QuantityLimitPerWallet)
	return &clone
}

// AllowlistProof accompanies a claim when the active condition carries a
// merkle root. The optional fields override the condition's limits for the
// claimant, and are bound into the proven leaf.
type AllowlistProof struct {
	Proof []common.Hash `json:"proof"`
	// QuantityLimitPerWallet overrides the condition's per-wallet limit (nil = no override)
	QuantityLimitPerWallet *big.Int `json:"quantity_limit_per_wallet,omitempty"`
	// PricePerToken overrides the condition's price (nil = no override)
	PricePerToken *big.Int `json:"price_per_token,omitempty"`
	// Currency overrides the condition's currency (nil = no override)
	Currency *common.Address `json:"currency,omitempty"`
}

// MintRequest is an off-chain-signed authorization to mint. Its uid is
// consumed exactly once.
type MintRequest struct {
	To                   common.Address `json:"to"`
	PrimarySaleRecipient common.Address `json:"primary_sale_recipient"`
	Quantity             *big.Int       `json:"quantity"`
	PricePerToken        *big.Int       `json:"price_per_token"`
	Currency             common.Address `json:"currency"`
	ValidityStart        time.Time      `json:"validity_start"`
	ValidityEnd          time.Time      `json:"validity_end"`
	UID                  common.Hash    `json:"uid"`
}

// TokenEventType is the kind of committed engine operation
type TokenEventType string

const (
	EventTypeMint           TokenEventType = "mint"
	EventTypeBurn           TokenEventType = "burn"
	EventTypeTransfer       TokenEventType = "transfer"
	EventTypeApproval       TokenEventType = "approval"
	EventTypeClaim          TokenEventType = "claim"
	EventTypeSignatureMint  TokenEventType = "signature_mint"
	EventTypeDelegate       TokenEventType = "delegate"
	EventTypeConditionSet   TokenEventType = "claim_condition_set"
	EventTypeOwnerSet       TokenEventType = "owner_set"
	EventTypeSaleRecipient  TokenEventType = "primary_sale_recipient_set"
	EventTypeContractURISet TokenEventType = "contract_uri_set"
	EventTypeRoleGranted    TokenEventType = "role_granted"
	EventTypeRoleRevoked    TokenEventType = "role_revoked"
)

// TokenEvent records one committed state change. Events carry every field
// needed to rebuild engine state by replay; the ID is assigned by the relay
// when the event is journaled.
type TokenEvent struct {
	ID        string         `json:"id,omitempty"`
	Type      TokenEventType `json:"type"`
	Sequence  uint64         `json:"sequence"`
	Caller    common.Address `json:"caller"`
	Timestamp time.Time      `json:"timestamp"`

	From          *common.Address `json:"from,omitempty"`
	To            *common.Address `json:"to,omitempty"`
	Quantity      *big.Int        `json:"quantity,omitempty"`
	Spender       *common.Address `json:"spender,omitempty"`
	Delegatee     *common.Address `json:"delegatee,omitempty"`
	Currency      *common.Address `json:"currency,omitempty"`
	PricePerToken *big.Int        `json:"price_per_token,omitempty"`
	TotalPrice    *big.Int        `json:"total_price,omitempty"`
	SaleRecipient *common.Address `json:"sale_recipient,omitempty"`
	UID           *common.Hash    `json:"uid,omitempty"`
	Signer        *common.Address `json:"signer,omitempty"`
	Role          *Role           `json:"role,omitempty"`
	Condition     *ClaimCondition `json:"condition,omitempty"`
	// ResetEligibility accompanies claim_condition_set events and records
	// whether wallet claim counters were reset along with the condition
	ResetEligibility *bool   `json:"reset_eligibility,omitempty"`
	URI              *string `json:"uri,omitempty"`
}

// CloneBig returns a copy of a big integer, preserving nil
func CloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
