package claim

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sudigital-labs/token-engine/internal/domain"
)

// Terms are the effective price, currency and per-wallet limit applied to a
// single claim after allowlist overrides are resolved
type Terms struct {
	PricePerToken *big.Int
	Currency      common.Address
	WalletLimit   *big.Int // nil = unlimited
	TotalPrice    *big.Int
}

// Engine enforces the single active claim condition: timing window, supply
// cap, per-wallet limits, allowlist proofs and price computation. It is
// driven by the owning aggregate, which performs payment collection and the
// ledger mint.
type Engine struct {
	condition *domain.ClaimCondition
	byWallet  map[common.Address]*big.Int
	scale     *big.Int
}

// NewEngine creates a claim engine with no active condition. scale is the
// fixed-point unit one whole token price is expressed against (1e18 by
// convention).
func NewEngine(scale *big.Int) *Engine {
	return &Engine{
		byWallet: make(map[common.Address]*big.Int),
		scale:    new(big.Int).Set(scale),
	}
}

// Condition returns a copy of the active condition, or nil if none is set
func (e *Engine) Condition() *domain.ClaimCondition {
	return e.condition.Clone()
}

// ClaimedBy returns the cumulative quantity claimed by wallet under the
// current eligibility window
func (e *Engine) ClaimedBy(wallet common.Address) *big.Int {
	if c := e.byWallet[wallet]; c != nil {
		return new(big.Int).Set(c)
	}
	return new(big.Int)
}

// SetCondition replaces the active condition wholesale. When
// resetEligibility is false the claimed supply and per-wallet counters carry
// over, and the new condition may not shrink the max claimable supply below
// what has already been claimed.
func (e *Engine) SetCondition(cond domain.ClaimCondition, resetEligibility bool) error {
	if cond.PricePerToken != nil && cond.PricePerToken.Sign() < 0 {
		return domain.ErrInvalidClaimCondition
	}

	next := cond.Clone()
	if resetEligibility || e.condition == nil {
		next.SupplyClaimed = new(big.Int)
		e.byWallet = make(map[common.Address]*big.Int)
	} else {
		next.SupplyClaimed = new(big.Int).Set(e.condition.SupplyClaimed)
	}
	if next.MaxClaimableSupply != nil && next.MaxClaimableSupply.Cmp(next.SupplyClaimed) < 0 {
		return domain.ErrInvalidClaimCondition
	}
	if next.PricePerToken == nil {
		next.PricePerToken = new(big.Int)
	}

	e.condition = next
	return nil
}

// Validate checks a claim against the active condition and returns the
// effective terms. It mutates nothing; callers that proceed must Record the
// claim before any external payment callout.
//
// The claimer-supplied currency and pricePerToken must match the effective
// terms exactly, so a claimer can never be charged terms it did not request.
func (e *Engine) Validate(claimer common.Address, quantity *big.Int, currency common.Address, pricePerToken *big.Int, proof *domain.AllowlistProof, now time.Time) (*Terms, error) {
	if quantity == nil || quantity.Sign() <= 0 {
		return nil, domain.ErrZeroAmount
	}
	cond := e.condition
	if cond == nil {
		return nil, domain.ErrNoActiveClaimCondition
	}
	if now.Before(cond.StartTime) {
		return nil, domain.ErrClaimNotStarted
	}

	// Supply cap
	if cond.MaxClaimableSupply != nil {
		next := new(big.Int).Add(cond.SupplyClaimed, quantity)
		if next.Cmp(cond.MaxClaimableSupply) > 0 {
			return nil, domain.ErrExceedsSupply
		}
	}

	terms := &Terms{
		PricePerToken: new(big.Int).Set(cond.PricePerToken),
		Currency:      cond.Currency,
		WalletLimit:   domain.CloneBig(cond.QuantityLimitPerWallet),
	}

	// Allowlist gate: overrides apply only once the proven leaf binds them to
	// the claimer. Without a configured root the condition's own terms stand
	// and any supplied overrides are ignored.
	if (cond.MerkleRoot != common.Hash{}) {
		if proof == nil {
			return nil, domain.ErrNotAllowlisted
		}
		var limitLeaf, priceLeaf *big.Int
		if proof.QuantityLimitPerWallet != nil {
			limitLeaf = proof.QuantityLimitPerWallet
		}
		if proof.PricePerToken != nil {
			priceLeaf = proof.PricePerToken
		}
		leafCurrency := cond.Currency
		if proof.Currency != nil {
			leafCurrency = *proof.Currency
		}
		leaf := Leaf(claimer, limitLeaf, priceLeaf, leafCurrency)
		if !VerifyProof(cond.MerkleRoot, leaf, proof.Proof) {
			return nil, domain.ErrNotAllowlisted
		}

		if proof.QuantityLimitPerWallet != nil {
			terms.WalletLimit = new(big.Int).Set(proof.QuantityLimitPerWallet)
		}
		if proof.PricePerToken != nil {
			terms.PricePerToken = new(big.Int).Set(proof.PricePerToken)
		}
		if proof.Currency != nil {
			terms.Currency = *proof.Currency
		}
	}

	// Per-wallet limit
	if terms.WalletLimit != nil {
		next := new(big.Int).Add(e.ClaimedBy(claimer), quantity)
		if next.Cmp(terms.WalletLimit) > 0 {
			return nil, domain.ErrExceedsWalletLimit
		}
	}

	// The caller must have asked for exactly the terms it will be charged
	if currency != terms.Currency || pricePerToken == nil || pricePerToken.Cmp(terms.PricePerToken) != 0 {
		return nil, domain.ErrInvalidPayment
	}

	total, err := TotalPrice(quantity, terms.PricePerToken, e.scale)
	if err != nil {
		return nil, err
	}
	terms.TotalPrice = total

	return terms, nil
}

// TotalPrice computes the fixed-point total quantity * pricePerToken / scale
// with floor division. A non-zero price that floors to a zero total is
// rejected to close the free-claim rounding exploit.
func TotalPrice(quantity, pricePerToken, scale *big.Int) (*big.Int, error) {
	if pricePerToken == nil {
		pricePerToken = new(big.Int)
	}
	total := new(big.Int).Mul(quantity, pricePerToken)
	total.Div(total, scale)
	if pricePerToken.Sign() > 0 && total.Sign() == 0 {
		return nil, domain.ErrPriceTooLow
	}
	return total, nil
}

// Record charges the claim against the supply and wallet counters. It must
// run after Validate and before any external payment callout.
func (e *Engine) Record(claimer common.Address, quantity *big.Int) error {
	if e.condition == nil {
		return domain.ErrNoActiveClaimCondition
	}
	e.condition.SupplyClaimed.Add(e.condition.SupplyClaimed, quantity)
	c := e.byWallet[claimer]
	if c == nil {
		c = new(big.Int)
		e.byWallet[claimer] = c
	}
	c.Add(c, quantity)
	return nil
}

// Snapshot captures the condition and wallet counters and returns a restore function
func (e *Engine) Snapshot() func() {
	condition := e.condition.Clone()
	byWallet := make(map[common.Address]*big.Int, len(e.byWallet))
	for wallet, c := range e.byWallet {
		byWallet[wallet] = new(big.Int).Set(c)
	}

	return func() {
		e.condition = condition
		e.byWallet = byWallet
	}
}
