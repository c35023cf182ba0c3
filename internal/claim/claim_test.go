package claim_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudigital-labs/token-engine/internal/claim"
	"github.com/sudigital-labs/token-engine/internal/domain"
)

var (
	claimer = common.HexToAddress("0x1111111111111111111111111111111111111111")
	other   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	erc20   = common.HexToAddress("0x4444444444444444444444444444444444444444")

	// scale of 1 keeps per-token prices whole in most tests
	unitScale = big.NewInt(1)

	now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
)

func newEngine(t *testing.T, cond domain.ClaimCondition) *claim.Engine {
	t.Helper()
	e := claim.NewEngine(unitScale)
	require.NoError(t, e.SetCondition(cond, true))
	return e
}

func TestValidateRejectsZeroQuantity(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{StartTime: now.Add(-time.Hour)})

	_, err := e.Validate(claimer, big.NewInt(0), domain.NativeCurrency, big.NewInt(0), nil, now)
	assert.ErrorIs(t, err, domain.ErrZeroAmount)

	_, err = e.Validate(claimer, nil, domain.NativeCurrency, big.NewInt(0), nil, now)
	assert.ErrorIs(t, err, domain.ErrZeroAmount)
}

func TestValidateWithoutCondition(t *testing.T) {
	e := claim.NewEngine(unitScale)

	_, err := e.Validate(claimer, big.NewInt(1), domain.NativeCurrency, big.NewInt(0), nil, now)
	assert.ErrorIs(t, err, domain.ErrNoActiveClaimCondition)
}

func TestValidateBeforeStart(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{StartTime: now.Add(time.Hour)})

	_, err := e.Validate(claimer, big.NewInt(1), domain.NativeCurrency, big.NewInt(0), nil, now)
	assert.ErrorIs(t, err, domain.ErrClaimNotStarted)
}

func TestValidateSupplyCap(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{
		StartTime:          now.Add(-time.Hour),
		MaxClaimableSupply: big.NewInt(10),
	})
	require.NoError(t, e.Record(claimer, big.NewInt(8)))

	_, err := e.Validate(other, big.NewInt(3), domain.NativeCurrency, big.NewInt(0), nil, now)
	assert.ErrorIs(t, err, domain.ErrExceedsSupply)

	_, err = e.Validate(other, big.NewInt(2), domain.NativeCurrency, big.NewInt(0), nil, now)
	assert.NoError(t, err)
}

func TestValidateWalletLimit(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{
		StartTime:              now.Add(-time.Hour),
		QuantityLimitPerWallet: big.NewInt(5),
	})
	require.NoError(t, e.Record(claimer, big.NewInt(4)))

	_, err := e.Validate(claimer, big.NewInt(2), domain.NativeCurrency, big.NewInt(0), nil, now)
	assert.ErrorIs(t, err, domain.ErrExceedsWalletLimit)

	// Limits are per wallet, other claimers are unaffected
	_, err = e.Validate(other, big.NewInt(5), domain.NativeCurrency, big.NewInt(0), nil, now)
	assert.NoError(t, err)
}

func TestValidateTermsMustMatch(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{
		StartTime:     now.Add(-time.Hour),
		PricePerToken: big.NewInt(10),
		Currency:      erc20,
	})

	// Wrong price
	_, err := e.Validate(claimer, big.NewInt(1), erc20, big.NewInt(9), nil, now)
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)

	// Wrong currency
	_, err = e.Validate(claimer, big.NewInt(1), domain.NativeCurrency, big.NewInt(10), nil, now)
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)

	// Exact terms pass and price the claim
	terms, err := e.Validate(claimer, big.NewInt(3), erc20, big.NewInt(10), nil, now)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), terms.TotalPrice)
	assert.Equal(t, erc20, terms.Currency)
}

func TestValidateAllowlistGate(t *testing.T) {
	limit := big.NewInt(2)
	price := big.NewInt(1)
	leaf := claim.Leaf(claimer, limit, price, domain.NativeCurrency)
	root, proofs := claim.BuildTree([]common.Hash{
		leaf,
		claim.Leaf(other, nil, nil, domain.NativeCurrency),
	})

	e := newEngine(t, domain.ClaimCondition{
		StartTime:     now.Add(-time.Hour),
		PricePerToken: big.NewInt(100),
		MerkleRoot:    root,
	})

	// No proof at all
	_, err := e.Validate(claimer, big.NewInt(1), domain.NativeCurrency, big.NewInt(100), nil, now)
	assert.ErrorIs(t, err, domain.ErrNotAllowlisted)

	// Valid proof with overrides: the overridden price applies
	proof := &domain.AllowlistProof{
		Proof:                  proofs[0],
		QuantityLimitPerWallet: limit,
		PricePerToken:          price,
	}
	terms, err := e.Validate(claimer, big.NewInt(2), domain.NativeCurrency, price, proof, now)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2), terms.TotalPrice)

	// Overridden wallet limit binds
	_, err = e.Validate(claimer, big.NewInt(3), domain.NativeCurrency, price, proof, now)
	assert.ErrorIs(t, err, domain.ErrExceedsWalletLimit)

	// A claimer cannot borrow someone else's proof
	_, err = e.Validate(other, big.NewInt(1), domain.NativeCurrency, price, proof, now)
	assert.ErrorIs(t, err, domain.ErrNotAllowlisted)
}

func TestValidateIgnoresOverridesWithoutRoot(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{
		StartTime:     now.Add(-time.Hour),
		PricePerToken: big.NewInt(100),
	})

	// Without a configured root nothing vouches for the overrides, so a
	// fabricated zero-price proof must not make the claim free
	fabricated := &domain.AllowlistProof{PricePerToken: big.NewInt(0)}
	_, err := e.Validate(claimer, big.NewInt(10), domain.NativeCurrency, big.NewInt(0), fabricated, now)
	assert.ErrorIs(t, err, domain.ErrInvalidPayment)

	// The condition's own price still applies in full
	terms, err := e.Validate(claimer, big.NewInt(10), domain.NativeCurrency, big.NewInt(100), fabricated, now)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), terms.TotalPrice)

	// A fabricated wallet limit does not loosen the condition's limit either
	require.NoError(t, e.SetCondition(domain.ClaimCondition{
		StartTime:              now.Add(-time.Hour),
		QuantityLimitPerWallet: big.NewInt(2),
	}, true))
	loosened := &domain.AllowlistProof{QuantityLimitPerWallet: big.NewInt(100)}
	_, err = e.Validate(claimer, big.NewInt(3), domain.NativeCurrency, big.NewInt(0), loosened, now)
	assert.ErrorIs(t, err, domain.ErrExceedsWalletLimit)
}

func TestRecordWithoutCondition(t *testing.T) {
	e := claim.NewEngine(unitScale)

	err := e.Record(claimer, big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrNoActiveClaimCondition)
	assert.Equal(t, big.NewInt(0), e.ClaimedBy(claimer))
}

func TestTotalPriceFixedPoint(t *testing.T) {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	// 10 units at 1 whole-token price scaled by 1e18
	quantity := new(big.Int).Mul(big.NewInt(10), scale)
	total, err := claim.TotalPrice(quantity, big.NewInt(1), scale)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), total)

	// Flooring below one unit is rejected rather than rounded to free
	_, err = claim.TotalPrice(big.NewInt(9), big.NewInt(1), scale)
	assert.ErrorIs(t, err, domain.ErrPriceTooLow)

	// Zero price is free regardless of quantity
	total, err = claim.TotalPrice(big.NewInt(9), big.NewInt(0), scale)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), total)

	total, err = claim.TotalPrice(big.NewInt(9), nil, scale)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), total)
}

func TestSetConditionCarriesSupplyClaimed(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{StartTime: now.Add(-time.Hour)})
	require.NoError(t, e.Record(claimer, big.NewInt(7)))

	// Not resetting carries claimed supply and wallet counters over
	require.NoError(t, e.SetCondition(domain.ClaimCondition{
		StartTime:          now.Add(-time.Hour),
		MaxClaimableSupply: big.NewInt(10),
	}, false))
	assert.Equal(t, big.NewInt(7), e.Condition().SupplyClaimed)
	assert.Equal(t, big.NewInt(7), e.ClaimedBy(claimer))

	// Resetting zeroes both
	require.NoError(t, e.SetCondition(domain.ClaimCondition{StartTime: now.Add(-time.Hour)}, true))
	assert.Equal(t, big.NewInt(0), e.Condition().SupplyClaimed)
	assert.Equal(t, big.NewInt(0), e.ClaimedBy(claimer))
}

func TestSetConditionRejectsCapBelowClaimed(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{StartTime: now.Add(-time.Hour)})
	require.NoError(t, e.Record(claimer, big.NewInt(7)))

	err := e.SetCondition(domain.ClaimCondition{
		StartTime:          now.Add(-time.Hour),
		MaxClaimableSupply: big.NewInt(6),
	}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidClaimCondition)
}

func TestSetConditionRejectsNegativePrice(t *testing.T) {
	e := claim.NewEngine(unitScale)

	err := e.SetCondition(domain.ClaimCondition{
		StartTime:     now,
		PricePerToken: big.NewInt(-1),
	}, true)
	assert.ErrorIs(t, err, domain.ErrInvalidClaimCondition)
}

func TestSnapshotRestores(t *testing.T) {
	e := newEngine(t, domain.ClaimCondition{StartTime: now.Add(-time.Hour)})
	require.NoError(t, e.Record(claimer, big.NewInt(3)))

	restore := e.Snapshot()
	require.NoError(t, e.Record(claimer, big.NewInt(5)))
	require.NoError(t, e.Record(other, big.NewInt(2)))

	restore()

	assert.Equal(t, big.NewInt(3), e.ClaimedBy(claimer))
	assert.Equal(t, big.NewInt(0), e.ClaimedBy(other))
	assert.Equal(t, big.NewInt(3), e.Condition().SupplyClaimed)
}
