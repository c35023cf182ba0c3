package payment

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/ledger"
)

// Collector moves primary-sale proceeds from a payer to the sale recipient.
// Implementations are external collaborators from the engine's point of
// view: a failed collection must fail the whole operation, and the engine
// updates its own counters before calling out.
//
//go:generate mockgen -source=payment.go -destination=../mocks/collector.go -package=mocks -mock_names=Collector=MockCollector
type Collector interface {
	// CollectPrice charges totalPrice in currency from payer to recipient.
	// value is the native amount attached to the call: it must equal
	// totalPrice on the native path and be zero on the currency path.
	CollectPrice(payer common.Address, value *big.Int, currency common.Address, totalPrice *big.Int, recipient common.Address) error

	// Snapshot captures collector state and returns a restore function
	Snapshot() func()
}

// Settlement is the in-process Collector: native proceeds accumulate in a
// per-recipient account, and non-native currencies are ledgers of their own
// that the settlement pulls from via allowance.
type Settlement struct {
	operator   common.Address
	currencies map[common.Address]*ledger.Ledger
	proceeds   map[common.Address]*big.Int
}

// NewSettlement creates a settlement whose currency pulls are spent against
// allowances granted to operator (the engine's own address)
func NewSettlement(operator common.Address) *Settlement {
	return &Settlement{
		operator:   operator,
		currencies: make(map[common.Address]*ledger.Ledger),
		proceeds:   make(map[common.Address]*big.Int),
	}
}

// RegisterCurrency makes a non-native payment currency available under addr
func (s *Settlement) RegisterCurrency(addr common.Address, l *ledger.Ledger) {
	s.currencies[addr] = l
}

// Currency returns the ledger backing a registered currency, or nil
func (s *Settlement) Currency(addr common.Address) *ledger.Ledger {
	return s.currencies[addr]
}

// NativeProceeds returns the native-unit proceeds accumulated for recipient
func (s *Settlement) NativeProceeds(recipient common.Address) *big.Int {
	if p := s.proceeds[recipient]; p != nil {
		return new(big.Int).Set(p)
	}
	return new(big.Int)
}

// CollectPrice implements Collector
func (s *Settlement) CollectPrice(payer common.Address, value *big.Int, currency common.Address, totalPrice *big.Int, recipient common.Address) error {
	if value == nil {
		value = new(big.Int)
	}
	if totalPrice == nil || totalPrice.Sign() == 0 {
		// Free claims must not carry stray native value
		if value.Sign() != 0 {
			return domain.ErrInvalidPayment
		}
		return nil
	}

	if domain.IsNativeCurrency(currency) {
		if value.Cmp(totalPrice) != 0 {
			return domain.ErrInvalidPayment
		}
		p := s.proceeds[recipient]
		if p == nil {
			p = new(big.Int)
			s.proceeds[recipient] = p
		}
		p.Add(p, totalPrice)
		return nil
	}

	// Currency path pulls via allowance; no native value may ride along
	if value.Sign() != 0 {
		return domain.ErrInvalidPayment
	}
	l := s.currencies[currency]
	if l == nil {
		return domain.ErrUnknownCurrency
	}
	if l.BalanceOf(payer).Cmp(totalPrice) < 0 {
		return domain.ErrInsufficientBalance
	}
	if err := l.SpendAllowance(payer, s.operator, totalPrice); err != nil {
		return err
	}
	return l.Transfer(payer, recipient, totalPrice)
}

// Snapshot implements Collector
func (s *Settlement) Snapshot() func() {
	proceeds := make(map[common.Address]*big.Int, len(s.proceeds))
	for recipient, p := range s.proceeds {
		proceeds[recipient] = new(big.Int).Set(p)
	}
	restores := make([]func(), 0, len(s.currencies))
	for _, l := range s.currencies {
		restores = append(restores, l.Snapshot())
	}

	return func() {
		s.proceeds = proceeds
		for _, restore := range restores {
			restore()
		}
	}
}
