package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sudigital-labs/token-engine/internal/domain"
)

// BalanceHook observes committed balance movements. Mints pass the zero
// address as from, burns pass it as to. Hooks run synchronously in the same
// operation and must not mutate the ledger.
type BalanceHook func(from, to common.Address, amount *big.Int)

// Ledger is the balance and supply accounting engine. The sum of all
// balances equals the total supply after every operation, and no balance
// ever goes negative.
//
// The ledger is not safe for concurrent use; the owning engine serializes
// access.
type Ledger struct {
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	hooks      []BalanceHook
}

// New creates an empty ledger with zero supply
func New() *Ledger {
	return &Ledger{
		supply:     new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// OnBalanceChange registers a hook fired after every balance movement
func (l *Ledger) OnBalanceChange(hook BalanceHook) {
	l.hooks = append(l.hooks, hook)
}

// Mint credits to and grows the total supply
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrZeroAmount
	}

	l.credit(to, amount)
	l.supply.Add(l.supply, amount)
	l.fire(common.Address{}, to, amount)
	return nil
}

// Burn debits from and shrinks the total supply
func (l *Ledger) Burn(from common.Address, amount *big.Int) error {
	if amount == nil {
		amount = new(big.Int)
	}
	if l.balanceRef(from).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}

	l.debit(from, amount)
	l.supply.Sub(l.supply, amount)
	l.fire(from, common.Address{}, amount)
	return nil
}

// Transfer atomically debits from and credits to, leaving supply unchanged
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil {
		amount = new(big.Int)
	}
	if l.balanceRef(from).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}

	l.debit(from, amount)
	l.credit(to, amount)
	l.fire(from, to, amount)
	return nil
}

// Approve sets spender's allowance over owner's balance, replacing any
// previous value
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) {
	if amount == nil {
		amount = new(big.Int)
	}
	m := l.allowances[owner]
	if m == nil {
		m = make(map[common.Address]*big.Int)
		l.allowances[owner] = m
	}
	m[spender] = new(big.Int).Set(amount)
}

// Allowance returns spender's remaining allowance over owner's balance
func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	if m := l.allowances[owner]; m != nil {
		if a := m[spender]; a != nil {
			return new(big.Int).Set(a)
		}
	}
	return new(big.Int)
}

// SpendAllowance decrements spender's allowance over owner's balance,
// failing without mutation if the allowance does not cover amount
func (l *Ledger) SpendAllowance(owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	m := l.allowances[owner]
	if m == nil || m[spender] == nil || m[spender].Cmp(amount) < 0 {
		return domain.ErrInsufficientAllowance
	}
	m[spender].Sub(m[spender], amount)
	return nil
}

// BalanceOf returns the holder's balance
func (l *Ledger) BalanceOf(holder common.Address) *big.Int {
	return new(big.Int).Set(l.balanceRef(holder))
}

// TotalSupply returns the current total supply
func (l *Ledger) TotalSupply() *big.Int {
	return new(big.Int).Set(l.supply)
}

// Snapshot captures the full ledger state and returns a restore function
// that rolls it back. Registered hooks are unaffected.
func (l *Ledger) Snapshot() func() {
	supply := new(big.Int).Set(l.supply)
	balances := make(map[common.Address]*big.Int, len(l.balances))
	for addr, bal := range l.balances {
		balances[addr] = new(big.Int).Set(bal)
	}
	allowances := make(map[common.Address]map[common.Address]*big.Int, len(l.allowances))
	for owner, m := range l.allowances {
		cm := make(map[common.Address]*big.Int, len(m))
		for spender, a := range m {
			cm[spender] = new(big.Int).Set(a)
		}
		allowances[owner] = cm
	}

	return func() {
		l.supply = supply
		l.balances = balances
		l.allowances = allowances
	}
}

func (l *Ledger) balanceRef(holder common.Address) *big.Int {
	if bal := l.balances[holder]; bal != nil {
		return bal
	}
	return new(big.Int)
}

func (l *Ledger) credit(holder common.Address, amount *big.Int) {
	bal := l.balances[holder]
	if bal == nil {
		bal = new(big.Int)
		l.balances[holder] = bal
	}
	bal.Add(bal, amount)
}

func (l *Ledger) debit(holder common.Address, amount *big.Int) {
	bal := l.balances[holder]
	if bal == nil {
		bal = new(big.Int)
		l.balances[holder] = bal
	}
	bal.Sub(bal, amount)
}

func (l *Ledger) fire(from, to common.Address, amount *big.Int) {
	for _, hook := range l.hooks {
		hook(from, to, amount)
	}
}
