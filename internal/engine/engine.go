package engine

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sudigital-labs/token-engine/internal/access"
	"github.com/sudigital-labs/token-engine/internal/adapter"
	"github.com/sudigital-labs/token-engine/internal/claim"
	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/ledger"
	"github.com/sudigital-labs/token-engine/internal/payment"
	"github.com/sudigital-labs/token-engine/internal/sigmint"
	"github.com/sudigital-labs/token-engine/internal/votes"
)

// DefaultScale is the fixed-point unit prices are expressed against:
// one whole token in 18-decimal representation.
var DefaultScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// EventSink receives every committed engine event. The sink runs after the
// operation committed and must not call back into the engine.
type EventSink func(event domain.TokenEvent)

// Config describes one engine instance
type Config struct {
	// Name and Symbol identify the token; Name also anchors the EIP-712
	// signing domain for mint requests
	Name    string
	Symbol  string
	Version string
	// ChainID and Address pin the EIP-712 domain; Address is also the
	// operator currency allowances are granted to
	ChainID *big.Int
	Address common.Address
	// Owner is the fixed admin wired in at construction
	Owner common.Address
	// PrimarySaleRecipient is the default proceeds recipient
	PrimarySaleRecipient common.Address
	ContractURI          string
	// Scale overrides the 18-decimal price scaling unit (nil = DefaultScale)
	Scale *big.Int
}

// Engine is the aggregate token contract: it owns one instance of each
// component and dispatches every external entry point to the component that
// owns the state, with authorization supplied by an injected policy.
//
// Every mutating call runs to completion or fails with no state mutated.
// A mutex imposes the total ordering the components rely on.
type Engine struct {
	mu sync.Mutex

	name          string
	symbol        string
	contractURI   string
	address       common.Address
	saleRecipient common.Address
	scale         *big.Int

	ledger    *ledger.Ledger
	votes     *votes.Book
	control   *access.Controller
	policy    access.Policy
	claims    *claim.Engine
	mints     *sigmint.Engine
	collector payment.Collector
	clock     adapter.Clock

	seq       uint64
	sink      EventSink
	replaying bool
}

// Option customizes engine construction
type Option func(*Engine)

// WithPolicy substitutes the authorization policy. The default collapses
// every gated predicate to "caller is the owner".
func WithPolicy(policy access.Policy) Option {
	return func(e *Engine) { e.policy = policy }
}

// WithSink registers the committed-event sink
func WithSink(sink EventSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// New creates an engine with zero supply, the configured owner holding the
// admin role, and no active claim condition
func New(cfg Config, collector payment.Collector, clock adapter.Clock, opts ...Option) *Engine {
	scale := cfg.Scale
	if scale == nil {
		scale = DefaultScale
	}
	chainID := cfg.ChainID
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	version := cfg.Version
	if version == "" {
		version = "1"
	}

	control := access.NewController(cfg.Owner)
	e := &Engine{
		name:          cfg.Name,
		symbol:        cfg.Symbol,
		contractURI:   cfg.ContractURI,
		address:       cfg.Address,
		saleRecipient: cfg.PrimarySaleRecipient,
		scale:         new(big.Int).Set(scale),
		ledger:        ledger.New(),
		votes:         votes.New(),
		control:       control,
		policy:        access.NewOwnerPolicy(control),
		claims:        claim.NewEngine(scale),
		mints:         sigmint.NewEngine(cfg.Name, version, chainID, cfg.Address),
		collector:     collector,
		clock:         clock,
	}
	for _, opt := range opts {
		opt(e)
	}

	// Every balance movement feeds the vote checkpoints at the sequence of
	// the operation in flight
	e.ledger.OnBalanceChange(func(from, to common.Address, amount *big.Int) {
		e.votes.TransferUnits(from, to, amount, e.seq)
	})

	return e
}

// SignatureDomain exposes the signature-mint engine for off-line request
// hashing and signing (tools, tests)
func (e *Engine) SignatureDomain() *sigmint.Engine {
	return e.mints
}

// Name returns the token name
func (e *Engine) Name() string { return e.name }

// Symbol returns the token symbol
func (e *Engine) Symbol() string { return e.symbol }

// ContractURI returns the contract metadata URI
func (e *Engine) ContractURI() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contractURI
}

// Owner returns the current owner address
func (e *Engine) Owner() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.control.Owner()
}

// PrimarySaleRecipient returns the default proceeds recipient
func (e *Engine) PrimarySaleRecipient() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saleRecipient
}

// TotalSupply returns the current total supply
func (e *Engine) TotalSupply() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalSupply()
}

// BalanceOf returns holder's balance
func (e *Engine) BalanceOf(holder common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.BalanceOf(holder)
}

// Allowance returns spender's remaining allowance over owner's balance
func (e *Engine) Allowance(owner, spender common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Allowance(owner, spender)
}

// VotesOf returns delegate's current voting weight
func (e *Engine) VotesOf(delegate common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.votes.CurrentVotes(delegate)
}

// VotesAt returns delegate's voting weight as of a past sequence number
func (e *Engine) VotesAt(delegate common.Address, seq uint64) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.votes.VotesAt(delegate, seq)
}

// DelegateOf returns the address holder's voting weight is attributed to
func (e *Engine) DelegateOf(holder common.Address) common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.votes.DelegateOf(holder)
}

// Checkpoints returns delegate's full checkpoint history
func (e *Engine) Checkpoints(delegate common.Address) []votes.Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.votes.Checkpoints(delegate)
}

// ClaimCondition returns the active claim condition, or nil
func (e *Engine) ClaimCondition() *domain.ClaimCondition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.claims.Condition()
}

// ClaimedBy returns wallet's cumulative claimed quantity
func (e *Engine) ClaimedBy(wallet common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.claims.ClaimedBy(wallet)
}

// HasRole reports whether account holds role
func (e *Engine) HasRole(role domain.Role, account common.Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.control.HasRole(role, account)
}

// RoleMembers returns the members of role
func (e *Engine) RoleMembers(role domain.Role) []common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.control.RoleMembers(role)
}

// Sequence returns the sequence number of the last committed operation
func (e *Engine) Sequence() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// snapshot captures the state of every component and returns a restore
// function rolling all of them back, including the sequence counter
func (e *Engine) snapshot() func() {
	seq := e.seq
	saleRecipient := e.saleRecipient
	uri := e.contractURI
	restores := []func(){
		e.ledger.Snapshot(),
		e.votes.Snapshot(),
		e.control.Snapshot(),
		e.claims.Snapshot(),
		e.mints.Snapshot(),
		e.collector.Snapshot(),
	}

	return func() {
		e.seq = seq
		e.saleRecipient = saleRecipient
		e.contractURI = uri
		for _, restore := range restores {
			restore()
		}
	}
}

// emit delivers a committed event to the sink. Replayed events are not
// re-emitted.
func (e *Engine) emit(event domain.TokenEvent) {
	if e.sink == nil || e.replaying {
		return
	}
	event.Sequence = e.seq
	event.Timestamp = e.clock.Now()
	e.sink(event)
}

func addrPtr(a common.Address) *common.Address { return &a }
func hashPtr(h common.Hash) *common.Hash       { return &h }
func boolPtr(b bool) *bool                     { return &b }
func strPtr(s string) *string                  { return &s }
