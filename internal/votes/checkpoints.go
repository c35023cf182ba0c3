package votes

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Checkpoint is one point in a delegate's voting-weight history
type Checkpoint struct {
	// Sequence is the logical instant the weight took effect
	Sequence uint64 `json:"sequence"`
	// Votes is the delegate's total delegated weight as of Sequence
	Votes *big.Int `json:"votes"`
}

// Book tracks per-delegate voting-weight checkpoint histories and holder
// delegations. Every holder delegates to itself until it explicitly
// delegates elsewhere.
//
// Sequence numbers within a history are strictly increasing: writes at an
// already-recorded sequence coalesce into the existing checkpoint instead of
// appending a duplicate.
type Book struct {
	delegates map[common.Address]common.Address
	history   map[common.Address][]Checkpoint
}

// New creates an empty checkpoint book
func New() *Book {
	return &Book{
		delegates: make(map[common.Address]common.Address),
		history:   make(map[common.Address][]Checkpoint),
	}
}

// DelegateOf returns the address a holder's voting weight is attributed to
func (b *Book) DelegateOf(holder common.Address) common.Address {
	if d, ok := b.delegates[holder]; ok {
		return d
	}
	return holder
}

// Delegate moves the holder's entire current balance weight from its old
// delegate to delegatee, checkpointing both at seq
func (b *Book) Delegate(holder, delegatee common.Address, balance *big.Int, seq uint64) {
	old := b.DelegateOf(holder)
	if old == delegatee {
		return
	}
	b.delegates[holder] = delegatee
	b.moveVotes(old, delegatee, balance, seq)
}

// TransferUnits reflects a ledger balance movement in the delegates'
// weights. The zero address on either side denotes a mint or burn.
func (b *Book) TransferUnits(from, to common.Address, amount *big.Int, seq uint64) {
	var fromDelegate, toDelegate common.Address
	if (from != common.Address{}) {
		fromDelegate = b.DelegateOf(from)
	}
	if (to != common.Address{}) {
		toDelegate = b.DelegateOf(to)
	}
	b.moveVotes(fromDelegate, toDelegate, amount, seq)
}

// CurrentVotes returns the delegate's latest recorded weight
func (b *Book) CurrentVotes(delegate common.Address) *big.Int {
	h := b.history[delegate]
	if len(h) == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(h[len(h)-1].Votes)
}

// VotesAt returns the delegate's weight as of seq: the value of the latest
// checkpoint with sequence <= seq, or zero if none exists
func (b *Book) VotesAt(delegate common.Address, seq uint64) *big.Int {
	h := b.history[delegate]
	// First checkpoint strictly after seq; the answer precedes it.
	idx := sort.Search(len(h), func(i int) bool { return h[i].Sequence > seq })
	if idx == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(h[idx-1].Votes)
}

// CheckpointCount returns the number of checkpoints in the delegate's history
func (b *Book) CheckpointCount(delegate common.Address) int {
	return len(b.history[delegate])
}

// Checkpoints returns a copy of the delegate's full history
func (b *Book) Checkpoints(delegate common.Address) []Checkpoint {
	h := b.history[delegate]
	out := make([]Checkpoint, len(h))
	for i, cp := range h {
		out[i] = Checkpoint{Sequence: cp.Sequence, Votes: new(big.Int).Set(cp.Votes)}
	}
	return out
}

// Snapshot captures delegations and histories and returns a restore function
func (b *Book) Snapshot() func() {
	delegates := make(map[common.Address]common.Address, len(b.delegates))
	for holder, d := range b.delegates {
		delegates[holder] = d
	}
	history := make(map[common.Address][]Checkpoint, len(b.history))
	for addr := range b.history {
		history[addr] = b.Checkpoints(addr)
	}

	return func() {
		b.delegates = delegates
		b.history = history
	}
}

func (b *Book) moveVotes(from, to common.Address, amount *big.Int, seq uint64) {
	if amount == nil || amount.Sign() == 0 || from == to {
		return
	}
	if (from != common.Address{}) {
		next := new(big.Int).Sub(b.CurrentVotes(from), amount)
		b.write(from, next, seq)
	}
	if (to != common.Address{}) {
		next := new(big.Int).Add(b.CurrentVotes(to), amount)
		b.write(to, next, seq)
	}
}

// write appends a checkpoint, coalescing with the last one when the
// sequence number repeats within a single operation
func (b *Book) write(delegate common.Address, votes *big.Int, seq uint64) {
	h := b.history[delegate]
	if n := len(h); n > 0 && h[n-1].Sequence == seq {
		h[n-1].Votes = votes
		return
	}
	b.history[delegate] = append(h, Checkpoint{Sequence: seq, Votes: votes})
}
