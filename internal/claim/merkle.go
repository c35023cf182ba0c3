package claim

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// Leaf computes the allowlist leaf hash binding a claimer to its per-wallet
// limit, price and currency overrides:
// keccak256(claimer ++ uint256(limit) ++ uint256(price) ++ currency).
// Unlimited (nil) limits are encoded as the maximum uint256.
func Leaf(claimer common.Address, quantityLimit, pricePerToken *big.Int, currency common.Address) common.Hash {
	buf := make([]byte, 0, 20+32+32+20)
	buf = append(buf, claimer.Bytes()...)
	buf = append(buf, encodeUint256(quantityLimit)...)
	buf = append(buf, encodeUint256(pricePerToken)...)
	buf = append(buf, currency.Bytes()...)
	return crypto.Keccak256Hash(buf)
}

// VerifyProof checks a merkle proof against root using sorted-pair hashing
func VerifyProof(root, leaf common.Hash, proof []common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// BuildTree computes the merkle root and per-leaf proofs for an allowlist.
// Odd nodes at any level are promoted unchanged. Proof order matches the
// leaves argument.
func BuildTree(leaves []common.Hash) (common.Hash, [][]common.Hash) {
	if len(leaves) == 0 {
		return common.Hash{}, nil
	}

	proofs := make([][]common.Hash, len(leaves))
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)

	// index of each original leaf within the current level
	position := make([]int, len(leaves))
	for i := range position {
		position[i] = i
	}

	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}

		for leafIdx, pos := range position {
			sibling := pos ^ 1
			if sibling < len(level) {
				proofs[leafIdx] = append(proofs[leafIdx], level[sibling])
			}
			position[leafIdx] = pos / 2
		}

		level = next
	}

	return level[0], proofs
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
}

func encodeUint256(v *big.Int) []byte {
	if v == nil {
		v = math.MaxBig256
	}
	return math.U256Bytes(new(big.Int).Set(v))
}
