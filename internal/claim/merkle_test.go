package claim_test

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudigital-labs/token-engine/internal/claim"
	"github.com/sudigital-labs/token-engine/internal/domain"
)

func TestLeafIsDeterministic(t *testing.T) {
	claimer := common.HexToAddress("0x1111111111111111111111111111111111111111")

	a := claim.Leaf(claimer, big.NewInt(5), big.NewInt(10), domain.NativeCurrency)
	b := claim.Leaf(claimer, big.NewInt(5), big.NewInt(10), domain.NativeCurrency)
	assert.Equal(t, a, b)

	// Any field change produces a different leaf
	assert.NotEqual(t, a, claim.Leaf(claimer, big.NewInt(6), big.NewInt(10), domain.NativeCurrency))
	assert.NotEqual(t, a, claim.Leaf(claimer, big.NewInt(5), big.NewInt(11), domain.NativeCurrency))
	assert.NotEqual(t, a, claim.Leaf(claimer, big.NewInt(5), big.NewInt(10), common.HexToAddress("0x02")))
}

func TestNilLimitEncodesAsUnlimited(t *testing.T) {
	claimer := common.HexToAddress("0x1111111111111111111111111111111111111111")

	// nil and explicit max-uint256 encode identically
	maxUint := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.Equal(t,
		claim.Leaf(claimer, nil, big.NewInt(1), domain.NativeCurrency),
		claim.Leaf(claimer, maxUint, big.NewInt(1), domain.NativeCurrency),
	)
}

func TestBuildTreeAndVerifyProofs(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 13} {
		t.Run(fmt.Sprintf("%d_leaves", n), func(t *testing.T) {
			leaves := make([]common.Hash, n)
			for i := range leaves {
				claimer := common.BigToAddress(big.NewInt(int64(i + 1)))
				leaves[i] = claim.Leaf(claimer, big.NewInt(int64(i)), big.NewInt(0), domain.NativeCurrency)
			}

			root, proofs := claim.BuildTree(leaves)
			require.Len(t, proofs, n)

			for i, leaf := range leaves {
				assert.True(t, claim.VerifyProof(root, leaf, proofs[i]), "leaf %d", i)
			}
		})
	}
}

func TestVerifyProofRejectsWrongLeaf(t *testing.T) {
	leaves := []common.Hash{
		claim.Leaf(common.BigToAddress(big.NewInt(1)), nil, nil, domain.NativeCurrency),
		claim.Leaf(common.BigToAddress(big.NewInt(2)), nil, nil, domain.NativeCurrency),
		claim.Leaf(common.BigToAddress(big.NewInt(3)), nil, nil, domain.NativeCurrency),
	}
	root, proofs := claim.BuildTree(leaves)

	outsider := claim.Leaf(common.BigToAddress(big.NewInt(99)), nil, nil, domain.NativeCurrency)
	assert.False(t, claim.VerifyProof(root, outsider, proofs[0]))

	// Proof for one leaf does not verify another
	assert.False(t, claim.VerifyProof(root, leaves[1], proofs[0]))
}

func TestBuildTreeEmpty(t *testing.T) {
	root, proofs := claim.BuildTree(nil)

	assert.Equal(t, common.Hash{}, root)
	assert.Nil(t, proofs)
}

func TestSingleLeafRootIsLeaf(t *testing.T) {
	leaf := claim.Leaf(common.BigToAddress(big.NewInt(1)), nil, nil, domain.NativeCurrency)
	root, proofs := claim.BuildTree([]common.Hash{leaf})

	assert.Equal(t, leaf, root)
	assert.Empty(t, proofs[0])
}
