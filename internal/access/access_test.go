package access_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudigital-labs/token-engine/internal/access"
	"github.com/sudigital-labs/token-engine/internal/domain"
)

var (
	owner    = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	stranger = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	minter   = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func TestOwnerHoldsAdminAndMinterAfterConstruction(t *testing.T) {
	c := access.NewController(owner)

	assert.Equal(t, owner, c.Owner())
	assert.True(t, c.HasRole(domain.DefaultAdminRole, owner))
	assert.True(t, c.HasRole(domain.MinterRole, owner))
	assert.False(t, c.HasRole(domain.DefaultAdminRole, stranger))
}

func TestGrantRoleRequiresAdmin(t *testing.T) {
	c := access.NewController(owner)

	err := c.GrantRole(stranger, domain.MinterRole, minter)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, c.HasRole(domain.MinterRole, minter))

	require.NoError(t, c.GrantRole(owner, domain.MinterRole, minter))
	assert.True(t, c.HasRole(domain.MinterRole, minter))
}

func TestRevokeRoleRequiresAdmin(t *testing.T) {
	c := access.NewController(owner)
	require.NoError(t, c.GrantRole(owner, domain.MinterRole, minter))

	err := c.RevokeRole(stranger, domain.MinterRole, minter)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.True(t, c.HasRole(domain.MinterRole, minter))

	require.NoError(t, c.RevokeRole(owner, domain.MinterRole, minter))
	assert.False(t, c.HasRole(domain.MinterRole, minter))
}

func TestRevokeAbsentMemberIsNoop(t *testing.T) {
	c := access.NewController(owner)

	assert.NoError(t, c.RevokeRole(owner, domain.MinterRole, stranger))
}

func TestRoleMembers(t *testing.T) {
	c := access.NewController(owner)
	require.NoError(t, c.GrantRole(owner, domain.MinterRole, minter))

	members := c.RoleMembers(domain.MinterRole)
	assert.Len(t, members, 2)
	assert.Contains(t, members, owner)
	assert.Contains(t, members, minter)

	assert.Empty(t, c.RoleMembers(domain.TransferRole))
}

func TestOwnerPolicy(t *testing.T) {
	c := access.NewController(owner)
	p := access.NewOwnerPolicy(c)

	assert.True(t, p.CanMint(owner))
	assert.True(t, p.CanSetOwner(owner))
	assert.True(t, p.CanSetClaimConditions(owner))
	assert.True(t, p.CanSignMintRequests(owner))

	assert.False(t, p.CanMint(stranger))
	assert.False(t, p.CanSetOwner(stranger))
	assert.False(t, p.CanSignMintRequests(stranger))

	// Policy follows ownership transfers
	c.SetOwner(stranger)
	assert.True(t, p.CanMint(stranger))
	assert.False(t, p.CanSetOwner(owner))
	// The previous owner keeps the minter role granted at construction
	assert.True(t, p.CanMint(owner))
}

func TestOwnerPolicyMinterRole(t *testing.T) {
	c := access.NewController(owner)
	p := access.NewOwnerPolicy(c)

	assert.False(t, p.CanMint(minter))
	assert.False(t, p.CanSignMintRequests(minter))

	require.NoError(t, c.GrantRole(owner, domain.MinterRole, minter))
	assert.True(t, p.CanMint(minter))
	assert.True(t, p.CanSignMintRequests(minter))
	// Minting authority does not extend to configuration changes
	assert.False(t, p.CanSetClaimConditions(minter))
	assert.False(t, p.CanSetOwner(minter))

	require.NoError(t, c.RevokeRole(owner, domain.MinterRole, minter))
	assert.False(t, p.CanMint(minter))
}

func TestSnapshotRestores(t *testing.T) {
	c := access.NewController(owner)

	restore := c.Snapshot()

	require.NoError(t, c.GrantRole(owner, domain.MinterRole, minter))
	c.SetOwner(stranger)

	restore()

	assert.Equal(t, owner, c.Owner())
	assert.False(t, c.HasRole(domain.MinterRole, minter))
	assert.True(t, c.HasRole(domain.MinterRole, owner))
}
