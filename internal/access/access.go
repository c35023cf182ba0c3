package access

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/sudigital-labs/token-engine/internal/domain"
)

// Policy is the authorization seam consulted by the engine before every
// gated operation. The default policy gates minting on the minter role and
// everything else on ownership; alternate policies can be substituted
// without touching the ledger or claim logic.
type Policy interface {
	CanMint(caller common.Address) bool
	CanSetOwner(caller common.Address) bool
	CanSetPrimarySaleRecipient(caller common.Address) bool
	CanSetClaimConditions(caller common.Address) bool
	CanSetContractURI(caller common.Address) bool
	// CanSignMintRequests reports whether signer's signature authorizes a mint request
	CanSignMintRequests(signer common.Address) bool
}

// Controller holds the owner address and role membership sets
type Controller struct {
	owner common.Address
	roles map[domain.Role]map[common.Address]struct{}
}

// NewController creates a controller owned by owner. The owner is granted
// the default admin and minter roles, so the admin role is never empty
// after construction.
func NewController(owner common.Address) *Controller {
	c := &Controller{
		owner: owner,
		roles: make(map[domain.Role]map[common.Address]struct{}),
	}
	c.grant(domain.DefaultAdminRole, owner)
	c.grant(domain.MinterRole, owner)
	return c
}

// Owner returns the current owner address
func (c *Controller) Owner() common.Address {
	return c.owner
}

// SetOwner replaces the owner address. Authorization is the engine's
// responsibility via the policy.
func (c *Controller) SetOwner(owner common.Address) {
	c.owner = owner
}

// HasRole reports whether account is a member of role
func (c *Controller) HasRole(role domain.Role, account common.Address) bool {
	members := c.roles[role]
	if members == nil {
		return false
	}
	_, ok := members[account]
	return ok
}

// GrantRole adds account to role. The caller must hold the default admin role.
func (c *Controller) GrantRole(caller common.Address, role domain.Role, account common.Address) error {
	if !c.HasRole(domain.DefaultAdminRole, caller) {
		return domain.ErrUnauthorized
	}
	c.grant(role, account)
	return nil
}

// RevokeRole removes account from role. The caller must hold the default admin role.
func (c *Controller) RevokeRole(caller common.Address, role domain.Role, account common.Address) error {
	if !c.HasRole(domain.DefaultAdminRole, caller) {
		return domain.ErrUnauthorized
	}
	if members := c.roles[role]; members != nil {
		delete(members, account)
	}
	return nil
}

// RoleMembers returns the members of a role
func (c *Controller) RoleMembers(role domain.Role) []common.Address {
	members := c.roles[role]
	out := make([]common.Address, 0, len(members))
	for account := range members {
		out = append(out, account)
	}
	return out
}

// Snapshot captures owner and role memberships and returns a restore function
func (c *Controller) Snapshot() func() {
	owner := c.owner
	roles := make(map[domain.Role]map[common.Address]struct{}, len(c.roles))
	for role, members := range c.roles {
		cm := make(map[common.Address]struct{}, len(members))
		for account := range members {
			cm[account] = struct{}{}
		}
		roles[role] = cm
	}

	return func() {
		c.owner = owner
		c.roles = roles
	}
}

func (c *Controller) grant(role domain.Role, account common.Address) {
	members := c.roles[role]
	if members == nil {
		members = make(map[common.Address]struct{})
		c.roles[role] = members
	}
	members[account] = struct{}{}
}

// ownerPolicy authorizes configuration changes for the owner address and
// minting for minter role holders (the owner is a minter from construction)
type ownerPolicy struct {
	controller *Controller
}

// NewOwnerPolicy returns the default policy backed by controller's owner
// address and role sets
func NewOwnerPolicy(controller *Controller) Policy {
	return &ownerPolicy{controller: controller}
}

func (p *ownerPolicy) isOwner(caller common.Address) bool {
	return caller == p.controller.Owner()
}

func (p *ownerPolicy) canMint(caller common.Address) bool {
	return p.isOwner(caller) || p.controller.HasRole(domain.MinterRole, caller)
}

func (p *ownerPolicy) CanMint(caller common.Address) bool { return p.canMint(caller) }

func (p *ownerPolicy) CanSetOwner(caller common.Address) bool { return p.isOwner(caller) }

func (p *ownerPolicy) CanSetPrimarySaleRecipient(caller common.Address) bool {
	return p.isOwner(caller)
}

func (p *ownerPolicy) CanSetClaimConditions(caller common.Address) bool { return p.isOwner(caller) }

func (p *ownerPolicy) CanSetContractURI(caller common.Address) bool { return p.isOwner(caller) }

func (p *ownerPolicy) CanSignMintRequests(signer common.Address) bool { return p.canMint(signer) }
