package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sudigital-labs/token-engine/internal/claim"
	"github.com/sudigital-labs/token-engine/internal/domain"
)

// MintTo mints amount to recipient if the caller may mint
func (e *Engine) MintTo(caller, to common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mintTo(caller, to, amount)
}

func (e *Engine) mintTo(caller, to common.Address, amount *big.Int) error {
	if !e.policy.CanMint(caller) {
		return domain.ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrZeroAmount
	}

	e.seq++
	if err := e.ledger.Mint(to, amount); err != nil {
		e.seq--
		return err
	}
	e.emit(domain.TokenEvent{
		Type:     domain.EventTypeMint,
		Caller:   caller,
		To:       addrPtr(to),
		Quantity: domain.CloneBig(amount),
	})
	return nil
}

// Burn burns amount from the caller's own balance. No authorization is
// required to burn one's own tokens.
func (e *Engine) Burn(caller common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.burn(caller, caller, amount)
}

// BurnFrom burns amount from account, spending the caller's allowance.
// Burning one's own balance never needs an allowance.
func (e *Engine) BurnFrom(caller, account common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.burn(caller, account, amount)
}

func (e *Engine) burn(caller, account common.Address, amount *big.Int) error {
	if amount == nil {
		amount = new(big.Int)
	}
	if e.ledger.BalanceOf(account).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	if caller != account {
		if err := e.ledger.SpendAllowance(account, caller, amount); err != nil {
			return err
		}
	}

	e.seq++
	if err := e.ledger.Burn(account, amount); err != nil {
		e.seq--
		return err
	}
	e.emit(domain.TokenEvent{
		Type:     domain.EventTypeBurn,
		Caller:   caller,
		From:     addrPtr(account),
		Quantity: domain.CloneBig(amount),
	})
	return nil
}

// Transfer moves amount from the caller to recipient
func (e *Engine) Transfer(caller, to common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transfer(caller, caller, to, amount)
}

// TransferFrom moves amount from account to recipient, spending the
// caller's allowance
func (e *Engine) TransferFrom(caller, from, to common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != from {
		if amount != nil && e.ledger.BalanceOf(from).Cmp(amount) < 0 {
			return domain.ErrInsufficientBalance
		}
		if err := e.ledger.SpendAllowance(from, caller, amount); err != nil {
			return err
		}
	}
	return e.transfer(caller, from, to, amount)
}

func (e *Engine) transfer(caller, from, to common.Address, amount *big.Int) error {
	e.seq++
	if err := e.ledger.Transfer(from, to, amount); err != nil {
		e.seq--
		return err
	}
	e.emit(domain.TokenEvent{
		Type:     domain.EventTypeTransfer,
		Caller:   caller,
		From:     addrPtr(from),
		To:       addrPtr(to),
		Quantity: domain.CloneBig(amount),
	})
	return nil
}

// Approve sets spender's allowance over the caller's balance
func (e *Engine) Approve(caller, spender common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.approve(caller, spender, amount)
}

func (e *Engine) approve(caller, spender common.Address, amount *big.Int) error {
	e.seq++
	e.ledger.Approve(caller, spender, amount)
	e.emit(domain.TokenEvent{
		Type:     domain.EventTypeApproval,
		Caller:   caller,
		Spender:  addrPtr(spender),
		Quantity: domain.CloneBig(amount),
	})
	return nil
}

// Delegate attributes the caller's voting weight to delegatee
func (e *Engine) Delegate(caller, delegatee common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delegate(caller, delegatee)
}

func (e *Engine) delegate(caller, delegatee common.Address) error {
	e.seq++
	e.votes.Delegate(caller, delegatee, e.ledger.BalanceOf(caller), e.seq)
	e.emit(domain.TokenEvent{
		Type:      domain.EventTypeDelegate,
		Caller:    caller,
		Delegatee: addrPtr(delegatee),
	})
	return nil
}

// Claim mints quantity to receiver against the active claim condition,
// charging the claim price to the caller. value is the native payment
// attached to the call.
func (e *Engine) Claim(caller, receiver common.Address, quantity *big.Int, currency common.Address, pricePerToken *big.Int, proof *domain.AllowlistProof, value *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.claim(caller, receiver, quantity, currency, pricePerToken, proof, value)
}

func (e *Engine) claim(caller, receiver common.Address, quantity *big.Int, currency common.Address, pricePerToken *big.Int, proof *domain.AllowlistProof, value *big.Int) error {
	terms, err := e.claims.Validate(caller, quantity, currency, pricePerToken, proof, e.clock.Now())
	if err != nil {
		return err
	}

	// Counters move before the payment callout; the snapshot guarantees
	// all-or-nothing if the callout or mint fails
	restore := e.snapshot()
	e.seq++
	if err := e.claims.Record(caller, quantity); err != nil {
		restore()
		return err
	}

	if err := e.collector.CollectPrice(caller, value, terms.Currency, terms.TotalPrice, e.saleRecipient); err != nil {
		restore()
		return err
	}
	if err := e.ledger.Mint(receiver, quantity); err != nil {
		restore()
		return err
	}

	e.emit(domain.TokenEvent{
		Type:          domain.EventTypeClaim,
		Caller:        caller,
		To:            addrPtr(receiver),
		Quantity:      domain.CloneBig(quantity),
		Currency:      addrPtr(terms.Currency),
		PricePerToken: domain.CloneBig(terms.PricePerToken),
		TotalPrice:    domain.CloneBig(terms.TotalPrice),
		SaleRecipient: addrPtr(e.saleRecipient),
	})
	return nil
}

// MintWithSignature mints per an off-chain-signed request, charging its
// price to the caller. It returns the recovered signer as confirmation.
func (e *Engine) MintWithSignature(caller common.Address, req *domain.MintRequest, signature []byte, value *big.Int) (common.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mintWithSignature(caller, req, signature, value)
}

func (e *Engine) mintWithSignature(caller common.Address, req *domain.MintRequest, signature []byte, value *big.Int) (common.Address, error) {
	signer, err := e.mints.Verify(req, signature, e.clock.Now(), e.policy.CanSignMintRequests)
	if err != nil {
		return common.Address{}, err
	}

	totalPrice, err := claim.TotalPrice(req.Quantity, req.PricePerToken, e.scale)
	if err != nil {
		return common.Address{}, err
	}

	recipient := req.PrimarySaleRecipient
	if (recipient == common.Address{}) {
		recipient = e.saleRecipient
	}

	// The uid is consumed before the payment callout so a re-entering payer
	// can never fund two mints from one request
	restore := e.snapshot()
	e.seq++
	e.mints.Consume(req.UID)

	if err := e.collector.CollectPrice(caller, value, req.Currency, totalPrice, recipient); err != nil {
		restore()
		return common.Address{}, err
	}
	if err := e.ledger.Mint(req.To, req.Quantity); err != nil {
		restore()
		return common.Address{}, err
	}

	e.emit(domain.TokenEvent{
		Type:          domain.EventTypeSignatureMint,
		Caller:        caller,
		To:            addrPtr(req.To),
		Quantity:      domain.CloneBig(req.Quantity),
		Currency:      addrPtr(req.Currency),
		PricePerToken: domain.CloneBig(req.PricePerToken),
		TotalPrice:    totalPrice,
		SaleRecipient: addrPtr(recipient),
		UID:           hashPtr(req.UID),
		Signer:        addrPtr(signer),
	})
	return signer, nil
}

// SetClaimCondition replaces the active claim condition wholesale
func (e *Engine) SetClaimCondition(caller common.Address, cond domain.ClaimCondition, resetEligibility bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setClaimCondition(caller, cond, resetEligibility)
}

func (e *Engine) setClaimCondition(caller common.Address, cond domain.ClaimCondition, resetEligibility bool) error {
	if !e.policy.CanSetClaimConditions(caller) {
		return domain.ErrUnauthorized
	}
	e.seq++
	if err := e.claims.SetCondition(cond, resetEligibility); err != nil {
		e.seq--
		return err
	}
	e.emit(domain.TokenEvent{
		Type:             domain.EventTypeConditionSet,
		Caller:           caller,
		Condition:        e.claims.Condition(),
		ResetEligibility: boolPtr(resetEligibility),
	})
	return nil
}

// SetPrimarySaleRecipient replaces the default proceeds recipient
func (e *Engine) SetPrimarySaleRecipient(caller, recipient common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setPrimarySaleRecipient(caller, recipient)
}

func (e *Engine) setPrimarySaleRecipient(caller, recipient common.Address) error {
	if !e.policy.CanSetPrimarySaleRecipient(caller) {
		return domain.ErrUnauthorized
	}
	e.seq++
	e.saleRecipient = recipient
	e.emit(domain.TokenEvent{
		Type:   domain.EventTypeSaleRecipient,
		Caller: caller,
		To:     addrPtr(recipient),
	})
	return nil
}

// SetOwner replaces the owner address
func (e *Engine) SetOwner(caller, owner common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setOwner(caller, owner)
}

func (e *Engine) setOwner(caller, owner common.Address) error {
	if !e.policy.CanSetOwner(caller) {
		return domain.ErrUnauthorized
	}
	e.seq++
	e.control.SetOwner(owner)
	e.emit(domain.TokenEvent{
		Type:   domain.EventTypeOwnerSet,
		Caller: caller,
		To:     addrPtr(owner),
	})
	return nil
}

// SetContractURI replaces the contract metadata URI
func (e *Engine) SetContractURI(caller common.Address, uri string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setContractURI(caller, uri)
}

func (e *Engine) setContractURI(caller common.Address, uri string) error {
	if !e.policy.CanSetContractURI(caller) {
		return domain.ErrUnauthorized
	}
	e.seq++
	e.contractURI = uri
	e.emit(domain.TokenEvent{
		Type:   domain.EventTypeContractURISet,
		Caller: caller,
		URI:    strPtr(uri),
	})
	return nil
}

// GrantRole adds account to role; the caller must hold the admin role
func (e *Engine) GrantRole(caller common.Address, role domain.Role, account common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grantRole(caller, role, account)
}

func (e *Engine) grantRole(caller common.Address, role domain.Role, account common.Address) error {
	if err := e.control.GrantRole(caller, role, account); err != nil {
		return err
	}
	e.seq++
	roleCopy := role
	e.emit(domain.TokenEvent{
		Type:   domain.EventTypeRoleGranted,
		Caller: caller,
		Role:   &roleCopy,
		To:     addrPtr(account),
	})
	return nil
}

// RevokeRole removes account from role; the caller must hold the admin role
func (e *Engine) RevokeRole(caller common.Address, role domain.Role, account common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revokeRole(caller, role, account)
}

func (e *Engine) revokeRole(caller common.Address, role domain.Role, account common.Address) error {
	if err := e.control.RevokeRole(caller, role, account); err != nil {
		return err
	}
	e.seq++
	roleCopy := role
	e.emit(domain.TokenEvent{
		Type:   domain.EventTypeRoleRevoked,
		Caller: caller,
		Role:   &roleCopy,
		To:     addrPtr(account),
	})
	return nil
}

// Call is one operation inside a multicall batch
type Call func(b *Batch) error

// Batch exposes the engine's operations to multicall entries without
// re-acquiring the engine lock
type Batch struct {
	e      *Engine
	caller common.Address
}

func (b *Batch) MintTo(to common.Address, amount *big.Int) error {
	return b.e.mintTo(b.caller, to, amount)
}

func (b *Batch) Burn(amount *big.Int) error {
	return b.e.burn(b.caller, b.caller, amount)
}

func (b *Batch) BurnFrom(account common.Address, amount *big.Int) error {
	return b.e.burn(b.caller, account, amount)
}

func (b *Batch) Transfer(to common.Address, amount *big.Int) error {
	return b.e.transfer(b.caller, b.caller, to, amount)
}

func (b *Batch) Approve(spender common.Address, amount *big.Int) error {
	return b.e.approve(b.caller, spender, amount)
}

func (b *Batch) Delegate(delegatee common.Address) error {
	return b.e.delegate(b.caller, delegatee)
}

func (b *Batch) Claim(receiver common.Address, quantity *big.Int, currency common.Address, pricePerToken *big.Int, proof *domain.AllowlistProof, value *big.Int) error {
	return b.e.claim(b.caller, receiver, quantity, currency, pricePerToken, proof, value)
}

func (b *Batch) MintWithSignature(req *domain.MintRequest, signature []byte, value *big.Int) error {
	_, err := b.e.mintWithSignature(b.caller, req, signature, value)
	return err
}

func (b *Batch) SetClaimCondition(cond domain.ClaimCondition, resetEligibility bool) error {
	return b.e.setClaimCondition(b.caller, cond, resetEligibility)
}

func (b *Batch) SetPrimarySaleRecipient(recipient common.Address) error {
	return b.e.setPrimarySaleRecipient(b.caller, recipient)
}

func (b *Batch) SetOwner(owner common.Address) error {
	return b.e.setOwner(b.caller, owner)
}

func (b *Batch) SetContractURI(uri string) error {
	return b.e.setContractURI(b.caller, uri)
}

func (b *Batch) GrantRole(role domain.Role, account common.Address) error {
	return b.e.grantRole(b.caller, role, account)
}

func (b *Batch) RevokeRole(role domain.Role, account common.Address) error {
	return b.e.revokeRole(b.caller, role, account)
}

// Multicall executes calls as one atomic unit: either every call commits or
// the whole batch is rolled back
func (e *Engine) Multicall(caller common.Address, calls []Call) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	restore := e.snapshot()
	b := &Batch{e: e, caller: caller}
	for _, call := range calls {
		if err := call(b); err != nil {
			restore()
			return err
		}
	}
	return nil
}
