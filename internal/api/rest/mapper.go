package rest

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sudigital-labs/token-engine/internal/api/shared/dto"
	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/engine"
)

// toDomainProof converts an allowlist proof DTO to its domain form
func toDomainProof(p *dto.AllowlistProof) (*domain.AllowlistProof, error) {
	if p == nil {
		return nil, nil
	}

	proof := &domain.AllowlistProof{
		Proof: make([]common.Hash, 0, len(p.Proof)),
	}
	for _, node := range p.Proof {
		h, err := parseHash(node)
		if err != nil {
			return nil, fmt.Errorf("invalid proof node: %w", err)
		}
		proof.Proof = append(proof.Proof, h)
	}

	var err error
	if proof.QuantityLimitPerWallet, err = parseNilableAmount(p.QuantityLimitPerWallet); err != nil {
		return nil, fmt.Errorf("invalid quantity limit: %w", err)
	}
	if proof.PricePerToken, err = parseNilableAmount(p.PricePerToken); err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	if p.Currency != nil {
		currency, err := parseAddress(*p.Currency)
		if err != nil {
			return nil, fmt.Errorf("invalid currency: %w", err)
		}
		proof.Currency = &currency
	}
	return proof, nil
}

// toDomainMintRequest converts a signed mint payload DTO to its domain form
func toDomainMintRequest(p *dto.SignedMintPayload) (*domain.MintRequest, error) {
	to, err := parseAddress(p.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	saleRecipient, err := parseOptionalAddress(p.PrimarySaleRecipient)
	if err != nil {
		return nil, fmt.Errorf("invalid sale recipient: %w", err)
	}
	quantity, err := parseAmount(p.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %w", err)
	}
	pricePerToken, err := parseOptionalAmount(p.PricePerToken)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	currency, err := parseOptionalAddress(p.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid currency: %w", err)
	}
	uid, err := parseHash(p.UID)
	if err != nil {
		return nil, fmt.Errorf("invalid uid: %w", err)
	}

	return &domain.MintRequest{
		To:                   to,
		PrimarySaleRecipient: saleRecipient,
		Quantity:             quantity,
		PricePerToken:        pricePerToken,
		Currency:             currency,
		ValidityStart:        p.ValidityStart,
		ValidityEnd:          p.ValidityEnd,
		UID:                  uid,
	}, nil
}

// toDomainCondition converts a claim condition DTO to its domain form
func toDomainCondition(p *dto.ClaimConditionRequest) (*domain.ClaimCondition, error) {
	pricePerToken, err := parseOptionalAmount(p.PricePerToken)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	currency, err := parseOptionalAddress(p.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid currency: %w", err)
	}
	maxSupply, err := parseNilableAmount(p.MaxClaimableSupply)
	if err != nil {
		return nil, fmt.Errorf("invalid max claimable supply: %w", err)
	}
	walletLimit, err := parseNilableAmount(p.QuantityLimitPerWallet)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet limit: %w", err)
	}
	merkleRoot := common.Hash{}
	if p.MerkleRoot != "" {
		if merkleRoot, err = parseHash(p.MerkleRoot); err != nil {
			return nil, fmt.Errorf("invalid merkle root: %w", err)
		}
	}

	return &domain.ClaimCondition{
		StartTime:              p.StartTime,
		PricePerToken:          pricePerToken,
		Currency:               currency,
		MaxClaimableSupply:     maxSupply,
		SupplyClaimed:          new(big.Int),
		QuantityLimitPerWallet: walletLimit,
		MerkleRoot:             merkleRoot,
	}, nil
}

// toEngineCall converts a multicall entry DTO to an engine batch call
func toEngineCall(entry dto.MulticallCall) (engine.Call, error) {
	quantity, err := parseOptionalAmount(entry.Quantity)
	if err != nil {
		return nil, err
	}

	switch entry.Type {
	case "mint":
		to, err := parseAddress(entry.To)
		if err != nil {
			return nil, err
		}
		return func(b *engine.Batch) error { return b.MintTo(to, quantity) }, nil

	case "burn":
		if entry.From != "" {
			from, err := parseAddress(entry.From)
			if err != nil {
				return nil, err
			}
			return func(b *engine.Batch) error { return b.BurnFrom(from, quantity) }, nil
		}
		return func(b *engine.Batch) error { return b.Burn(quantity) }, nil

	case "transfer":
		to, err := parseAddress(entry.To)
		if err != nil {
			return nil, err
		}
		return func(b *engine.Batch) error { return b.Transfer(to, quantity) }, nil

	case "approve":
		spender, err := parseAddress(entry.Spender)
		if err != nil {
			return nil, err
		}
		return func(b *engine.Batch) error { return b.Approve(spender, quantity) }, nil

	case "delegate":
		delegatee, err := parseAddress(entry.Delegatee)
		if err != nil {
			return nil, err
		}
		return func(b *engine.Batch) error { return b.Delegate(delegatee) }, nil

	default:
		return nil, fmt.Errorf("unsupported call type %q", entry.Type)
	}
}
