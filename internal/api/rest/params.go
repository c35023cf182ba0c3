package rest

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/sudigital-labs/token-engine/internal/domain"
)

// parseAddress parses a 0x-prefixed hex address
func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address: %q", value)
	}
	return common.HexToAddress(value), nil
}

// parseOptionalAddress parses an address, returning the zero address for ""
func parseOptionalAddress(value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	return parseAddress(value)
}

// parseAmount parses a non-negative decimal token amount
func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %q", value)
	}
	return amount, nil
}

// parseOptionalAmount parses an amount, returning zero for ""
func parseOptionalAmount(value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	return parseAmount(value)
}

// parseNilableAmount parses an amount, returning nil (unlimited) when unset
func parseNilableAmount(value *string) (*big.Int, error) {
	if value == nil {
		return nil, nil
	}
	return parseAmount(*value)
}

// parseHash parses a 0x-prefixed 32-byte hex hash
func parseHash(value string) (common.Hash, error) {
	b, err := hexutil.Decode(value)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash: %q", value)
	}
	return common.BytesToHash(b), nil
}

// parseRole accepts either a 0x-prefixed role hash or a role name such as
// MINTER_ROLE. The literal name "DEFAULT_ADMIN_ROLE" maps to the zero hash.
func parseRole(value string) (domain.Role, error) {
	if value == "" {
		return domain.Role{}, fmt.Errorf("role is required")
	}
	if strings.HasPrefix(value, "0x") {
		return parseHash(value)
	}
	if value == "DEFAULT_ADMIN_ROLE" {
		return domain.DefaultAdminRole, nil
	}
	return domain.RoleID(value), nil
}

// parseSignature parses a 0x-prefixed hex signature
func parseSignature(value string) ([]byte, error) {
	sig, err := hexutil.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}
	return sig, nil
}

// bigString formats an amount, treating nil as zero
func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// nilableBigString formats an amount, preserving nil (unlimited)
func nilableBigString(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
