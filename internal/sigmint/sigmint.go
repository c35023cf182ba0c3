package sigmint

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/sudigital-labs/token-engine/internal/domain"
)

var (
	domainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))
	requestTypeHash = crypto.Keccak256Hash([]byte(
		"MintRequest(address to,address primarySaleRecipient,uint256 quantity,uint256 pricePerToken,address currency,uint128 validityStartTimestamp,uint128 validityEndTimestamp,bytes32 uid)",
	))
)

// Engine validates off-chain-signed mint requests. Requests are hashed per
// EIP-712 against a fixed domain, the signer is recovered from the supplied
// signature, and each request uid is consumed at most once.
type Engine struct {
	domainSeparator common.Hash
	used            map[common.Hash]struct{}
}

// NewEngine creates a signature-mint engine bound to an EIP-712 domain
func NewEngine(name, version string, chainID *big.Int, verifyingContract common.Address) *Engine {
	separator := crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256Hash([]byte(name)).Bytes(),
		crypto.Keccak256Hash([]byte(version)).Bytes(),
		encodeUint256(chainID),
		encodeAddress(verifyingContract),
	)
	return &Engine{
		domainSeparator: separator,
		used:            make(map[common.Hash]struct{}),
	}
}

// HashRequest returns the EIP-712 digest a signer commits to for req
func (e *Engine) HashRequest(req *domain.MintRequest) common.Hash {
	structHash := crypto.Keccak256Hash(
		requestTypeHash.Bytes(),
		encodeAddress(req.To),
		encodeAddress(req.PrimarySaleRecipient),
		encodeUint256(req.Quantity),
		encodeUint256(req.PricePerToken),
		encodeAddress(req.Currency),
		encodeUint256(big.NewInt(req.ValidityStart.Unix())),
		encodeUint256(big.NewInt(req.ValidityEnd.Unix())),
		req.UID.Bytes(),
	)
	return crypto.Keccak256Hash([]byte("\x19\x01"), e.domainSeparator.Bytes(), structHash.Bytes())
}

// RecoverSigner recovers the address that signed req
func (e *Engine) RecoverSigner(req *domain.MintRequest, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, domain.ErrInvalidSignature
	}

	// Accept both raw {0,1} and Ethereum {27,28} recovery ids
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	digest := e.HashRequest(req)
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignRequest signs req with key, producing a signature RecoverSigner accepts
func (e *Engine) SignRequest(key *ecdsa.PrivateKey, req *domain.MintRequest) ([]byte, error) {
	digest := e.HashRequest(req)
	return crypto.Sign(digest.Bytes(), key)
}

// Verify validates a mint request end to end: quantity, signature, signer
// authorization, validity window and uid freshness. It mutates nothing; a
// caller that proceeds must Consume the uid before any payment callout.
func (e *Engine) Verify(req *domain.MintRequest, signature []byte, now time.Time, authorized func(common.Address) bool) (common.Address, error) {
	if req.Quantity == nil || req.Quantity.Sign() <= 0 {
		return common.Address{}, domain.ErrZeroQuantity
	}

	signer, err := e.RecoverSigner(req, signature)
	if err != nil {
		return common.Address{}, err
	}
	if !authorized(signer) {
		return common.Address{}, domain.ErrInvalidSignature
	}

	if now.Before(req.ValidityStart) || now.After(req.ValidityEnd) {
		return common.Address{}, domain.ErrRequestExpired
	}

	if e.IsUsed(req.UID) {
		return common.Address{}, domain.ErrRequestAlreadyUsed
	}

	return signer, nil
}

// IsUsed reports whether uid has already funded a mint
func (e *Engine) IsUsed(uid common.Hash) bool {
	_, ok := e.used[uid]
	return ok
}

// Consume marks uid as spent. It must run before any external payment
// callout so a re-entering caller cannot fund two mints from one uid.
func (e *Engine) Consume(uid common.Hash) {
	e.used[uid] = struct{}{}
}

// Snapshot captures the consumed-uid set and returns a restore function
func (e *Engine) Snapshot() func() {
	used := make(map[common.Hash]struct{}, len(e.used))
	for uid := range e.used {
		used[uid] = struct{}{}
	}

	return func() {
		e.used = used
	}
}

func encodeAddress(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

func encodeUint256(v *big.Int) []byte {
	if v == nil {
		v = new(big.Int)
	}
	return math.U256Bytes(new(big.Int).Set(v))
}
