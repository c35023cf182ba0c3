package sigmint_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/sigmint"
)

var (
	contract = common.HexToAddress("0x9999999999999999999999999999999999999999")
	receiver = common.HexToAddress("0x1111111111111111111111111111111111111111")

	now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
)

func newEngine() *sigmint.Engine {
	return sigmint.NewEngine("Test Token", "1", big.NewInt(1), contract)
}

func testRequest(uid byte) *domain.MintRequest {
	return &domain.MintRequest{
		To:            receiver,
		Quantity:      big.NewInt(100),
		PricePerToken: big.NewInt(0),
		Currency:      domain.NativeCurrency,
		ValidityStart: now.Add(-time.Hour),
		ValidityEnd:   now.Add(time.Hour),
		UID:           common.Hash{uid},
	}
}

func TestSignAndRecoverRoundtrip(t *testing.T) {
	e := newEngine()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	req := testRequest(1)
	sig, err := e.SignRequest(key, req)
	require.NoError(t, err)

	recovered, err := e.RecoverSigner(req, sig)
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)
}

func TestRecoverAcceptsEthereumRecoveryID(t *testing.T) {
	e := newEngine()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	req := testRequest(1)
	sig, err := e.SignRequest(key, req)
	require.NoError(t, err)

	// Shift v from {0,1} to {27,28} as Ethereum tooling produces
	sig[crypto.RecoveryIDOffset] += 27

	recovered, err := e.RecoverSigner(req, sig)
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)
}

func TestTamperedRequestRecoversDifferentSigner(t *testing.T) {
	e := newEngine()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	req := testRequest(1)
	sig, err := e.SignRequest(key, req)
	require.NoError(t, err)

	tampered := *req
	tampered.Quantity = big.NewInt(1000000)

	recovered, err := e.RecoverSigner(&tampered, sig)
	if err == nil {
		assert.NotEqual(t, signer, recovered)
	}
}

func TestRecoverRejectsMalformedSignature(t *testing.T) {
	e := newEngine()

	_, err := e.RecoverSigner(testRequest(1), []byte{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestVerify(t *testing.T) {
	e := newEngine()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signerAddr := crypto.PubkeyToAddress(key.PublicKey)
	authorized := func(a common.Address) bool { return a == signerAddr }

	req := testRequest(1)
	sig, err := e.SignRequest(key, req)
	require.NoError(t, err)

	got, err := e.Verify(req, sig, now, authorized)
	require.NoError(t, err)
	assert.Equal(t, signerAddr, got)
}

func TestVerifyRejectsZeroQuantity(t *testing.T) {
	e := newEngine()
	req := testRequest(1)
	req.Quantity = big.NewInt(0)

	_, err := e.Verify(req, nil, now, func(common.Address) bool { return true })
	assert.ErrorIs(t, err, domain.ErrZeroQuantity)
}

func TestVerifyRejectsUnauthorizedSigner(t *testing.T) {
	e := newEngine()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	req := testRequest(1)
	sig, err := e.SignRequest(key, req)
	require.NoError(t, err)

	_, err = e.Verify(req, sig, now, func(common.Address) bool { return false })
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestVerifyValidityWindow(t *testing.T) {
	e := newEngine()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	authorized := func(common.Address) bool { return true }

	req := testRequest(1)
	sig, err := e.SignRequest(key, req)
	require.NoError(t, err)

	_, err = e.Verify(req, sig, req.ValidityStart.Add(-time.Second), authorized)
	assert.ErrorIs(t, err, domain.ErrRequestExpired)

	_, err = e.Verify(req, sig, req.ValidityEnd.Add(time.Second), authorized)
	assert.ErrorIs(t, err, domain.ErrRequestExpired)

	// Window bounds are inclusive
	_, err = e.Verify(req, sig, req.ValidityStart, authorized)
	assert.NoError(t, err)
	_, err = e.Verify(req, sig, req.ValidityEnd, authorized)
	assert.NoError(t, err)
}

func TestVerifyRejectsConsumedUID(t *testing.T) {
	e := newEngine()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	authorized := func(common.Address) bool { return true }

	req := testRequest(1)
	sig, err := e.SignRequest(key, req)
	require.NoError(t, err)

	e.Consume(req.UID)

	_, err = e.Verify(req, sig, now, authorized)
	assert.ErrorIs(t, err, domain.ErrRequestAlreadyUsed)
	assert.True(t, e.IsUsed(req.UID))
}

func TestDifferentDomainsProduceDifferentDigests(t *testing.T) {
	a := sigmint.NewEngine("Token A", "1", big.NewInt(1), contract)
	b := sigmint.NewEngine("Token B", "1", big.NewInt(1), contract)
	c := sigmint.NewEngine("Token A", "1", big.NewInt(5), contract)

	req := testRequest(1)
	assert.NotEqual(t, a.HashRequest(req), b.HashRequest(req))
	assert.NotEqual(t, a.HashRequest(req), c.HashRequest(req))
}

func TestSnapshotRestoresConsumedSet(t *testing.T) {
	e := newEngine()
	e.Consume(common.Hash{1})

	restore := e.Snapshot()
	e.Consume(common.Hash{2})

	restore()

	assert.True(t, e.IsUsed(common.Hash{1}))
	assert.False(t, e.IsUsed(common.Hash{2}))
}
