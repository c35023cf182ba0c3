package rest_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudigital-labs/token-engine/internal/adapter"
	"github.com/sudigital-labs/token-engine/internal/api/middleware"
	"github.com/sudigital-labs/token-engine/internal/api/rest"
	"github.com/sudigital-labs/token-engine/internal/api/shared/dto"
	"github.com/sudigital-labs/token-engine/internal/engine"
	"github.com/sudigital-labs/token-engine/internal/logger"
	"github.com/sudigital-labs/token-engine/internal/payment"
)

const testAPIKey = "test-api-key"

var (
	contractAddr = common.HexToAddress("0x9999999999999999999999999999999999999999")
	ownerAddr    = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	aliceAddr    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bobAddr      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	saleAddr     = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setupRouter(t *testing.T) (*gin.Engine, *engine.Engine) {
	t.Helper()

	eng := engine.New(engine.Config{
		Name:                 "Sudigital Labs Token",
		Symbol:               "SDL",
		ChainID:              big.NewInt(1),
		Address:              contractAddr,
		Owner:                ownerAddr,
		PrimarySaleRecipient: saleAddr,
		Scale:                big.NewInt(1),
	}, payment.NewSettlement(contractAddr), adapter.NewClock())

	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler(eng), middleware.AuthConfig{
		APIKeys: []string{testAPIKey},
	})
	return router, eng
}

// do sends a request. A non-empty caller authenticates with the test API key
// and carries the caller address in the header writes resolve it from.
func do(t *testing.T, router *gin.Engine, method, path string, body interface{}, caller string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("Authorization", "APIKey "+testAPIKey)
		req.Header.Set(rest.CallerHeader, caller)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.HealthResponse
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp.Status)
}

func TestGetTokenInfo(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/token", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.TokenInfoResponse
	decode(t, w, &resp)
	assert.Equal(t, "Sudigital Labs Token", resp.Name)
	assert.Equal(t, "SDL", resp.Symbol)
	assert.Equal(t, ownerAddr.Hex(), resp.Owner)
	assert.Equal(t, "0", resp.TotalSupply)
	assert.Equal(t, uint64(0), resp.Sequence)
}

func TestMintRequiresAuth(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/token/mint",
		dto.MintRequest{To: aliceAddr.Hex(), Quantity: "1000"}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMintAndReadBalance(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/token/mint",
		dto.MintRequest{To: aliceAddr.Hex(), Quantity: "1000"}, ownerAddr.Hex())
	require.Equal(t, http.StatusOK, w.Code)
	var op dto.OperationResponse
	decode(t, w, &op)
	assert.Equal(t, uint64(1), op.Sequence)

	w = do(t, router, http.MethodGet, "/api/v1/accounts/"+aliceAddr.Hex()+"/balance", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var balance dto.BalanceResponse
	decode(t, w, &balance)
	assert.Equal(t, "1000", balance.Balance)
}

func TestMintByStrangerIsForbidden(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/token/mint",
		dto.MintRequest{To: aliceAddr.Hex(), Quantity: "1000"}, aliceAddr.Hex())

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMintRejectsMalformedAddress(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/token/mint",
		dto.MintRequest{To: "not-an-address", Quantity: "1000"}, ownerAddr.Hex())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransferInsufficientBalanceConflicts(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/token/transfer",
		dto.TransferRequest{To: bobAddr.Hex(), Quantity: "10"}, aliceAddr.Hex())

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVotesCurrentAndHistorical(t *testing.T) {
	router, eng := setupRouter(t)
	require.NoError(t, eng.MintTo(ownerAddr, aliceAddr, big.NewInt(1000))) // seq 1
	require.NoError(t, eng.Transfer(aliceAddr, bobAddr, big.NewInt(400))) // seq 2

	w := do(t, router, http.MethodGet, "/api/v1/accounts/"+aliceAddr.Hex()+"/votes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.VotesResponse
	decode(t, w, &resp)
	assert.Equal(t, "600", resp.Votes)
	assert.Nil(t, resp.Sequence)

	w = do(t, router, http.MethodGet, "/api/v1/accounts/"+aliceAddr.Hex()+"/votes?sequence=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, "1000", resp.Votes)
	require.NotNil(t, resp.Sequence)
	assert.Equal(t, uint64(1), *resp.Sequence)

	// Uncommitted sequences cannot be queried
	w = do(t, router, http.MethodGet,
		fmt.Sprintf("/api/v1/accounts/%s/votes?sequence=%d", aliceAddr.Hex(), eng.Sequence()), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimConditionLifecycle(t *testing.T) {
	router, eng := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/token/claim-condition", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPut, "/api/v1/token/claim-condition",
		dto.ClaimConditionRequest{
			StartTime:        time.Now().Add(-time.Hour),
			ResetEligibility: true,
		}, ownerAddr.Hex())
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/token/claim-condition", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var cond dto.ClaimConditionResponse
	decode(t, w, &cond)
	assert.Equal(t, "0", cond.PricePerToken)
	assert.Equal(t, "0", cond.SupplyClaimed)

	// Free claim, then the claimed counter is visible
	w = do(t, router, http.MethodPost, "/api/v1/token/claim",
		dto.ClaimRequest{Quantity: "25"}, aliceAddr.Hex())
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/accounts/"+aliceAddr.Hex()+"/claimed", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var claimed dto.ClaimedResponse
	decode(t, w, &claimed)
	assert.Equal(t, "25", claimed.Claimed)
	assert.Equal(t, big.NewInt(25), eng.BalanceOf(aliceAddr))
}

func TestClaimWithoutConditionConflicts(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/token/claim",
		dto.ClaimRequest{Quantity: "1"}, aliceAddr.Hex())

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMulticallRollsBackOnFailure(t *testing.T) {
	router, eng := setupRouter(t)
	require.NoError(t, eng.MintTo(ownerAddr, aliceAddr, big.NewInt(100)))

	w := do(t, router, http.MethodPost, "/api/v1/token/multicall",
		dto.MulticallRequest{Calls: []dto.MulticallCall{
			{Type: "transfer", To: bobAddr.Hex(), Quantity: "60"},
			{Type: "transfer", To: bobAddr.Hex(), Quantity: "60"},
		}}, aliceAddr.Hex())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, big.NewInt(100), eng.BalanceOf(aliceAddr))
	assert.Equal(t, big.NewInt(0), eng.BalanceOf(bobAddr))
}

func TestMulticallCommits(t *testing.T) {
	router, eng := setupRouter(t)
	require.NoError(t, eng.MintTo(ownerAddr, aliceAddr, big.NewInt(100)))

	w := do(t, router, http.MethodPost, "/api/v1/token/multicall",
		dto.MulticallRequest{Calls: []dto.MulticallCall{
			{Type: "transfer", To: bobAddr.Hex(), Quantity: "30"},
			{Type: "approve", Spender: bobAddr.Hex(), Quantity: "10"},
			{Type: "delegate", Delegatee: bobAddr.Hex()},
		}}, aliceAddr.Hex())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, big.NewInt(30), eng.BalanceOf(bobAddr))
	assert.Equal(t, big.NewInt(10), eng.Allowance(aliceAddr, bobAddr))
	assert.Equal(t, bobAddr, eng.DelegateOf(aliceAddr))
}

func TestMulticallRejectsUnknownCallType(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/token/multicall",
		dto.MulticallRequest{Calls: []dto.MulticallCall{
			{Type: "teleport", To: bobAddr.Hex(), Quantity: "1"},
		}}, aliceAddr.Hex())

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRoleGrantAndList(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/roles/grant",
		dto.RoleRequest{Role: "MINTER_ROLE", Account: bobAddr.Hex()}, ownerAddr.Hex())
	require.Equal(t, http.StatusOK, w.Code)

	// bob can mint now
	w = do(t, router, http.MethodPost, "/api/v1/token/mint",
		dto.MintRequest{To: bobAddr.Hex(), Quantity: "5"}, bobAddr.Hex())
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/roles/MINTER_ROLE/members", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var members dto.RoleMembersResponse
	decode(t, w, &members)
	assert.Contains(t, members.Members, bobAddr.Hex())

	w = do(t, router, http.MethodPost, "/api/v1/roles/revoke",
		dto.RoleRequest{Role: "MINTER_ROLE", Account: bobAddr.Hex()}, ownerAddr.Hex())
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/token/mint",
		dto.MintRequest{To: bobAddr.Hex(), Quantity: "5"}, bobAddr.Hex())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSetOwnerTransfersAdministration(t *testing.T) {
	router, eng := setupRouter(t)

	w := do(t, router, http.MethodPut, "/api/v1/token/owner",
		dto.SetAddressRequest{Address: aliceAddr.Hex()}, ownerAddr.Hex())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, aliceAddr, eng.Owner())

	// Old owner lost write access
	w = do(t, router, http.MethodPut, "/api/v1/token/contract-uri",
		dto.SetContractURIRequest{URI: "ipfs://meta"}, ownerAddr.Hex())
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodPut, "/api/v1/token/contract-uri",
		dto.SetContractURIRequest{URI: "ipfs://meta"}, aliceAddr.Hex())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ipfs://meta", eng.ContractURI())
}

func TestWriteWithoutCallerHeader(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/token/mint",
		bytes.NewBufferString(`{"to":"`+aliceAddr.Hex()+`","quantity":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "APIKey "+testAPIKey)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
