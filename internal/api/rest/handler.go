package rest

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/sudigital-labs/token-engine/internal/api/middleware"
	"github.com/sudigital-labs/token-engine/internal/api/shared/dto"
	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/engine"
)

// CallerHeader carries the caller address for API-key-authenticated writes.
// JWT-authenticated callers are identified by the token subject instead.
const CallerHeader = "X-Caller-Address"

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// GetTokenInfo returns the contract metadata and supply
	// GET /api/v1/token
	GetTokenInfo(c *gin.Context)

	// GetBalance returns an account's balance
	// GET /api/v1/accounts/:address/balance
	GetBalance(c *gin.Context)

	// GetAllowance returns a spender's remaining allowance
	// GET /api/v1/accounts/:address/allowance?spender=<address>
	GetAllowance(c *gin.Context)

	// GetVotes returns a delegate's voting weight, historical when ?sequence= is given
	// GET /api/v1/accounts/:address/votes?sequence=<seq>
	GetVotes(c *gin.Context)

	// GetDelegate returns the address a holder's voting weight is attributed to
	// GET /api/v1/accounts/:address/delegate
	GetDelegate(c *gin.Context)

	// GetCheckpoints returns a delegate's full vote checkpoint history
	// GET /api/v1/accounts/:address/checkpoints
	GetCheckpoints(c *gin.Context)

	// GetClaimed returns a wallet's cumulative claimed quantity
	// GET /api/v1/accounts/:address/claimed
	GetClaimed(c *gin.Context)

	// GetClaimCondition returns the active claim condition
	// GET /api/v1/token/claim-condition
	GetClaimCondition(c *gin.Context)

	// GetRoleMembers lists the members of a role
	// GET /api/v1/roles/:role/members
	GetRoleMembers(c *gin.Context)

	// Mint mints tokens to a recipient (requires authentication)
	// POST /api/v1/token/mint
	Mint(c *gin.Context)

	// Burn burns tokens from the caller or, with an allowance, another account
	// POST /api/v1/token/burn
	Burn(c *gin.Context)

	// Transfer moves tokens (requires authentication)
	// POST /api/v1/token/transfer
	Transfer(c *gin.Context)

	// Approve sets a spender's allowance (requires authentication)
	// POST /api/v1/token/approve
	Approve(c *gin.Context)

	// Delegate attributes the caller's voting weight (requires authentication)
	// POST /api/v1/token/delegate
	Delegate(c *gin.Context)

	// Claim claims tokens against the active condition (requires authentication)
	// POST /api/v1/token/claim
	Claim(c *gin.Context)

	// MintWithSignature redeems an off-line-signed mint request (requires authentication)
	// POST /api/v1/token/mint-with-signature
	MintWithSignature(c *gin.Context)

	// Multicall executes a batch of operations atomically (requires authentication)
	// POST /api/v1/token/multicall
	Multicall(c *gin.Context)

	// SetClaimCondition replaces the active claim condition (requires authentication)
	// PUT /api/v1/token/claim-condition
	SetClaimCondition(c *gin.Context)

	// SetOwner replaces the owner address (requires authentication)
	// PUT /api/v1/token/owner
	SetOwner(c *gin.Context)

	// SetPrimarySaleRecipient replaces the proceeds recipient (requires authentication)
	// PUT /api/v1/token/primary-sale-recipient
	SetPrimarySaleRecipient(c *gin.Context)

	// SetContractURI replaces the contract metadata URI (requires authentication)
	// PUT /api/v1/token/contract-uri
	SetContractURI(c *gin.Context)

	// GrantRole adds an account to a role (requires authentication)
	// POST /api/v1/roles/grant
	GrantRole(c *gin.Context)

	// RevokeRole removes an account from a role (requires authentication)
	// POST /api/v1/roles/revoke
	RevokeRole(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	engine *engine.Engine
}

// NewHandler creates a new REST API handler backed by the token engine
func NewHandler(eng *engine.Engine) Handler {
	return &handler{engine: eng}
}

// callerAddress resolves the caller's account address: the JWT subject when
// present, otherwise the X-Caller-Address header (API key auth)
func callerAddress(c *gin.Context) (common.Address, error) {
	subject := c.GetString(string(middleware.AUTH_SUBJECT_KEY))
	if subject == "" {
		subject = c.GetHeader(CallerHeader)
	}
	if subject == "" {
		return common.Address{}, fmt.Errorf("caller address missing: no JWT subject and no %s header", CallerHeader)
	}
	return parseAddress(subject)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// GetTokenInfo returns the contract metadata and supply
func (h *handler) GetTokenInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.TokenInfoResponse{
		Name:                 h.engine.Name(),
		Symbol:               h.engine.Symbol(),
		ContractURI:          h.engine.ContractURI(),
		Owner:                h.engine.Owner().Hex(),
		PrimarySaleRecipient: h.engine.PrimarySaleRecipient().Hex(),
		TotalSupply:          bigString(h.engine.TotalSupply()),
		Sequence:             h.engine.Sequence(),
	})
}

// GetBalance returns an account's balance
func (h *handler) GetBalance(c *gin.Context) {
	address, err := parseAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid address", err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{
		Address: address.Hex(),
		Balance: bigString(h.engine.BalanceOf(address)),
	})
}

// GetAllowance returns a spender's remaining allowance
func (h *handler) GetAllowance(c *gin.Context) {
	owner, err := parseAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid address", err.Error())
		return
	}
	spender, err := parseAddress(c.Query("spender"))
	if err != nil {
		respondBadRequest(c, "Invalid spender", err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.AllowanceResponse{
		Owner:     owner.Hex(),
		Spender:   spender.Hex(),
		Allowance: bigString(h.engine.Allowance(owner, spender)),
	})
}

// GetVotes returns a delegate's voting weight
func (h *handler) GetVotes(c *gin.Context) {
	delegate, err := parseAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid address", err.Error())
		return
	}

	resp := dto.VotesResponse{Delegate: delegate.Hex()}
	if seqParam := c.Query("sequence"); seqParam != "" {
		var seq uint64
		if _, err := fmt.Sscanf(seqParam, "%d", &seq); err != nil {
			respondBadRequest(c, "Invalid sequence", err.Error())
			return
		}
		if seq >= h.engine.Sequence() {
			respondBadRequest(c, "Sequence not yet committed")
			return
		}
		resp.Votes = bigString(h.engine.VotesAt(delegate, seq))
		resp.Sequence = &seq
	} else {
		resp.Votes = bigString(h.engine.VotesOf(delegate))
	}
	c.JSON(http.StatusOK, resp)
}

// GetDelegate returns the address a holder's voting weight is attributed to
func (h *handler) GetDelegate(c *gin.Context) {
	holder, err := parseAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid address", err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.DelegateResponse{
		Holder:   holder.Hex(),
		Delegate: h.engine.DelegateOf(holder).Hex(),
	})
}

// GetCheckpoints returns a delegate's full vote checkpoint history
func (h *handler) GetCheckpoints(c *gin.Context) {
	delegate, err := parseAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid address", err.Error())
		return
	}

	checkpoints := h.engine.Checkpoints(delegate)
	resp := make([]dto.CheckpointResponse, 0, len(checkpoints))
	for _, cp := range checkpoints {
		resp = append(resp, dto.CheckpointResponse{
			Sequence: cp.Sequence,
			Votes:    bigString(cp.Votes),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetClaimed returns a wallet's cumulative claimed quantity
func (h *handler) GetClaimed(c *gin.Context) {
	wallet, err := parseAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid address", err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.ClaimedResponse{
		Address: wallet.Hex(),
		Claimed: bigString(h.engine.ClaimedBy(wallet)),
	})
}

// GetClaimCondition returns the active claim condition
func (h *handler) GetClaimCondition(c *gin.Context) {
	cond := h.engine.ClaimCondition()
	if cond == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active claim condition"})
		return
	}
	c.JSON(http.StatusOK, dto.ClaimConditionResponse{
		StartTime:              cond.StartTime,
		PricePerToken:          bigString(cond.PricePerToken),
		Currency:               cond.Currency.Hex(),
		MaxClaimableSupply:     nilableBigString(cond.MaxClaimableSupply),
		SupplyClaimed:          bigString(cond.SupplyClaimed),
		QuantityLimitPerWallet: nilableBigString(cond.QuantityLimitPerWallet),
		MerkleRoot:             cond.MerkleRoot.Hex(),
	})
}

// GetRoleMembers lists the members of a role
func (h *handler) GetRoleMembers(c *gin.Context) {
	role, err := parseRole(c.Param("role"))
	if err != nil {
		respondBadRequest(c, "Invalid role", err.Error())
		return
	}

	members := h.engine.RoleMembers(role)
	hexMembers := make([]string, 0, len(members))
	for _, m := range members {
		hexMembers = append(hexMembers, m.Hex())
	}
	c.JSON(http.StatusOK, dto.RoleMembersResponse{
		Role:    role.Hex(),
		Members: hexMembers,
	})
}

// Mint mints tokens to a recipient
func (h *handler) Mint(c *gin.Context) {
	var req dto.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		respondBadRequest(c, "Invalid recipient", err.Error())
		return
	}
	quantity, err := parseAmount(req.Quantity)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.engine.MintTo(caller, to, quantity); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// Burn burns tokens from the caller or, with an allowance, another account
func (h *handler) Burn(c *gin.Context) {
	var req dto.BurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	quantity, err := parseAmount(req.Quantity)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if req.From != "" {
		from, err := parseAddress(req.From)
		if err != nil {
			respondBadRequest(c, "Invalid account", err.Error())
			return
		}
		err = h.engine.BurnFrom(caller, from, quantity)
	} else {
		err = h.engine.Burn(caller, quantity)
	}
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// Transfer moves tokens
func (h *handler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		respondBadRequest(c, "Invalid recipient", err.Error())
		return
	}
	quantity, err := parseAmount(req.Quantity)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if req.From != "" {
		from, err := parseAddress(req.From)
		if err != nil {
			respondBadRequest(c, "Invalid account", err.Error())
			return
		}
		err = h.engine.TransferFrom(caller, from, to, quantity)
		if err != nil {
			respondDomainError(c, err)
			return
		}
	} else if err := h.engine.Transfer(caller, to, quantity); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// Approve sets a spender's allowance
func (h *handler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	spender, err := parseAddress(req.Spender)
	if err != nil {
		respondBadRequest(c, "Invalid spender", err.Error())
		return
	}
	quantity, err := parseAmount(req.Quantity)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.engine.Approve(caller, spender, quantity); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// Delegate attributes the caller's voting weight
func (h *handler) Delegate(c *gin.Context) {
	var req dto.DelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	delegatee, err := parseAddress(req.Delegatee)
	if err != nil {
		respondBadRequest(c, "Invalid delegatee", err.Error())
		return
	}

	if err := h.engine.Delegate(caller, delegatee); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// Claim claims tokens against the active condition
func (h *handler) Claim(c *gin.Context) {
	var req dto.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}

	receiver := caller
	if req.Receiver != "" {
		if receiver, err = parseAddress(req.Receiver); err != nil {
			respondBadRequest(c, "Invalid receiver", err.Error())
			return
		}
	}
	quantity, err := parseAmount(req.Quantity)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	currency, err := parseOptionalAddress(req.Currency)
	if err != nil {
		respondBadRequest(c, "Invalid currency", err.Error())
		return
	}
	pricePerToken, err := parseOptionalAmount(req.PricePerToken)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	value, err := parseOptionalAmount(req.Value)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	proof, err := toDomainProof(req.Proof)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.engine.Claim(caller, receiver, quantity, currency, pricePerToken, proof, value); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// MintWithSignature redeems an off-line-signed mint request
func (h *handler) MintWithSignature(c *gin.Context) {
	var req dto.SignatureMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	mintReq, err := toDomainMintRequest(&req.Request)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	signature, err := parseSignature(req.Signature)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	value, err := parseOptionalAmount(req.Value)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	signer, err := h.engine.MintWithSignature(caller, mintReq, signature, value)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SignatureMintResponse{
		Sequence: h.engine.Sequence(),
		Signer:   signer.Hex(),
	})
}

// Multicall executes a batch of operations atomically
func (h *handler) Multicall(c *gin.Context) {
	var req dto.MulticallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if len(req.Calls) == 0 {
		respondValidationError(c, "calls must not be empty")
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}

	calls := make([]engine.Call, 0, len(req.Calls))
	for i, entry := range req.Calls {
		call, err := toEngineCall(entry)
		if err != nil {
			respondValidationError(c, fmt.Sprintf("call %d: %s", i, err.Error()))
			return
		}
		calls = append(calls, call)
	}

	if err := h.engine.Multicall(caller, calls); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// SetClaimCondition replaces the active claim condition
func (h *handler) SetClaimCondition(c *gin.Context) {
	var req dto.ClaimConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	cond, err := toDomainCondition(&req)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.engine.SetClaimCondition(caller, *cond, req.ResetEligibility); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// SetOwner replaces the owner address
func (h *handler) SetOwner(c *gin.Context) {
	h.setAddress(c, h.engine.SetOwner)
}

// SetPrimarySaleRecipient replaces the proceeds recipient
func (h *handler) SetPrimarySaleRecipient(c *gin.Context) {
	h.setAddress(c, h.engine.SetPrimarySaleRecipient)
}

func (h *handler) setAddress(c *gin.Context, op func(caller, address common.Address) error) {
	var req dto.SetAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	address, err := parseAddress(req.Address)
	if err != nil {
		respondBadRequest(c, "Invalid address", err.Error())
		return
	}

	if err := op(caller, address); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// SetContractURI replaces the contract metadata URI
func (h *handler) SetContractURI(c *gin.Context) {
	var req dto.SetContractURIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}

	if err := h.engine.SetContractURI(caller, req.URI); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}

// GrantRole adds an account to a role
func (h *handler) GrantRole(c *gin.Context) {
	h.changeRole(c, h.engine.GrantRole)
}

// RevokeRole removes an account from a role
func (h *handler) RevokeRole(c *gin.Context) {
	h.changeRole(c, h.engine.RevokeRole)
}

func (h *handler) changeRole(c *gin.Context, op func(caller common.Address, role domain.Role, account common.Address) error) {
	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	caller, err := callerAddress(c)
	if err != nil {
		respondBadRequest(c, "Invalid caller", err.Error())
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		respondBadRequest(c, "Invalid role", err.Error())
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		respondBadRequest(c, "Invalid account", err.Error())
		return
	}

	if err := op(caller, role, account); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OperationResponse{Sequence: h.engine.Sequence()})
}
