package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/sudigital-labs/token-engine/internal/api/shared/errors"
	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(message))
}

// respondInternalError responds with an internal server error
func respondInternalError(c *gin.Context, err error, message string, details ...string) {
	logger.Error(err)
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message, details...))
}

// respondDomainError maps engine errors to HTTP responses
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, apierrors.NewForbiddenError("Operation not permitted", err.Error()))

	case errors.Is(err, domain.ErrZeroAmount),
		errors.Is(err, domain.ErrZeroQuantity),
		errors.Is(err, domain.ErrInvalidClaimCondition),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrRequestExpired):
		c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(err.Error()))

	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientAllowance),
		errors.Is(err, domain.ErrNoActiveClaimCondition),
		errors.Is(err, domain.ErrClaimNotStarted),
		errors.Is(err, domain.ErrExceedsSupply),
		errors.Is(err, domain.ErrExceedsWalletLimit),
		errors.Is(err, domain.ErrNotAllowlisted),
		errors.Is(err, domain.ErrRequestAlreadyUsed):
		c.JSON(http.StatusConflict, apierrors.NewConflictError("Operation rejected", err.Error()))

	case errors.Is(err, domain.ErrInvalidPayment),
		errors.Is(err, domain.ErrPriceTooLow),
		errors.Is(err, domain.ErrUnknownCurrency):
		c.JSON(http.StatusPaymentRequired, apierrors.NewPaymentRequiredError("Payment rejected", err.Error()))

	default:
		respondInternalError(c, err, "Operation failed")
	}
}
