package domain

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks permission for an operation
	ErrUnauthorized = errors.New("unauthorized")

	// ErrZeroAmount is returned when a mint or burn is requested with a zero amount
	ErrZeroAmount = errors.New("zero amount")

	// ErrZeroQuantity is returned when a signed mint request carries a zero quantity
	ErrZeroQuantity = errors.New("zero quantity")

	// ErrInsufficientBalance is returned when a burn or transfer exceeds the holder's balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance is returned when a spender exceeds its approved allowance
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrNoActiveClaimCondition is returned when a claim arrives before any condition is set
	ErrNoActiveClaimCondition = errors.New("no active claim condition")

	// ErrClaimNotStarted is returned when a claim arrives before the condition's start time
	ErrClaimNotStarted = errors.New("claim not started")

	// ErrExceedsSupply is returned when a claim would push claimed supply past the configured cap
	ErrExceedsSupply = errors.New("exceeds max claimable supply")

	// ErrExceedsWalletLimit is returned when a wallet's cumulative claims would exceed its limit
	ErrExceedsWalletLimit = errors.New("exceeds per-wallet claim limit")

	// ErrNotAllowlisted is returned when an allowlist is configured and no valid proof is supplied
	ErrNotAllowlisted = errors.New("not allowlisted")

	// ErrPriceTooLow is returned when a non-zero claim rounds down to a zero total price
	ErrPriceTooLow = errors.New("computed price too low")

	// ErrInvalidPayment is returned when the supplied payment does not match the required price
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrInvalidSignature is returned when a mint request signature cannot be recovered
	// or the recovered signer is not authorized to sign mint requests
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrRequestExpired is returned when a mint request is used outside its validity window
	ErrRequestExpired = errors.New("request expired")

	// ErrRequestAlreadyUsed is returned when a mint request uid has already been consumed
	ErrRequestAlreadyUsed = errors.New("request already used")

	// ErrInvalidClaimCondition is returned when a new claim condition is internally
	// inconsistent, e.g. its max claimable supply is below what has already been claimed
	ErrInvalidClaimCondition = errors.New("invalid claim condition")

	// ErrUnknownCurrency is returned when a payment references a currency that is not registered
	ErrUnknownCurrency = errors.New("unknown currency")
)
