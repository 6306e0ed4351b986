package types

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Parameter validation errors
	ErrNilRPC           = errors.New("rpc client is nil")
	ErrNilSigner        = errors.New("signer is nil")
	ErrNilSubmitter     = errors.New("submitter is nil")
	ErrNilAggregator    = errors.New("swap aggregator is nil")
	ErrZeroAmount       = errors.New("amount must be greater than 0")
	ErrInvalidSlippage  = errors.New("slippage bps must be <= 10000")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrNoInstructions   = errors.New("requires at least one instruction")

	// Account errors
	ErrMintNotFound              = errors.New("mint account not found")
	ErrLookupTableNotFound       = errors.New("address lookup table not found")
	ErrSenderTokenAccountMissing = errors.New("sender has no token account for mint")

	// Precondition errors
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrInsufficientTokenBalance = errors.New("insufficient token balance")

	// Submission errors
	ErrEmptySignature  = errors.New("submission returned no signature")
	ErrTransactionFail = errors.New("transaction failed")
)

// RPCError wraps RPC failures with operation context.
type RPCError struct {
	Op  string
	Err error
}

func (e RPCError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e RPCError) Unwrap() error {
	return e.Err
}

// ValidationError represents input validation failures. Err, when set, is
// the sentinel the failure matches under errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// InsufficientTokenError reports a token balance below the requested transfer.
// Have and Want are decimal amounts in the mint's UI units.
type InsufficientTokenError struct {
	Mint string
	Have string
	Want string
}

func (e InsufficientTokenError) Error() string {
	return fmt.Sprintf("insufficient token balance for %s: have %s, want %s", e.Mint, e.Have, e.Want)
}

func (e InsufficientTokenError) Unwrap() error {
	return ErrInsufficientTokenBalance
}

// IsPrecondition reports whether err means the operation must stop without
// sending anything, as opposed to an infrastructure failure.
func IsPrecondition(err error) bool {
	if err == nil {
		return false
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientTokenBalance) ||
		errors.Is(err, ErrSenderTokenAccountMissing) ||
		errors.Is(err, ErrMintNotFound)
}
