package types

import (
	"github.com/gagliardetto/solana-go"
)

// ValidateAmount rejects zero amounts.
func ValidateAmount(field string, amount uint64) error {
	if amount == 0 {
		return ValidationError{Field: field, Message: "must be greater than 0", Err: ErrZeroAmount}
	}
	return nil
}

// ValidateSlippage validates slippage basis points.
func ValidateSlippage(slippageBps uint64) error {
	if slippageBps > 10000 {
		return ValidationError{Field: "slippageBps", Message: "must be <= 10000 (100%)", Err: ErrInvalidSlippage}
	}
	return nil
}

// ValidatePublicKey validates a public key is not zero.
func ValidatePublicKey(name string, key solana.PublicKey) error {
	if key.IsZero() {
		return ValidationError{Field: name, Message: "cannot be zero", Err: ErrInvalidPublicKey}
	}
	return nil
}

// NamedKey pairs a public key with the field name reported when it is invalid.
type NamedKey struct {
	Name string
	Key  solana.PublicKey
}

// ValidatePublicKeys validates keys in order and reports the first invalid one.
func ValidatePublicKeys(keys ...NamedKey) error {
	for _, k := range keys {
		if err := ValidatePublicKey(k.Name, k.Key); err != nil {
			return err
		}
	}
	return nil
}
