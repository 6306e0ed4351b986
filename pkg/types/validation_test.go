package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationSentinels(t *testing.T) {
	err := ValidateAmount("lamports", 0)
	assert.ErrorIs(t, err, ErrZeroAmount)
	assert.True(t, IsPrecondition(err))
	assert.NoError(t, ValidateAmount("lamports", 1))

	err = ValidateSlippage(10_001)
	assert.ErrorIs(t, err, ErrInvalidSlippage)
	assert.NoError(t, ValidateSlippage(10_000))

	err = fmt.Errorf("swap: %w", ValidatePublicKey("mint", solana.PublicKey{}))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "mint", ve.Field)
}

func TestValidatePublicKeysReportsFirstInOrder(t *testing.T) {
	valid := solana.NewWallet().PublicKey()
	for i := 0; i < 50; i++ {
		err := ValidatePublicKeys(
			NamedKey{Name: "owner", Key: valid},
			NamedKey{Name: "recipient", Key: solana.PublicKey{}},
			NamedKey{Name: "mint", Key: solana.PublicKey{}},
		)
		var ve ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "recipient", ve.Field)
	}
	assert.NoError(t, ValidatePublicKeys(NamedKey{Name: "owner", Key: valid}))
	assert.NoError(t, ValidatePublicKeys())
}

func TestPlainValidationErrorHasNoSentinel(t *testing.T) {
	err := NewValidationError("amount", "is empty")
	assert.Nil(t, errors.Unwrap(err))
	assert.True(t, IsPrecondition(err))
	assert.False(t, errors.Is(err, ErrZeroAmount))
}
