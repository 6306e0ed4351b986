package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ninja0404/tipsend-go/pkg/config"
	"github.com/ninja0404/tipsend-go/pkg/constants"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Config{
		TipEnabled:       true,
		TipLamports:      2_000_000,
		TipAccount:       constants.DefaultTipAccount,
		ComputeUnitLimit: 300_000,
		ComputeUnitPrice: 5,
	}

	budget := BudgetFromConfig(cfg)
	assert.Equal(t, uint32(300_000), budget.UnitLimit)
	assert.Equal(t, uint64(5), budget.UnitPrice)

	tp := TipFromConfig(cfg)
	assert.True(t, tp.Active())
	assert.Equal(t, uint64(2_000_000), tp.Cost())

	cfg.TipEnabled = false
	assert.False(t, TipFromConfig(cfg).Active())
	assert.Zero(t, TipFromConfig(cfg).Cost())
}
