package scenario

import (
	"github.com/ninja0404/tipsend-go/pkg/computebudget"
	"github.com/ninja0404/tipsend-go/pkg/config"
	"github.com/ninja0404/tipsend-go/pkg/tip"
)

// BudgetFromConfig returns the compute budget configured in cfg.
func BudgetFromConfig(cfg config.Config) computebudget.Config {
	return computebudget.Config{
		UnitLimit: cfg.ComputeUnitLimit,
		UnitPrice: cfg.ComputeUnitPrice,
	}
}

// TipFromConfig returns the tip configured in cfg. A disabled tip is the zero Tip.
func TipFromConfig(cfg config.Config) tip.Tip {
	if !cfg.TipEnabled {
		return tip.Disabled()
	}
	return tip.Tip{
		Enabled:  true,
		Lamports: cfg.TipLamports,
		Account:  cfg.TipAccount,
	}
}
