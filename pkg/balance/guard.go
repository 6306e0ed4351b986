// Package balance decides whether a payer can afford an operation before any
// transaction is built.
package balance

import (
	"context"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/ninja0404/tipsend-go/pkg/constants"
	"github.com/ninja0404/tipsend-go/pkg/tip"
)

// Reader returns the lamport balance of an account.
type Reader interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// Report is the outcome of a balance check.
type Report struct {
	Available  uint64
	BaseCost   uint64
	TipCost    uint64
	Required   uint64
	Remaining  uint64 // Available - Required when sufficient
	Shortfall  uint64 // Required - Available when insufficient
	Sufficient bool
}

// Guard compares balances against operation costs. The tip, when enabled, is
// always added here and never folded into the caller's base cost.
type Guard struct {
	Tip tip.Tip
	Log zerolog.Logger
}

// New returns a Guard for t.
func New(t tip.Tip, log zerolog.Logger) Guard {
	return Guard{Tip: t, Log: log}
}

// Evaluate computes required = baseCost + tip and reports whether balance covers it.
func (g Guard) Evaluate(balance, baseCost uint64) Report {
	tipCost := g.Tip.Cost()
	required := baseCost + tipCost
	if required < baseCost {
		required = math.MaxUint64
	}
	r := Report{
		Available:  balance,
		BaseCost:   baseCost,
		TipCost:    tipCost,
		Required:   required,
		Sufficient: balance >= required,
	}
	if r.Sufficient {
		r.Remaining = balance - required
	} else {
		r.Shortfall = required - balance
	}
	g.log(r)
	return r
}

// Check fetches payer's balance and evaluates it against baseCost.
func (g Guard) Check(ctx context.Context, reader Reader, payer solana.PublicKey, baseCost uint64) (Report, error) {
	bal, err := reader.GetBalance(ctx, payer)
	if err != nil {
		return Report{}, fmt.Errorf("get balance of %s: %w", payer, err)
	}
	return g.Evaluate(bal, baseCost), nil
}

func (g Guard) log(r Report) {
	ev := g.Log.Info()
	if !r.Sufficient {
		ev = g.Log.Warn()
	}
	ev = ev.
		Str("available", FormatSOL(r.Available)).
		Str("required", FormatSOL(r.Required)).
		Uint64("base_lamports", r.BaseCost).
		Uint64("tip_lamports", r.TipCost)
	if r.Sufficient {
		ev.Str("remaining", FormatSOL(r.Remaining)).Msg("balance sufficient")
		return
	}
	ev.Str("shortfall", FormatSOL(r.Shortfall)).Msg("balance insufficient")
}

// FormatSOL renders lamports as a SOL amount with nine decimals.
func FormatSOL(lamports uint64) string {
	return fmt.Sprintf("%d.%09d SOL", lamports/constants.LamportsPerSOL, lamports%constants.LamportsPerSOL)
}
