package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"

	"github.com/ninja0404/tipsend-go/pkg/computebudget"
	"github.com/ninja0404/tipsend-go/pkg/constants"
	"github.com/ninja0404/tipsend-go/pkg/jupiter"
	"github.com/ninja0404/tipsend-go/pkg/types"
)

// ErrAggregator marks failures reported by the swap aggregator.
var ErrAggregator = errors.New("swap aggregator failed")

// SwapRequest describes an aggregator swap. Amount is in raw units of InputMint.
type SwapRequest struct {
	User        solana.PublicKey
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	Amount      uint64
	SlippageBps uint64
}

// Swap quotes req and plans [limit, price, setup..., swap, cleanup, other..., (tip)].
//
// Compute budget instructions from the aggregator are dropped in favour of
// the composer's own. Aggregator errors wrap both ErrAggregator and the
// aggregator's own error, so jupiter.ErrRateLimited stays detectable.
func (c *Composer) Swap(ctx context.Context, req SwapRequest) (Plan, *jupiter.Quote, error) {
	if c.Aggregator == nil {
		return Plan{}, nil, types.ErrNilAggregator
	}
	if err := types.ValidatePublicKeys(
		types.NamedKey{Name: "user", Key: req.User},
		types.NamedKey{Name: "inputMint", Key: req.InputMint},
		types.NamedKey{Name: "outputMint", Key: req.OutputMint},
	); err != nil {
		return Plan{}, nil, err
	}
	if req.InputMint.Equals(req.OutputMint) {
		return Plan{}, nil, types.NewValidationError("outputMint", "must differ from inputMint")
	}
	if err := types.ValidateAmount("amount", req.Amount); err != nil {
		return Plan{}, nil, err
	}
	if err := types.ValidateSlippage(req.SlippageBps); err != nil {
		return Plan{}, nil, err
	}

	quote, err := c.Aggregator.Quote(ctx, jupiter.QuoteRequest{
		InputMint:   req.InputMint,
		OutputMint:  req.OutputMint,
		Amount:      req.Amount,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		return Plan{}, nil, fmt.Errorf("%w: quote: %w", ErrAggregator, err)
	}
	c.Log.Info().
		Str("in_amount", quote.InAmount).
		Str("out_amount", quote.OutAmount).
		Str("price_impact_pct", quote.PriceImpactPct).
		Msg("swap quoted")

	swap, err := c.Aggregator.SwapInstructions(ctx, quote, req.User)
	if err != nil {
		return Plan{}, quote, fmt.Errorf("%w: swap instructions: %w", ErrAggregator, err)
	}
	core, err := swap.Ordered()
	if err != nil {
		return Plan{}, quote, fmt.Errorf("%w: decode swap instructions: %w", ErrAggregator, err)
	}
	// Budget directives can also hide in setup or other instructions.
	stripped := computebudget.Strip(core)
	if dropped := len(swap.ComputeBudgetInstructions) + len(core) - len(stripped); dropped > 0 {
		c.Log.Debug().Int("dropped", dropped).Msg("ignored aggregator compute budget instructions")
	}
	core = stripped

	tableKeys, err := swap.LookupTables()
	if err != nil {
		return Plan{}, quote, err
	}
	tables, err := c.resolveLookupTables(ctx, tableKeys)
	if err != nil {
		return Plan{}, quote, err
	}

	plan := c.finish(KindSwap, req.User, core)
	plan.LookupTables = tables
	plan.BaseCost = c.Budget.EstimateFee(1)
	if req.InputMint.Equals(constants.WSOLMint) {
		plan.BaseCost = saturatingAdd(plan.BaseCost, req.Amount)
	}
	return plan, quote, nil
}

// resolveLookupTables reads every table in one call and decodes its addresses.
func (c *Composer) resolveLookupTables(ctx context.Context, keys []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if c.Accounts == nil {
		return nil, types.ErrNilRPC
	}
	accs, err := fetchAccounts(ctx, c.Accounts, keys...)
	if err != nil {
		return nil, fmt.Errorf("fetch lookup tables: %w", err)
	}
	out := make(map[solana.PublicKey]solana.PublicKeySlice, len(keys))
	for i, key := range keys {
		data := accountData(accs[i])
		if len(data) == 0 || !accs[i].Owner.Equals(constants.AddressLookupTableID) {
			return nil, fmt.Errorf("%w: %s", types.ErrLookupTableNotFound, key)
		}
		state, err := addresslookuptable.DecodeAddressLookupTableState(data)
		if err != nil {
			return nil, fmt.Errorf("decode lookup table %s: %w", key, err)
		}
		out[key] = state.Addresses
	}
	return out, nil
}
