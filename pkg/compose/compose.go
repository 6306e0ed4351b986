// Package compose turns a scenario request into an ordered instruction plan.
//
// Every plan opens with the two compute budget instructions and, when the tip
// is active, closes with the tip transfer. BaseCost never includes the tip;
// balance.Guard adds it.
package compose

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/tipsend-go/pkg/computebudget"
	"github.com/ninja0404/tipsend-go/pkg/jupiter"
	"github.com/ninja0404/tipsend-go/pkg/tip"
	"github.com/ninja0404/tipsend-go/pkg/types"
)

// AccountReader is the chain read surface the composer needs.
type AccountReader interface {
	GetMultipleAccounts(ctx context.Context, addrs ...solana.PublicKey) ([]*solanarpc.Account, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
}

// Aggregator quotes and builds swaps.
type Aggregator interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error)
	SwapInstructions(ctx context.Context, quote *jupiter.Quote, user solana.PublicKey) (*jupiter.SwapInstructions, error)
}

// Kind names the scenario a plan was built for.
type Kind string

const (
	KindNativeTransfer Kind = "native_transfer"
	KindTokenTransfer  Kind = "token_transfer"
	KindSwap           Kind = "swap"
)

// Plan is a composed, unsigned operation.
type Plan struct {
	Kind         Kind
	Payer        solana.PublicKey
	Instructions []solana.Instruction
	BaseCost     uint64 // lamports spent excluding the tip
	LookupTables map[solana.PublicKey]solana.PublicKeySlice

	// Token transfer only.
	CreatesRecipientAccount bool
	RentLamports            uint64
}

// Composer builds plans. Accounts is required for token transfers and swaps,
// Aggregator for swaps.
type Composer struct {
	Budget     computebudget.Config
	Tip        tip.Tip
	Accounts   AccountReader
	Aggregator Aggregator
	Log        zerolog.Logger
}

// New returns a composer with the default compute budget and tip.
func New(accounts AccountReader, aggregator Aggregator, log zerolog.Logger) *Composer {
	return &Composer{
		Budget:     computebudget.DefaultConfig(),
		Tip:        tip.Default(),
		Accounts:   accounts,
		Aggregator: aggregator,
		Log:        log,
	}
}

// NativeTransfer plans [limit, price, transfer, (tip)].
func (c *Composer) NativeTransfer(payer, recipient solana.PublicKey, lamports uint64) (Plan, error) {
	if err := types.ValidatePublicKeys(
		types.NamedKey{Name: "payer", Key: payer},
		types.NamedKey{Name: "recipient", Key: recipient},
	); err != nil {
		return Plan{}, err
	}
	if err := types.ValidateAmount("lamports", lamports); err != nil {
		return Plan{}, err
	}

	core := []solana.Instruction{
		system.NewTransferInstruction(lamports, payer, recipient).Build(),
	}
	plan := c.finish(KindNativeTransfer, payer, core)
	plan.BaseCost = saturatingAdd(lamports, c.Budget.EstimateFee(1))
	return plan, nil
}

// finish wraps core instructions with the compute budget in front and the tip behind.
func (c *Composer) finish(kind Kind, payer solana.PublicKey, core []solana.Instruction) Plan {
	budget := c.Budget.Instructions()
	instrs := make([]solana.Instruction, 0, len(budget)+len(core)+1)
	instrs = append(instrs, budget...)
	instrs = append(instrs, core...)
	instrs = c.Tip.Attach(c.Log, instrs, payer)
	c.Log.Debug().
		Str("kind", string(kind)).
		Int("instructions", len(instrs)).
		Bool("tip", c.Tip.Active()).
		Msg("plan composed")
	return Plan{Kind: kind, Payer: payer, Instructions: instrs}
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
