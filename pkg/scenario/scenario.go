// Package scenario drives the three tipped operations end to end:
// compose, guard, build, sign, submit, confirm, report.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/tipsend-go/pkg/balance"
	"github.com/ninja0404/tipsend-go/pkg/compose"
	"github.com/ninja0404/tipsend-go/pkg/computebudget"
	"github.com/ninja0404/tipsend-go/pkg/jupiter"
	"github.com/ninja0404/tipsend-go/pkg/metrics"
	"github.com/ninja0404/tipsend-go/pkg/tip"
	"github.com/ninja0404/tipsend-go/pkg/txbuilder"
	"github.com/ninja0404/tipsend-go/pkg/types"
	"github.com/ninja0404/tipsend-go/pkg/wallet"
)

// Chain is the read side of a node. *rpc.Client satisfies it.
type Chain interface {
	balance.Reader
	compose.AccountReader
	txbuilder.BlockhashSource
	txbuilder.StatusSource
}

// Outcome is how a scenario ended.
type Outcome string

const (
	OutcomeAborted      Outcome = "aborted"
	OutcomeNotSubmitted Outcome = "not_submitted"
	OutcomeSimulated    Outcome = "simulated"
	OutcomeConfirmed    Outcome = "confirmed"
	OutcomeFinalized    Outcome = "finalized"
	OutcomeFailed       Outcome = "failed"
	OutcomeTimedOut     Outcome = "timed_out"
)

// Result reports a finished scenario.
type Result struct {
	Kind       compose.Kind
	Outcome    Outcome
	Signature  solana.Signature
	Report     balance.Report
	Plan       compose.Plan
	Quote      *jupiter.Quote
	Simulation *solanarpc.SimulateTransactionResponse
	Reason     string // set when aborted
}

// Succeeded reports whether the transaction landed without error.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeConfirmed || r.Outcome == OutcomeFinalized
}

// Options wire a Runner.
type Options struct {
	Chain      Chain
	Submitter  txbuilder.Submitter
	Endpoint   string
	Aggregator compose.Aggregator
	Signer     wallet.Signer

	Budget         computebudget.Config
	Tip            tip.Tip
	MaxAttempts    int
	PollInterval   time.Duration
	ConfirmTimeout time.Duration

	// DryRun simulates instead of submitting.
	DryRun    bool
	Simulator txbuilder.Simulator

	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

// Runner executes scenarios for one signer.
type Runner struct {
	chain    Chain
	signer   wallet.Signer
	composer *compose.Composer
	guard    balance.Guard
	builder  *txbuilder.Builder
	sender   *txbuilder.Sender
	monitor  *txbuilder.Monitor
	dryRun   bool
	sim      txbuilder.Simulator
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// NewRunner validates opts and assembles the pipeline.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Chain == nil {
		return nil, types.ErrNilRPC
	}
	if opts.Signer == nil {
		return nil, types.ErrNilSigner
	}
	if opts.DryRun && opts.Simulator == nil {
		return nil, fmt.Errorf("dry run requires a simulator: %w", types.ErrNilRPC)
	}
	if !opts.DryRun && opts.Submitter == nil {
		return nil, types.ErrNilSubmitter
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "sender"
	}

	composer := compose.New(opts.Chain, opts.Aggregator, opts.Log)
	composer.Budget = opts.Budget
	composer.Tip = opts.Tip

	sender := txbuilder.NewSender(opts.Submitter, opts.Endpoint, opts.Log)
	sender.Metrics = opts.Metrics
	if opts.MaxAttempts > 0 {
		sender.MaxAttempts = opts.MaxAttempts
	}

	monitor := txbuilder.NewMonitor(opts.Chain, opts.Log)
	monitor.Metrics = opts.Metrics
	if opts.PollInterval > 0 {
		monitor.Interval = opts.PollInterval
	}
	if opts.ConfirmTimeout > 0 {
		monitor.Timeout = opts.ConfirmTimeout
	}

	return &Runner{
		chain:    opts.Chain,
		signer:   opts.Signer,
		composer: composer,
		guard:    balance.New(opts.Tip, opts.Log),
		builder:  txbuilder.NewBuilder(opts.Chain).WithLogger(opts.Log),
		sender:   sender,
		monitor:  monitor,
		dryRun:   opts.DryRun,
		sim:      opts.Simulator,
		log:      opts.Log,
		metrics:  opts.Metrics,
	}, nil
}

// Payer returns the signer's public key.
func (r *Runner) Payer() solana.PublicKey {
	return r.signer.PublicKey()
}

// NativeTransfer sends lamports to recipient.
func (r *Runner) NativeTransfer(ctx context.Context, recipient solana.PublicKey, lamports uint64) (Result, error) {
	r.log.Info().
		Str("recipient", recipient.String()).
		Str("amount", balance.FormatSOL(lamports)).
		Msg("native transfer")
	plan, err := r.composer.NativeTransfer(r.Payer(), recipient, lamports)
	return r.execute(ctx, compose.KindNativeTransfer, plan, nil, err)
}

// TokenTransfer sends amount (decimal string, mint UI units) of mint to recipient.
func (r *Runner) TokenTransfer(ctx context.Context, recipient, mint solana.PublicKey, amount string) (Result, error) {
	r.log.Info().
		Str("recipient", recipient.String()).
		Str("mint", mint.String()).
		Str("amount", amount).
		Msg("token transfer")
	plan, err := r.composer.TokenTransfer(ctx, compose.TokenTransferRequest{
		Owner:     r.Payer(),
		Recipient: recipient,
		Mint:      mint,
		Amount:    amount,
	})
	return r.execute(ctx, compose.KindTokenTransfer, plan, nil, err)
}

// Swap trades amount raw units of inputMint into outputMint through the aggregator.
func (r *Runner) Swap(ctx context.Context, inputMint, outputMint solana.PublicKey, amount, slippageBps uint64) (Result, error) {
	r.log.Info().
		Str("input_mint", inputMint.String()).
		Str("output_mint", outputMint.String()).
		Uint64("amount", amount).
		Uint64("slippage_bps", slippageBps).
		Msg("swap")
	plan, quote, err := r.composer.Swap(ctx, compose.SwapRequest{
		User:        r.Payer(),
		InputMint:   inputMint,
		OutputMint:  outputMint,
		Amount:      amount,
		SlippageBps: slippageBps,
	})
	return r.execute(ctx, compose.KindSwap, plan, quote, err)
}

func (r *Runner) execute(ctx context.Context, kind compose.Kind, plan compose.Plan, quote *jupiter.Quote, composeErr error) (Result, error) {
	res := Result{Kind: kind, Plan: plan, Quote: quote}

	if composeErr != nil {
		if reason, ok := abortReason(composeErr); ok {
			return r.abort(res, reason, composeErr), nil
		}
		return res, fmt.Errorf("compose %s: %w", kind, composeErr)
	}

	report, err := r.guard.Check(ctx, r.chain, plan.Payer, plan.BaseCost)
	if err != nil {
		return res, err
	}
	res.Report = report
	r.metrics.RecordBalanceCheck(report.Sufficient)
	if !report.Sufficient {
		reason := fmt.Sprintf("insufficient balance: have %s, need %s (short %s)",
			balance.FormatSOL(report.Available), balance.FormatSOL(report.Required), balance.FormatSOL(report.Shortfall))
		return r.abort(res, reason, types.ErrInsufficientBalance), nil
	}

	tx, err := r.builder.BuildAndSign(ctx, r.signer, plan.LookupTables, plan.Instructions...)
	if err != nil {
		return res, err
	}

	if r.dryRun {
		sim, err := txbuilder.Simulate(ctx, r.sim, tx)
		if err != nil {
			return res, err
		}
		res.Simulation = sim
		res.Signature = tx.Signatures[0]
		return r.done(res, OutcomeSimulated), nil
	}

	sig, ok := r.sender.SendWithRetry(ctx, tx)
	if !ok {
		return r.done(res, OutcomeNotSubmitted), nil
	}
	res.Signature = sig

	switch r.monitor.MonitorStatus(ctx, sig) {
	case txbuilder.StatusConfirmed:
		return r.done(res, OutcomeConfirmed), nil
	case txbuilder.StatusFinalized:
		return r.done(res, OutcomeFinalized), nil
	case txbuilder.StatusFailed:
		return r.done(res, OutcomeFailed), nil
	default:
		return r.done(res, OutcomeTimedOut), nil
	}
}

// abortReason maps errors that stop a scenario before anything is built.
func abortReason(err error) (string, bool) {
	switch {
	case errors.Is(err, jupiter.ErrRateLimited):
		return "swap aggregator rate limited the request (HTTP 429), try again later", true
	case errors.Is(err, jupiter.ErrBadRequest):
		return "swap aggregator rejected the request (HTTP 400), check mints and amount", true
	case errors.Is(err, jupiter.ErrNoRoute):
		return "swap aggregator found no route", true
	case errors.Is(err, compose.ErrAggregator):
		return "swap aggregator unavailable", true
	case errors.Is(err, types.ErrSenderTokenAccountMissing):
		return "sender has no token account for this mint", true
	case types.IsPrecondition(err):
		return err.Error(), true
	}
	return "", false
}

func (r *Runner) abort(res Result, reason string, err error) Result {
	res.Outcome = OutcomeAborted
	res.Reason = reason
	r.metrics.RecordScenario(string(res.Kind), string(res.Outcome))
	r.log.Warn().
		Err(err).
		Str("kind", string(res.Kind)).
		Str("reason", reason).
		Msg("operation aborted, nothing was sent")
	return res
}

func (r *Runner) done(res Result, outcome Outcome) Result {
	res.Outcome = outcome
	r.metrics.RecordScenario(string(res.Kind), string(outcome))
	ev := r.log.Info()
	if !res.Succeeded() && outcome != OutcomeSimulated {
		ev = r.log.Warn()
	}
	ev.Str("kind", string(res.Kind)).
		Str("outcome", string(outcome)).
		Str("signature", res.Signature.String()).
		Msg("operation finished")
	return res
}
