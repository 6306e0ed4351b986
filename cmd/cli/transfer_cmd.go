package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/ninja0404/tipsend-go/pkg/scenario"
)

// runScenario loads the runtime, runs fn and prints its result. Aborted
// scenarios are not command errors; outcomes where a transaction may have
// been lost or failed are.
func runScenario(cmd *cobra.Command, opts *globalOpts, fn func(ctx context.Context, deps *runtimeDeps, r *scenario.Runner) (scenario.Result, error)) error {
	deps, err := newRuntime(cmd, opts)
	if err != nil {
		return err
	}
	defer deps.stop()

	runner, err := deps.newRunner(opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	res, err := fn(ctx, deps, runner)
	if err != nil {
		return err
	}
	printResult(cmd, res)

	switch res.Outcome {
	case scenario.OutcomeNotSubmitted, scenario.OutcomeFailed, scenario.OutcomeTimedOut:
		return fmt.Errorf("transaction %s", res.Outcome)
	}
	return nil
}

// recipientOrDefault falls back to DEFAULT_RECIPIENT when --to is empty.
func recipientOrDefault(to string, deps *runtimeDeps) (solana.PublicKey, error) {
	if to == "" && !deps.cfg.DefaultRecipient.IsZero() {
		return deps.cfg.DefaultRecipient, nil
	}
	return parsePubkey("to", to)
}

func newTransferCmd(opts *globalOpts) *cobra.Command {
	var (
		to       string
		lamports uint64
	)
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer SOL (lamports) to a recipient",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, opts, func(ctx context.Context, deps *runtimeDeps, r *scenario.Runner) (scenario.Result, error) {
				recipient, err := recipientOrDefault(to, deps)
				if err != nil {
					return scenario.Result{}, err
				}
				return r.NativeTransfer(ctx, recipient, lamports)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient (default DEFAULT_RECIPIENT)")
	cmd.Flags().Uint64Var(&lamports, "lamports", 0, "amount in lamports")
	_ = cmd.MarkFlagRequired("lamports")
	return cmd
}

func newTokenTransferCmd(opts *globalOpts) *cobra.Command {
	var (
		to     string
		mint   string
		amount string
	)
	cmd := &cobra.Command{
		Use:   "token-transfer",
		Short: "Transfer SPL tokens, creating the recipient token account when missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			mintPK, err := parsePubkey("mint", mint)
			if err != nil {
				return err
			}
			return runScenario(cmd, opts, func(ctx context.Context, deps *runtimeDeps, r *scenario.Runner) (scenario.Result, error) {
				recipient, err := recipientOrDefault(to, deps)
				if err != nil {
					return scenario.Result{}, err
				}
				return r.TokenTransfer(ctx, recipient, mintPK, amount)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient wallet (default DEFAULT_RECIPIENT)")
	cmd.Flags().StringVar(&mint, "mint", "", "token mint")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in token units, e.g. 1.5")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newSwapCmd(opts *globalOpts) *cobra.Command {
	var (
		inputMint   string
		outputMint  string
		amount      uint64
		slippageBps uint64
	)
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap through the Jupiter aggregator",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parsePubkey("input-mint", inputMint)
			if err != nil {
				return err
			}
			out, err := parsePubkey("output-mint", outputMint)
			if err != nil {
				return err
			}
			return runScenario(cmd, opts, func(ctx context.Context, deps *runtimeDeps, r *scenario.Runner) (scenario.Result, error) {
				return r.Swap(ctx, in, out, amount, slippageBps)
			})
		},
	}
	cmd.Flags().StringVar(&inputMint, "input-mint", solana.WrappedSol.String(), "mint to sell")
	cmd.Flags().StringVar(&outputMint, "output-mint", "", "mint to buy")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount of the input mint in raw units")
	cmd.Flags().Uint64Var(&slippageBps, "slippage-bps", 50, "slippage tolerance in basis points")
	_ = cmd.MarkFlagRequired("output-mint")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
