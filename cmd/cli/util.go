package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/ninja0404/tipsend-go/pkg/balance"
	"github.com/ninja0404/tipsend-go/pkg/scenario"
)

// parsePubkey converts base58 string to PublicKey.
func parsePubkey(label, v string) (solana.PublicKey, error) {
	if v == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is required", label)
	}
	pk, err := solana.PublicKeyFromBase58(v)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s invalid pubkey: %w", label, err)
	}
	return pk, nil
}

// printResult writes a human summary of res to stdout.
func printResult(cmd *cobra.Command, res scenario.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "kind=%s outcome=%s\n", res.Kind, res.Outcome)
	if res.Reason != "" {
		fmt.Fprintf(out, "reason: %s\n", res.Reason)
	}
	if res.Report.Required > 0 {
		fmt.Fprintf(out, "balance=%s required=%s (base %s + tip %s)\n",
			balance.FormatSOL(res.Report.Available),
			balance.FormatSOL(res.Report.Required),
			balance.FormatSOL(res.Report.BaseCost),
			balance.FormatSOL(res.Report.TipCost))
	}
	if res.Quote != nil {
		fmt.Fprintf(out, "quote: in=%s out=%s min_out=%s impact=%s%%\n",
			res.Quote.InAmount, res.Quote.OutAmount, res.Quote.OtherAmountThreshold, res.Quote.PriceImpactPct)
	}
	if res.Simulation != nil {
		printSimResult(cmd, res.Simulation)
		return
	}
	if !res.Signature.IsZero() {
		fmt.Fprintf(out, "signature: %s\n", res.Signature)
		fmt.Fprintf(out, "explorer: https://solscan.io/tx/%s\n", res.Signature)
	}
}
