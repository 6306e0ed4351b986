package main

import (
	"fmt"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
)

func printSimResult(cmd *cobra.Command, res *solanarpc.SimulateTransactionResponse) {
	if res == nil || res.Value == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "no simulation result\n")
		return
	}
	if res.Value.Err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "simulation error: %v\n", res.Value.Err)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "simulation ok")
	}
	if res.Value.UnitsConsumed != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "compute units consumed: %d\n", *res.Value.UnitsConsumed)
	}
	if len(res.Value.Logs) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "logs:")
		for _, l := range res.Value.Logs {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", l)
		}
	}
}
