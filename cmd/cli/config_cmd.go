package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/ninja0404/tipsend-go/pkg/balance"
	"github.com/ninja0404/tipsend-go/pkg/config"
	"github.com/ninja0404/tipsend-go/pkg/jito"
)

func newConfigCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration (wallet contents are never printed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			out := cmd.OutOrStdout()
			recipient := "-"
			if !cfg.DefaultRecipient.IsZero() {
				recipient = cfg.DefaultRecipient.String()
			}
			fmt.Fprintf(out, "sender_rpc=%s\n", cfg.SenderRPCURL)
			fmt.Fprintf(out, "basic_rpc=%s\n", cfg.BasicRPCURL)
			fmt.Fprintf(out, "wallet_path=%s\n", cfg.WalletPath)
			fmt.Fprintf(out, "default_recipient=%s\n", recipient)
			fmt.Fprintf(out, "tip_enabled=%t tip=%s tip_account=%s\n", cfg.TipEnabled, balance.FormatSOL(cfg.TipLamports), cfg.TipAccount)
			fmt.Fprintf(out, "compute_unit_limit=%d compute_unit_price=%d\n", cfg.ComputeUnitLimit, cfg.ComputeUnitPrice)
			fmt.Fprintf(out, "jupiter=%s\n", cfg.JupiterURL)
			fmt.Fprintf(out, "jito=%s\n", cfg.JitoURL)
			fmt.Fprintf(out, "log_level=%s\n", cfg.LogLevel)
			return nil
		},
	}
}

func newTipAccountsCmd(opts *globalOpts) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "tip-accounts",
		Short: "List Jito tip accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts := jito.MainnetTipAccounts
			if remote {
				url := config.DefaultJitoURL
				if cfg, err := config.Load(opts.envFile); err == nil {
					url = cfg.JitoURL
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
				defer cancel()
				fetched, err := jito.NewClient(url, "").GetTipAccounts(ctx)
				if err != nil {
					return err
				}
				accounts = fetched
			}
			printAccounts(cmd, accounts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "query the block engine instead of the built-in list")
	return cmd
}

func printAccounts(cmd *cobra.Command, accounts []solana.PublicKey) {
	for _, acc := range accounts {
		fmt.Fprintln(cmd.OutOrStdout(), acc)
	}
}
