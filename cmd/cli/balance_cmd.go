package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/ninja0404/tipsend-go/pkg/balance"
	"github.com/ninja0404/tipsend-go/pkg/compose"
	"github.com/ninja0404/tipsend-go/pkg/wallet"
)

func newBalanceCmd(opts *globalOpts) *cobra.Command {
	var mint string
	cmd := &cobra.Command{
		Use:   "balance [pubkey]",
		Short: "Show the SOL balance (and optionally a token balance) of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			defer deps.stop()

			var owner solana.PublicKey
			if len(args) == 1 {
				if owner, err = parsePubkey("account", args[0]); err != nil {
					return err
				}
			} else {
				signer, err := wallet.Load(deps.cfg.WalletPath)
				if err != nil {
					return err
				}
				owner = signer.PublicKey()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			lamports, err := deps.basic.GetBalance(ctx, owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account=%s\nsol=%s (%d lamports)\n", owner, balance.FormatSOL(lamports), lamports)

			if mint == "" {
				return nil
			}
			mintPK, err := parsePubkey("mint", mint)
			if err != nil {
				return err
			}
			held, err := compose.ReadTokenBalance(ctx, deps.basic, owner, mintPK)
			if err != nil {
				return err
			}
			if !held.Exists {
				fmt.Fprintf(cmd.OutOrStdout(), "token account %s does not exist\n", held.Account)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token_account=%s program=%s\namount=%s (%d raw, %d decimals)\n",
				held.Account, held.Program, held.UIAmount(), held.Amount, held.Decimals)
			return nil
		},
	}
	cmd.Flags().StringVar(&mint, "mint", "", "also show the balance of this token mint")
	return cmd
}
