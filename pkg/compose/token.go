package compose

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/tipsend-go/pkg/constants"
	"github.com/ninja0404/tipsend-go/pkg/types"
)

// TokenTransferRequest describes an SPL token transfer. Amount is a decimal
// string in the mint's UI units; RawAmount is used when Amount is empty.
type TokenTransferRequest struct {
	Owner     solana.PublicKey
	Recipient solana.PublicKey
	Mint      solana.PublicKey
	Amount    string
	RawAmount uint64
}

// TokenTransfer plans [limit, price, (create recipient account), transfer, (tip)].
//
// The mint and both associated token accounts are read in one call. A
// missing sender account or a short sender balance stops composition with a
// precondition error.
func (c *Composer) TokenTransfer(ctx context.Context, req TokenTransferRequest) (Plan, error) {
	if c.Accounts == nil {
		return Plan{}, types.ErrNilRPC
	}
	if err := types.ValidatePublicKeys(
		types.NamedKey{Name: "owner", Key: req.Owner},
		types.NamedKey{Name: "recipient", Key: req.Recipient},
		types.NamedKey{Name: "mint", Key: req.Mint},
	); err != nil {
		return Plan{}, err
	}

	// The token program is only known once the mint is read, so the
	// associated accounts are derived under both programs and fetched with it.
	candidates := []solana.PublicKey{constants.TokenProgramID, constants.Token2022ProgramID}
	addrs := []solana.PublicKey{req.Mint}
	for _, program := range candidates {
		senderATA, err := FindATA(req.Owner, req.Mint, program)
		if err != nil {
			return Plan{}, err
		}
		recipientATA, err := FindATA(req.Recipient, req.Mint, program)
		if err != nil {
			return Plan{}, err
		}
		addrs = append(addrs, senderATA, recipientATA)
	}
	accs, err := fetchAccounts(ctx, c.Accounts, addrs...)
	if err != nil {
		return Plan{}, fmt.Errorf("fetch mint and token accounts: %w", err)
	}
	mintAcc := accs[0]
	if mintAcc == nil {
		return Plan{}, fmt.Errorf("%w: %s", types.ErrMintNotFound, req.Mint)
	}
	tokenProgram := mintAcc.Owner
	if !IsTokenProgram(tokenProgram) {
		return Plan{}, types.NewValidationError("mint", fmt.Sprintf("%s is owned by %s, not a token program", req.Mint, tokenProgram))
	}
	decimals, err := decodeMintDecimals(accountData(mintAcc))
	if err != nil {
		return Plan{}, fmt.Errorf("decode mint %s: %w", req.Mint, err)
	}

	raw := req.RawAmount
	if req.Amount != "" {
		if raw, err = ParseAmount(req.Amount, decimals); err != nil {
			return Plan{}, err
		}
	}
	if err := types.ValidateAmount("amount", raw); err != nil {
		return Plan{}, err
	}

	slot := 1
	if tokenProgram.Equals(constants.Token2022ProgramID) {
		slot = 3
	}
	senderATA, recipientATA := addrs[slot], addrs[slot+1]
	senderAcc, recipientAcc := accs[slot], accs[slot+1]

	if senderAcc == nil || !senderAcc.Owner.Equals(tokenProgram) {
		return Plan{}, fmt.Errorf("%w: %s (mint %s)", types.ErrSenderTokenAccountMissing, senderATA, req.Mint)
	}
	have, err := decodeTokenAmount(accountData(senderAcc))
	if err != nil {
		return Plan{}, fmt.Errorf("decode sender token account %s: %w", senderATA, err)
	}
	if have < raw {
		return Plan{}, types.InsufficientTokenError{
			Mint: req.Mint.String(),
			Have: FormatAmount(have, decimals),
			Want: FormatAmount(raw, decimals),
		}
	}

	var (
		core []solana.Instruction
		rent uint64
	)
	if recipientAcc == nil {
		if rent, err = c.Accounts.GetMinimumBalanceForRentExemption(ctx, constants.TokenAccountSize); err != nil {
			return Plan{}, fmt.Errorf("rent for token account: %w", err)
		}
		core = append(core, createATAInstruction(req.Owner, recipientATA, req.Recipient, req.Mint, tokenProgram))
		c.Log.Info().
			Str("account", recipientATA.String()).
			Uint64("rent_lamports", rent).
			Msg("recipient token account missing, creating it")
	}

	transfer, err := transferCheckedInstruction(senderATA, req.Mint, recipientATA, req.Owner, tokenProgram, raw, decimals)
	if err != nil {
		return Plan{}, fmt.Errorf("encode transfer: %w", err)
	}
	core = append(core, transfer)

	plan := c.finish(KindTokenTransfer, req.Owner, core)
	plan.CreatesRecipientAccount = recipientAcc == nil
	plan.RentLamports = rent
	plan.BaseCost = saturatingAdd(c.Budget.EstimateFee(1), rent)

	c.Log.Debug().
		Str("mint", req.Mint.String()).
		Str("amount", FormatAmount(raw, decimals)).
		Uint8("decimals", decimals).
		Str("token_program", tokenProgram.String()).
		Msg("token transfer composed")
	return plan, nil
}
