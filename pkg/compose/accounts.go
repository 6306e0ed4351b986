package compose

import (
	"bytes"
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/ninja0404/tipsend-go/pkg/constants"
	"github.com/ninja0404/tipsend-go/pkg/types"
)

// Token program instruction discriminator for TransferChecked.
const instructionTransferChecked uint8 = 12

const (
	mintSize         = 82
	mintDecimalsAt   = 44
	tokenAmountAt    = 64
	tokenAccountBase = 165
)

// FindATA derives the associated token account of wallet for mint under tokenProgram.
func FindATA(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindProgramAddress([][]byte{
		wallet[:],
		tokenProgram[:],
		mint[:],
	}, constants.AssociatedTokenProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account of %s for %s: %w", wallet, mint, err)
	}
	return ata, nil
}

// IsTokenProgram reports whether program is SPL Token or Token-2022.
func IsTokenProgram(program solana.PublicKey) bool {
	return program.Equals(constants.TokenProgramID) || program.Equals(constants.Token2022ProgramID)
}

// fetchAccounts reads addrs in one call. Missing accounts are nil.
func fetchAccounts(ctx context.Context, reader AccountReader, addrs ...solana.PublicKey) ([]*solanarpc.Account, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	accounts, err := reader.GetMultipleAccounts(ctx, addrs...)
	if err != nil {
		return nil, err
	}
	if len(accounts) != len(addrs) {
		return nil, fmt.Errorf("get multiple accounts: expected %d results, got %d", len(addrs), len(accounts))
	}
	return accounts, nil
}

func accountData(acc *solanarpc.Account) []byte {
	if acc == nil || acc.Data == nil {
		return nil
	}
	return acc.Data.GetBinary()
}

// decodeMintDecimals reads the decimals byte of a token mint.
func decodeMintDecimals(data []byte) (uint8, error) {
	if len(data) < mintSize {
		return 0, fmt.Errorf("mint data too short: %d bytes", len(data))
	}
	dec := bin.NewBinDecoder(data[mintDecimalsAt:])
	return dec.ReadUint8()
}

// decodeTokenAmount reads the amount of a token account.
func decodeTokenAmount(data []byte) (uint64, error) {
	if len(data) < tokenAccountBase {
		return 0, fmt.Errorf("token account data too short: %d bytes", len(data))
	}
	dec := bin.NewBinDecoder(data[tokenAmountAt:])
	return dec.ReadUint64(bin.LE)
}

// createATAInstruction creates wallet's associated token account, paid by payer.
func createATAInstruction(payer, ata, wallet, mint, tokenProgram solana.PublicKey) solana.Instruction {
	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(wallet, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(constants.SystemProgramID, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(constants.AssociatedTokenProgramID, metas, nil)
}

// transferCheckedInstruction works for both token programs.
func transferCheckedInstruction(source, mint, destination, owner, tokenProgram solana.PublicKey, amount uint64, decimals uint8) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint8(instructionTransferChecked); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(amount, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(decimals); err != nil {
		return nil, err
	}
	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(source, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(owner, false, true),
	}
	return solana.NewInstruction(tokenProgram, metas, buf.Bytes()), nil
}

// TokenBalance is the holding of one owner in one mint.
type TokenBalance struct {
	Account  solana.PublicKey
	Program  solana.PublicKey
	Amount   uint64
	Decimals uint8
	Exists   bool
}

// UIAmount formats Amount in the mint's UI units.
func (b TokenBalance) UIAmount() string {
	return FormatAmount(b.Amount, b.Decimals)
}

// ReadTokenBalance reads owner's associated token account for mint. A
// missing account is reported with Exists false and a zero amount.
func ReadTokenBalance(ctx context.Context, reader AccountReader, owner, mint solana.PublicKey) (TokenBalance, error) {
	accs, err := fetchAccounts(ctx, reader, mint)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("fetch mint: %w", err)
	}
	if accs[0] == nil {
		return TokenBalance{}, fmt.Errorf("%w: %s", types.ErrMintNotFound, mint)
	}
	program := accs[0].Owner
	if !IsTokenProgram(program) {
		return TokenBalance{}, types.NewValidationError("mint", fmt.Sprintf("%s is owned by %s, not a token program", mint, program))
	}
	decimals, err := decodeMintDecimals(accountData(accs[0]))
	if err != nil {
		return TokenBalance{}, fmt.Errorf("decode mint %s: %w", mint, err)
	}
	ata, err := FindATA(owner, mint, program)
	if err != nil {
		return TokenBalance{}, err
	}

	out := TokenBalance{Account: ata, Program: program, Decimals: decimals}
	accs, err = fetchAccounts(ctx, reader, ata)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("fetch token account: %w", err)
	}
	if accs[0] == nil {
		return out, nil
	}
	if out.Amount, err = decodeTokenAmount(accountData(accs[0])); err != nil {
		return TokenBalance{}, fmt.Errorf("decode token account %s: %w", ata, err)
	}
	out.Exists = true
	return out, nil
}
