// Package txbuilder turns a composed instruction list into a signed
// transaction, submits it with bounded retry and polls for its final status.
package txbuilder

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/tipsend-go/pkg/types"
	"github.com/ninja0404/tipsend-go/pkg/wallet"
)

// BlockhashSource provides the recent blockhash a transaction is bound to.
type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error)
}

// Simulator runs a transaction without landing it.
type Simulator interface {
	SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *solanarpc.SimulateTransactionOpts) (*solanarpc.SimulateTransactionResponse, error)
}

// Builder builds transactions against a fresh blockhash.
type Builder struct {
	source BlockhashSource
	log    zerolog.Logger
}

// NewBuilder returns a builder reading blockhashes from source.
func NewBuilder(source BlockhashSource) *Builder {
	return &Builder{source: source, log: zerolog.Nop()}
}

// WithLogger attaches a logger.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// BuildTransaction builds an unsigned transaction paid by feePayer. When
// tables is non-empty the message is versioned and compresses accounts
// found in the lookup tables.
func (b *Builder) BuildTransaction(ctx context.Context, feePayer solana.PublicKey, tables map[solana.PublicKey]solana.PublicKeySlice, instructions ...solana.Instruction) (*solana.Transaction, error) {
	if b.source == nil {
		return nil, types.ErrNilRPC
	}
	if len(instructions) == 0 {
		return nil, types.ErrNoInstructions
	}

	latest, err := b.source.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}
	if latest == nil || latest.Value == nil {
		return nil, fmt.Errorf("get latest blockhash: empty response")
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(feePayer)}
	if len(tables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(tables))
	}
	tx, err := solana.NewTransaction(instructions, latest.Value.Blockhash, opts...)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	b.log.Debug().
		Str("blockhash", latest.Value.Blockhash.String()).
		Int("instructions", len(instructions)).
		Int("lookup_tables", len(tables)).
		Msg("transaction built")
	return tx, nil
}

// SignTransaction signs using the provided signers in account-key order.
func SignTransaction(ctx context.Context, tx *solana.Transaction, signers ...wallet.Signer) error {
	if tx == nil {
		return fmt.Errorf("transaction is nil")
	}
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 {
		return nil
	}
	if len(tx.Message.AccountKeys) < required {
		return fmt.Errorf("not enough account keys for required signatures")
	}

	signerMap := make(map[solana.PublicKey]wallet.Signer, len(signers))
	for _, s := range signers {
		if s == nil {
			return types.ErrNilSigner
		}
		signerMap[s.PublicKey()] = s
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	tx.Signatures = make([]solana.Signature, required)
	for i := 0; i < required; i++ {
		pk := tx.Message.AccountKeys[i]
		signer, ok := signerMap[pk]
		if !ok {
			return fmt.Errorf("missing signer for %s", pk)
		}
		sig, err := signer.SignMessage(ctx, messageBytes)
		if err != nil {
			return fmt.Errorf("sign message for %s: %w", pk, err)
		}
		tx.Signatures[i] = sig
	}
	return nil
}

// BuildAndSign builds a transaction paid and signed by payer.
func (b *Builder) BuildAndSign(ctx context.Context, payer wallet.Signer, tables map[solana.PublicKey]solana.PublicKeySlice, instructions ...solana.Instruction) (*solana.Transaction, error) {
	if payer == nil {
		return nil, types.ErrNilSigner
	}
	tx, err := b.BuildTransaction(ctx, payer.PublicKey(), tables, instructions...)
	if err != nil {
		return nil, err
	}
	if err := SignTransaction(ctx, tx, payer); err != nil {
		return nil, err
	}
	return tx, nil
}

// Simulate runs a signed transaction through sim with signature verification.
func Simulate(ctx context.Context, sim Simulator, tx *solana.Transaction) (*solanarpc.SimulateTransactionResponse, error) {
	if sim == nil {
		return nil, types.ErrNilRPC
	}
	res, err := sim.SimulateTransaction(ctx, tx, &solanarpc.SimulateTransactionOpts{
		SigVerify:  true,
		Commitment: solanarpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate transaction: %w", err)
	}
	return res, nil
}
