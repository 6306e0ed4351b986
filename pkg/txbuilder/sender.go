package txbuilder

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/tipsend-go/pkg/metrics"
	"github.com/ninja0404/tipsend-go/pkg/types"
)

// DefaultMaxAttempts bounds SendWithRetry.
const DefaultMaxAttempts = 3

// Submitter hands a signed transaction to an endpoint and returns its
// signature. One call is one attempt.
type Submitter interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

type rawSender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
}

// RPCSubmitter submits through a JSON-RPC node. Preflight is skipped and the
// node is asked to rebroadcast up to three times on its own.
type RPCSubmitter struct {
	client rawSender
	opts   solanarpc.TransactionOpts
}

// NewRPCSubmitter wraps client, typically a *rpc.Client.
func NewRPCSubmitter(client rawSender) *RPCSubmitter {
	nodeRetries := uint(3)
	return &RPCSubmitter{
		client: client,
		opts: solanarpc.TransactionOpts{
			SkipPreflight:       true,
			PreflightCommitment: solanarpc.CommitmentConfirmed,
			MaxRetries:          &nodeRetries,
		},
	}
}

// SendTransaction implements Submitter.
func (s *RPCSubmitter) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if s.client == nil {
		return solana.Signature{}, types.ErrNilRPC
	}
	return s.client.SendTransaction(ctx, tx, s.opts)
}

// Sender submits with bounded, immediate retry.
type Sender struct {
	Submitter   Submitter
	Endpoint    string // label for logs and metrics
	MaxAttempts int
	Log         zerolog.Logger
	Metrics     *metrics.Metrics
}

// NewSender returns a sender with DefaultMaxAttempts.
func NewSender(submitter Submitter, endpoint string, log zerolog.Logger) *Sender {
	return &Sender{
		Submitter:   submitter,
		Endpoint:    endpoint,
		MaxAttempts: DefaultMaxAttempts,
		Log:         log,
	}
}

// SendWithRetry makes up to MaxAttempts sequential attempts with no delay
// between them and returns the first non-empty signature. It reports false
// when every attempt failed; the last failure is logged.
func (s *Sender) SendWithRetry(ctx context.Context, tx *solana.Transaction) (solana.Signature, bool) {
	if s.Submitter == nil {
		s.Log.Error().Err(types.ErrNilSubmitter).Msg("cannot submit transaction")
		return solana.Signature{}, false
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	attempt := 0
	op := func() (solana.Signature, error) {
		attempt++
		sig, err := s.Submitter.SendTransaction(ctx, tx)
		if err == nil && sig == (solana.Signature{}) {
			err = types.ErrEmptySignature
		}
		s.Metrics.RecordAttempt(s.Endpoint, err)
		if err != nil {
			s.Log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Str("endpoint", s.Endpoint).
				Msg("submission attempt failed")
			if ctx.Err() != nil {
				return solana.Signature{}, backoff.Permanent(ctx.Err())
			}
			return solana.Signature{}, err
		}
		return sig, nil
	}

	sig, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(uint(maxAttempts)),
	)
	if err != nil {
		s.Metrics.RecordSubmission(s.Endpoint, false)
		s.Log.Error().
			Err(fmt.Errorf("%w: %w", types.ErrTransactionFail, err)).
			Int("attempts", attempt).
			Str("endpoint", s.Endpoint).
			Msg("transaction not submitted")
		return solana.Signature{}, false
	}
	s.Metrics.RecordSubmission(s.Endpoint, true)
	s.Log.Info().
		Str("signature", sig.String()).
		Int("attempt", attempt).
		Str("endpoint", s.Endpoint).
		Msg("transaction submitted")
	return sig, true
}
