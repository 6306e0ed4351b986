package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ninja0404/tipsend-go/pkg/config"
	"github.com/ninja0404/tipsend-go/pkg/types"
)

// maxAccountsPerRequest is the getMultipleAccounts key limit.
const maxAccountsPerRequest = 100

// Client wraps solana-go rpc.Client with retry, timeout, and rate limiting.
// Reads are retried; SendTransaction is single-shot.
type Client struct {
	raw     *solanarpc.Client
	cfg     config.RPCConfig
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient builds a configured Client.
func NewClient(cfg config.RPCConfig) *Client {
	endpoint := cfg.Endpoint()
	rpcClient := solanarpc.New(endpoint)

	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst == 0 {
			burst = int(cfg.RateLimit.RPS * 2)
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}

	log := cfg.Logger
	if log.GetLevel() == zerolog.NoLevel {
		log = zerolog.Nop()
	}

	return &Client{
		raw:     rpcClient,
		cfg:     cfg,
		limiter: limiter,
		log:     log.With().Str("rpc", endpoint).Str("role", cfg.Role).Logger(),
	}
}

// Raw exposes the underlying solana-go client.
func (c *Client) Raw() *solanarpc.Client {
	return c.raw
}

// Endpoint returns the resolved endpoint URL.
func (c *Client) Endpoint() string {
	return c.cfg.Endpoint()
}

func (c *Client) commitment() solanarpc.CommitmentType {
	if c.cfg.Commitment == "" {
		return solanarpc.CommitmentConfirmed
	}
	return solanarpc.CommitmentType(c.cfg.Commitment)
}

// GetLatestBlockhash fetches the latest blockhash at the configured commitment.
func (c *Client) GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error) {
	var out *solanarpc.GetLatestBlockhashResult
	err := c.call(ctx, "getLatestBlockhash", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetLatestBlockhash(ctx, c.commitment())
		return err
	})
	return out, err
}

// GetBalance returns the lamport balance of account.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var out uint64
	err := c.call(ctx, "getBalance", func(ctx context.Context) error {
		res, err := c.raw.GetBalance(ctx, account, c.commitment())
		if err != nil {
			return err
		}
		out = res.Value
		return nil
	})
	return out, err
}

// GetMultipleAccounts fetches accounts in request-sized chunks. The result is
// positional; missing accounts are nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, addrs ...solana.PublicKey) ([]*solanarpc.Account, error) {
	out := make([]*solanarpc.Account, 0, len(addrs))
	for start := 0; start < len(addrs); start += maxAccountsPerRequest {
		end := start + maxAccountsPerRequest
		if end > len(addrs) {
			end = len(addrs)
		}
		chunk := addrs[start:end]
		var res *solanarpc.GetMultipleAccountsResult
		err := c.call(ctx, "getMultipleAccounts", func(ctx context.Context) error {
			var err error
			res, err = c.raw.GetMultipleAccountsWithOpts(ctx, chunk, &solanarpc.GetMultipleAccountsOpts{
				Commitment: c.commitment(),
				Encoding:   solana.EncodingBase64,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		if res == nil || len(res.Value) != len(chunk) {
			return nil, types.RPCError{Op: "getMultipleAccounts", Err: fmt.Errorf("expected %d accounts in response", len(chunk))}
		}
		out = append(out, res.Value...)
	}
	return out, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for size bytes.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	var out uint64
	err := c.call(ctx, "getMinimumBalanceForRentExemption", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetMinimumBalanceForRentExemption(ctx, size, c.commitment())
		return err
	})
	return out, err
}

// GetSignatureStatus returns the status of sig, or nil when the cluster does not know it yet.
// It makes exactly one request so that pollers control their own cadence.
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*solanarpc.SignatureStatusesResult, error) {
	var out *solanarpc.SignatureStatusesResult
	err := c.once(ctx, "getSignatureStatuses", func(ctx context.Context) error {
		res, err := c.raw.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return err
		}
		if res != nil && len(res.Value) > 0 {
			out = res.Value[0]
		}
		return nil
	})
	return out, err
}

// SendTransaction submits a signed transaction once.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	var sig solana.Signature
	err := c.once(ctx, "sendTransaction", func(ctx context.Context) error {
		var err error
		sig, err = c.raw.SendTransactionWithOpts(ctx, tx, opts)
		return err
	})
	return sig, err
}

// SimulateTransaction simulates a transaction for debugging.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *solanarpc.SimulateTransactionOpts) (*solanarpc.SimulateTransactionResponse, error) {
	var res *solanarpc.SimulateTransactionResponse
	err := c.call(ctx, "simulateTransaction", func(ctx context.Context) error {
		var err error
		res, err = c.raw.SimulateTransactionWithOpts(ctx, tx, opts)
		return err
	})
	return res, err
}

func (c *Client) once(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := fn(ctx); err != nil {
		return types.RPCError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if !c.cfg.Retry.Enabled {
		return c.once(ctx, op, fn)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	attempts := c.cfg.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	tries := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return struct{}{}, backoff.Permanent(err)
			}
		}
		tries++
		err := fn(ctx)
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(c.retryPolicy()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Debug().
				Str("op", op).
				Int("attempt", tries).
				Dur("backoff", next).
				Err(err).
				Msg("rpc retry")
		}),
	)
	if err == nil {
		return nil
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if tries == 0 {
		return err
	}
	return types.RPCError{Op: op, Err: fmt.Errorf("failed after %d attempts: %w", tries, err)}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *Client) retryPolicy() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval: c.cfg.Retry.InitialBackoff,
		MaxInterval:     c.cfg.Retry.MaxBackoff,
		Multiplier:      2,
	}
	if b.InitialInterval <= 0 {
		b.InitialInterval = 100 * time.Millisecond
	}
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	if c.cfg.Retry.Jitter {
		b.RandomizationFactor = 0.5
	}
	return b
}

func retryable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// A missing account is an answer, not a transient failure.
	if errors.Is(err, solanarpc.ErrNotFound) {
		return false
	}
	return true
}
