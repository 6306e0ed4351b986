// Package jito submits tipped transactions through the Jito Block Engine and
// exposes the block engine's tip accounts.
//
// A transaction sent here is wrapped in a single-transaction bundle; the
// tip transfer appended by package tip is what pays the block engine.
//
// For more information, see: https://github.com/jito-labs/jito-go-rpc
package jito

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"github.com/rs/zerolog"
)

// Default Jito Block Engine endpoints
const (
	MainnetBlockEngine = "https://mainnet.block-engine.jito.wtf/api/v1"
	TestnetBlockEngine = "https://testnet.block-engine.jito.wtf/api/v1"
)

// MainnetBlockEngines contains regional mainnet endpoints used for rotation.
var MainnetBlockEngines = []string{
	"https://mainnet.block-engine.jito.wtf/api/v1",
	"https://amsterdam.mainnet.block-engine.jito.wtf/api/v1",
	"https://frankfurt.mainnet.block-engine.jito.wtf/api/v1",
	"https://ny.mainnet.block-engine.jito.wtf/api/v1",
	"https://tokyo.mainnet.block-engine.jito.wtf/api/v1",
}

// MainnetTipAccounts are the published Jito tip accounts.
var MainnetTipAccounts = []solana.PublicKey{
	solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
	solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
	solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
	solana.MustPublicKeyFromBase58("ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49"),
	solana.MustPublicKeyFromBase58("DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh"),
	solana.MustPublicKeyFromBase58("ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt"),
	solana.MustPublicKeyFromBase58("DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL"),
	solana.MustPublicKeyFromBase58("3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT"),
}

// GetRandomTipAccountLocal returns a random tip account without any network call.
func GetRandomTipAccountLocal() solana.PublicKey {
	return MainnetTipAccounts[rand.Intn(len(MainnetTipAccounts))]
}

// IsTipAccount reports whether pk is one of MainnetTipAccounts.
func IsTipAccount(pk solana.PublicKey) bool {
	for _, acc := range MainnetTipAccounts {
		if acc.Equals(pk) {
			return true
		}
	}
	return false
}

// Client wraps the Jito RPC client with endpoint rotation on rate limiting.
type Client struct {
	endpoints    []string
	uuid         string
	currentIndex uint32
	maxRetries   int
	retryDelay   time.Duration
	log          zerolog.Logger
}

// NewClient creates a client for a single endpoint. uuid may be empty.
func NewClient(endpoint string, uuid string) *Client {
	if endpoint == "" {
		endpoint = MainnetBlockEngine
	}
	return NewClientWithEndpoints([]string{endpoint}, uuid)
}

// NewClientWithEndpoints creates a client that rotates over endpoints.
//
// Example:
//
//	client := jito.NewClientWithEndpoints(jito.MainnetBlockEngines, "")
func NewClientWithEndpoints(endpoints []string, uuid string) *Client {
	if len(endpoints) == 0 {
		endpoints = MainnetBlockEngines
	}
	return &Client{
		endpoints:  endpoints,
		uuid:       uuid,
		maxRetries: len(endpoints) + 2,
		retryDelay: 100 * time.Millisecond,
		log:        zerolog.Nop(),
	}
}

// WithRetries configures the number of rate-limit retries and the delay between them.
func (c *Client) WithRetries(maxRetries int, retryDelay time.Duration) *Client {
	c.maxRetries = maxRetries
	c.retryDelay = retryDelay
	return c
}

// WithLogger attaches a logger.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log
	return c
}

func (c *Client) nextClient() (*jitorpc.JitoJsonRpcClient, string) {
	idx := atomic.AddUint32(&c.currentIndex, 1)
	endpoint := c.endpoints[int(idx)%len(c.endpoints)]
	return jitorpc.NewJitoJsonRpcClient(endpoint, c.uuid), endpoint
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "congested") ||
		strings.Contains(errStr, "429")
}

// rotate runs fn against successive endpoints while it fails with rate limiting.
func rotate[T any](ctx context.Context, c *Client, op string, fn func(*jitorpc.JitoJsonRpcClient) (T, error)) (T, error) {
	var zero T
	var lastErr error
	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		client, endpoint := c.nextClient()
		out, err := fn(client)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRateLimitError(err) {
			return zero, fmt.Errorf("jito %s: %w", op, err)
		}
		c.log.Debug().Str("op", op).Str("endpoint", endpoint).Int("attempt", i+1).Err(err).Msg("jito rate limited, rotating endpoint")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return zero, fmt.Errorf("jito %s failed after %d retries: %w", op, attempts, lastErr)
}

// GetTipAccounts fetches the current tip accounts from the block engine.
func (c *Client) GetTipAccounts(ctx context.Context) ([]solana.PublicKey, error) {
	raw, err := rotate(ctx, c, "get tip accounts", func(cl *jitorpc.JitoJsonRpcClient) (json.RawMessage, error) {
		return cl.GetTipAccounts()
	})
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("unmarshal tip accounts: %w", err)
	}
	result := make([]solana.PublicKey, 0, len(accounts))
	for _, acc := range accounts {
		pk, err := solana.PublicKeyFromBase58(acc)
		if err != nil {
			continue
		}
		result = append(result, pk)
	}
	return result, nil
}

// SendResult contains the result of sending a transaction via Jito.
type SendResult struct {
	Signature solana.Signature
	BundleID  string
}

// SendTransaction sends a signed transaction as a single-transaction bundle
// and returns its first signature. It satisfies txbuilder.Submitter.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	result, err := c.SendTransactionWithBundleID(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	return result.Signature, nil
}

// SendTransactionWithBundleID sends a transaction and returns both signature and bundle ID.
func (c *Client) SendTransactionWithBundleID(ctx context.Context, tx *solana.Transaction) (SendResult, error) {
	if tx == nil || len(tx.Signatures) == 0 {
		return SendResult{}, errors.New("jito send transaction: transaction is not signed")
	}
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return SendResult{}, fmt.Errorf("marshal transaction: %w", err)
	}
	txBase64 := base64.StdEncoding.EncodeToString(txBytes)

	raw, err := rotate(ctx, c, "send bundle", func(cl *jitorpc.JitoJsonRpcClient) (json.RawMessage, error) {
		return cl.SendBundle([][]string{{txBase64}})
	})
	if err != nil {
		return SendResult{}, err
	}
	var bundleID string
	if err := json.Unmarshal(raw, &bundleID); err != nil {
		return SendResult{}, fmt.Errorf("unmarshal bundle response: %w", err)
	}
	c.log.Debug().Str("bundle_id", bundleID).Str("signature", tx.Signatures[0].String()).Msg("bundle accepted")
	return SendResult{Signature: tx.Signatures[0], BundleID: bundleID}, nil
}

// GetBundleStatuses returns the statuses of submitted bundles.
func (c *Client) GetBundleStatuses(ctx context.Context, bundleIDs []string) (*jitorpc.BundleStatusResponse, error) {
	return rotate(ctx, c, "get bundle statuses", func(cl *jitorpc.JitoJsonRpcClient) (*jitorpc.BundleStatusResponse, error) {
		return cl.GetBundleStatuses(bundleIDs)
	})
}

// WaitForBundleConfirmation polls bundle status until confirmed, failed, or ctx is done.
func (c *Client) WaitForBundleConfirmation(ctx context.Context, bundleID string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			statuses, err := c.GetBundleStatuses(ctx, []string{bundleID})
			if err != nil || statuses == nil || len(statuses.Value) == 0 {
				continue
			}
			status := statuses.Value[0]
			switch status.ConfirmationStatus {
			case "confirmed", "finalized":
				return nil
			}
			if status.Err.Ok == nil {
				return fmt.Errorf("bundle failed: %v", status.Err)
			}
		}
	}
}
