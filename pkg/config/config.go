package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Endpoint roles. The sender endpoint only accepts transactions; every read
// goes to the basic endpoint.
const (
	RoleSender = "sender"
	RoleBasic  = "basic"
)

// FallbackRPCURL is used when an RPCConfig carries no URL.
const FallbackRPCURL = "https://api.mainnet-beta.solana.com"

// RetryConfig controls retries of read calls. Submissions are never retried
// at this layer.
type RetryConfig struct {
	Enabled        bool
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Jitter         bool
}

// RateLimitConfig throttles outbound calls to one endpoint.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// RPCConfig holds the client settings of one named endpoint.
type RPCConfig struct {
	Role       string
	URL        string
	Commitment string
	Timeout    time.Duration
	Retry      RetryConfig
	RateLimit  RateLimitConfig
	Logger     zerolog.Logger
}

// DefaultRPCConfig returns client defaults: confirmed commitment, 20s
// timeout, three read attempts and 8 requests per second.
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		Commitment: "confirmed",
		Timeout:    20 * time.Second,
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 150 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Jitter:         true,
		},
		RateLimit: RateLimitConfig{
			RPS:   8,
			Burst: 16,
		},
		Logger: zerolog.New(io.Discard),
	}
}

// ForEndpoint returns a copy of c for the endpoint at url playing role.
func (c RPCConfig) ForEndpoint(role, url string) RPCConfig {
	c.Role = role
	c.URL = url
	return c
}

// Endpoint returns URL, or FallbackRPCURL when it is empty.
func (c RPCConfig) Endpoint() string {
	if c.URL != "" {
		return c.URL
	}
	return FallbackRPCURL
}
