// Package jupiter is a minimal client for the Jupiter swap aggregator:
// one quote call and one swap-instructions call per swap.
package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public swap API.
const DefaultBaseURL = "https://lite-api.jup.ag/swap/v1"

// DefaultTimeout bounds one aggregator call.
const DefaultTimeout = 15 * time.Second

const maxErrorBody = 2048

// Client talks to the aggregator over HTTP.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

type options struct {
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sends requests through hc instead of a fresh client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// NewClient returns a client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	rc := resty.New()
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	}
	rc.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, log: o.log}
}

// Quote requests a route for req.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	var quote Quote
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{
			"inputMint":   req.InputMint.String(),
			"outputMint":  req.OutputMint.String(),
			"amount":      strconv.FormatUint(req.Amount, 10),
			"slippageBps": strconv.FormatUint(req.SlippageBps, 10),
		}).
		SetResult(&quote).
		Get("/quote")
	if err = c.check(resp, err); err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	if quote.OutAmount == "" || quote.OutAmount == "0" {
		return nil, ErrNoRoute
	}
	quote.Raw = append([]byte(nil), resp.Body()...)

	c.log.Debug().
		Str("in", quote.InAmount).
		Str("out", quote.OutAmount).
		Str("price_impact", quote.PriceImpactPct).
		Msg("quote received")
	return &quote, nil
}

type swapInstructionsRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

// SwapInstructions requests the instruction set executing quote for user.
func (c *Client) SwapInstructions(ctx context.Context, quote *Quote, user solana.PublicKey) (*SwapInstructions, error) {
	if quote == nil || len(quote.Raw) == 0 {
		return nil, fmt.Errorf("swap instructions: quote is empty")
	}
	var out SwapInstructions
	resp, err := c.request(ctx).
		SetBody(swapInstructionsRequest{
			QuoteResponse:    quote.Raw,
			UserPublicKey:    user.String(),
			WrapAndUnwrapSol: true,
		}).
		SetResult(&out).
		Post("/swap-instructions")
	if err = c.check(resp, err); err != nil {
		return nil, fmt.Errorf("swap instructions: %w", err)
	}
	if out.SwapInstruction.ProgramID == "" {
		return nil, fmt.Errorf("swap instructions: response has no swap instruction")
	}
	return &out, nil
}

// request starts a JSON request bound to ctx. Responses are decoded as JSON
// whatever content type the server reports.
func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		ForceContentType("application/json")
}

// check logs the call and maps non-2xx responses to *APIError.
func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	c.log.Debug().
		Str("method", resp.Request.Method).
		Str("url", resp.Request.URL).
		Int("status", resp.StatusCode()).
		Dur("took", resp.Time()).
		Msg("aggregator call")

	if !resp.IsSuccess() {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &APIError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(string(body))}
	}
	return nil
}
