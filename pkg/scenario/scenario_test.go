package scenario

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/tipsend-go/pkg/compose"
	"github.com/ninja0404/tipsend-go/pkg/computebudget"
	"github.com/ninja0404/tipsend-go/pkg/constants"
	"github.com/ninja0404/tipsend-go/pkg/jupiter"
	"github.com/ninja0404/tipsend-go/pkg/tip"
	"github.com/ninja0404/tipsend-go/pkg/wallet"
)

const testRent = 2_039_280

var usdc = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

type fakeChain struct {
	balance        uint64
	balanceErr     error
	accounts       map[solana.PublicKey]*solanarpc.Account
	status         *solanarpc.SignatureStatusesResult
	blockhashCalls int
	statusCalls    int
}

func newFakeChain(balance uint64) *fakeChain {
	return &fakeChain{
		balance:  balance,
		accounts: map[solana.PublicKey]*solanarpc.Account{},
		status:   &solanarpc.SignatureStatusesResult{ConfirmationStatus: solanarpc.ConfirmationStatusConfirmed},
	}
}

func (f *fakeChain) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeChain) GetMultipleAccounts(ctx context.Context, addrs ...solana.PublicKey) ([]*solanarpc.Account, error) {
	out := make([]*solanarpc.Account, len(addrs))
	for i, a := range addrs {
		out[i] = f.accounts[a]
	}
	return out, nil
}

func (f *fakeChain) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return testRent, nil
}

func (f *fakeChain) GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error) {
	f.blockhashCalls++
	return &solanarpc.GetLatestBlockhashResult{
		Value: &solanarpc.LatestBlockhashResult{Blockhash: solana.Hash(usdc), LastValidBlockHeight: 1},
	}, nil
}

func (f *fakeChain) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*solanarpc.SignatureStatusesResult, error) {
	f.statusCalls++
	return f.status, nil
}

func (f *fakeChain) put(key, owner solana.PublicKey, data []byte) {
	f.accounts[key] = &solanarpc.Account{Owner: owner, Lamports: 1, Data: solanarpc.DataBytesOrJSONFromBytes(data)}
}

type fakeSubmitter struct {
	fail  bool
	calls int
	txs   []*solana.Transaction
}

func (f *fakeSubmitter) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.calls++
	f.txs = append(f.txs, tx)
	if f.fail {
		return solana.Signature{}, errors.New("sender unavailable")
	}
	return tx.Signatures[0], nil
}

type fakeSimulator struct{ calls int }

func (f *fakeSimulator) SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *solanarpc.SimulateTransactionOpts) (*solanarpc.SimulateTransactionResponse, error) {
	f.calls++
	return &solanarpc.SimulateTransactionResponse{Value: &solanarpc.SimulateTransactionResult{Logs: []string{"Program log: ok"}}}, nil
}

type rateLimitedAggregator struct{ calls int }

func (a *rateLimitedAggregator) Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error) {
	a.calls++
	return nil, &jupiter.APIError{StatusCode: 429, Body: `{"error":"Too many requests"}`}
}

func (a *rateLimitedAggregator) SwapInstructions(ctx context.Context, quote *jupiter.Quote, user solana.PublicKey) (*jupiter.SwapInstructions, error) {
	a.calls++
	return nil, errors.New("unexpected call")
}

func newSigner(t *testing.T) wallet.Local {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return wallet.NewLocalFromPrivateKey(key)
}

func baseOptions(t *testing.T, chain *fakeChain, sub *fakeSubmitter, tp tip.Tip, log zerolog.Logger) Options {
	t.Helper()
	return Options{
		Chain:          chain,
		Submitter:      sub,
		Endpoint:       "sender",
		Signer:         newSigner(t),
		Budget:         computebudget.Config{UnitLimit: constants.DefaultComputeUnitLimit},
		Tip:            tp,
		PollInterval:   time.Millisecond,
		ConfirmTimeout: time.Second,
		Log:            log,
	}
}

func newRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	r, err := NewRunner(opts)
	require.NoError(t, err)
	return r
}

func TestNativeTransferEndToEnd(t *testing.T) {
	chain := newFakeChain(10_000_000)
	sub := &fakeSubmitter{}
	r := newRunner(t, baseOptions(t, chain, sub, tip.Disabled(), zerolog.Nop()))

	res, err := r.NativeTransfer(t.Context(), solana.NewWallet().PublicKey(), 1_000_000)
	require.NoError(t, err)

	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.True(t, res.Succeeded())
	assert.True(t, res.Report.Sufficient)
	assert.Equal(t, uint64(1_005_000), res.Report.Required)
	assert.Equal(t, uint64(0), res.Report.TipCost)
	assert.Equal(t, 1, sub.calls)
	assert.NotEqual(t, solana.Signature{}, res.Signature)

	require.Len(t, sub.txs[0].Message.Instructions, 3)
	last := sub.txs[0].Message.Instructions[2]
	assert.Equal(t, solana.SystemProgramID, sub.txs[0].Message.AccountKeys[last.ProgramIDIndex])
	assert.GreaterOrEqual(t, chain.statusCalls, 1)
}

func TestNativeTransferWithTipAppendsTipLast(t *testing.T) {
	chain := newFakeChain(10_000_000)
	sub := &fakeSubmitter{}
	r := newRunner(t, baseOptions(t, chain, sub, tip.Default(), zerolog.Nop()))

	res, err := r.NativeTransfer(t.Context(), solana.NewWallet().PublicKey(), 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_005_000), res.Report.Required)
	require.Len(t, res.Plan.Instructions, 4)
	assert.True(t, tip.Default().IsTip(res.Plan.Instructions[3]))
}

func mintData(decimals uint8) []byte {
	data := make([]byte, 82)
	data[44] = decimals
	data[45] = 1
	return data
}

func tokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, 165)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:], amount)
	data[108] = 1
	return data
}

func TestTokenTransferMissingRecipientEndToEnd(t *testing.T) {
	chain := newFakeChain(50_000_000)
	sub := &fakeSubmitter{}
	opts := baseOptions(t, chain, sub, tip.Default(), zerolog.Nop())
	r := newRunner(t, opts)

	senderATA, err := compose.FindATA(r.Payer(), usdc, constants.TokenProgramID)
	require.NoError(t, err)
	chain.put(usdc, constants.TokenProgramID, mintData(6))
	chain.put(senderATA, constants.TokenProgramID, tokenAccountData(usdc, r.Payer(), 10_000_000))

	recipient := solana.NewWallet().PublicKey()
	res, err := r.TokenTransfer(t.Context(), recipient, usdc, "1.25")
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, res.Outcome)

	fee := opts.Budget.EstimateFee(1)
	assert.True(t, res.Plan.CreatesRecipientAccount)
	assert.Equal(t, fee+testRent, res.Report.BaseCost)
	assert.Equal(t, fee+testRent+constants.DefaultTipLamports, res.Report.Required)

	require.Len(t, res.Plan.Instructions, 5)
	assert.Equal(t, constants.AssociatedTokenProgramID, res.Plan.Instructions[2].ProgramID())
	assert.Equal(t, constants.TokenProgramID, res.Plan.Instructions[3].ProgramID())
	assert.True(t, tip.Default().IsTip(res.Plan.Instructions[4]))

	tx := sub.txs[0]
	require.Len(t, tx.Message.Instructions, 5)
	create := tx.Message.AccountKeys[tx.Message.Instructions[2].ProgramIDIndex]
	transfer := tx.Message.AccountKeys[tx.Message.Instructions[3].ProgramIDIndex]
	assert.Equal(t, constants.AssociatedTokenProgramID, create)
	assert.Equal(t, constants.TokenProgramID, transfer)
}

func TestTokenTransferWithoutSenderAccountAborts(t *testing.T) {
	chain := newFakeChain(50_000_000)
	chain.put(usdc, constants.TokenProgramID, mintData(6))
	sub := &fakeSubmitter{}
	r := newRunner(t, baseOptions(t, chain, sub, tip.Default(), zerolog.Nop()))

	res, err := r.TokenTransfer(t.Context(), solana.NewWallet().PublicKey(), usdc, "1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Contains(t, res.Reason, "no token account")
	assert.Zero(t, chain.blockhashCalls)
	assert.Zero(t, sub.calls)
}

func TestSwapRateLimitedAborts(t *testing.T) {
	var buf bytes.Buffer
	chain := newFakeChain(50_000_000)
	sub := &fakeSubmitter{}
	agg := &rateLimitedAggregator{}
	opts := baseOptions(t, chain, sub, tip.Default(), zerolog.New(&buf))
	opts.Aggregator = agg
	r := newRunner(t, opts)

	res, err := r.Swap(t.Context(), constants.WSOLMint, usdc, 1_000_000, 50)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Contains(t, res.Reason, "rate limited")
	assert.Equal(t, 1, agg.calls)
	assert.Zero(t, chain.blockhashCalls)
	assert.Zero(t, sub.calls)
	assert.Contains(t, buf.String(), "rate limited")
	assert.Contains(t, buf.String(), "operation aborted")
}

func TestInsufficientBalanceAborts(t *testing.T) {
	chain := newFakeChain(1_500_000)
	sub := &fakeSubmitter{}
	r := newRunner(t, baseOptions(t, chain, sub, tip.Default(), zerolog.Nop()))

	res, err := r.NativeTransfer(t.Context(), solana.NewWallet().PublicKey(), 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.False(t, res.Report.Sufficient)
	assert.Equal(t, uint64(505_000), res.Report.Shortfall)
	assert.Contains(t, res.Reason, "insufficient balance")
	assert.Zero(t, chain.blockhashCalls)
	assert.Zero(t, sub.calls)
}

func TestSubmissionFailureIsNotSubmitted(t *testing.T) {
	chain := newFakeChain(10_000_000)
	sub := &fakeSubmitter{fail: true}
	opts := baseOptions(t, chain, sub, tip.Disabled(), zerolog.Nop())
	opts.MaxAttempts = 2
	r := newRunner(t, opts)

	res, err := r.NativeTransfer(t.Context(), solana.NewWallet().PublicKey(), 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotSubmitted, res.Outcome)
	assert.Equal(t, 2, sub.calls)
	assert.Zero(t, chain.statusCalls)
}

func TestUnresolvedStatusTimesOut(t *testing.T) {
	chain := newFakeChain(10_000_000)
	chain.status = nil
	opts := baseOptions(t, chain, &fakeSubmitter{}, tip.Disabled(), zerolog.Nop())
	opts.ConfirmTimeout = 20 * time.Millisecond
	r := newRunner(t, opts)

	res, err := r.NativeTransfer(t.Context(), solana.NewWallet().PublicKey(), 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.False(t, res.Succeeded())
}

func TestFailedTransaction(t *testing.T) {
	chain := newFakeChain(10_000_000)
	chain.status = &solanarpc.SignatureStatusesResult{Err: map[string]any{"InstructionError": []any{2, "Custom"}}}
	r := newRunner(t, baseOptions(t, chain, &fakeSubmitter{}, tip.Disabled(), zerolog.Nop()))

	res, err := r.NativeTransfer(t.Context(), solana.NewWallet().PublicKey(), 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestDryRunSimulates(t *testing.T) {
	chain := newFakeChain(10_000_000)
	sim := &fakeSimulator{}
	opts := baseOptions(t, chain, nil, tip.Default(), zerolog.Nop())
	opts.Submitter = nil
	opts.DryRun = true
	opts.Simulator = sim
	r := newRunner(t, opts)

	res, err := r.NativeTransfer(t.Context(), solana.NewWallet().PublicKey(), 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSimulated, res.Outcome)
	assert.Equal(t, 1, sim.calls)
	require.NotNil(t, res.Simulation)
	assert.Zero(t, chain.statusCalls)
}

func TestBalanceQueryFailureIsAnError(t *testing.T) {
	chain := newFakeChain(0)
	chain.balanceErr = errors.New("connection refused")
	r := newRunner(t, baseOptions(t, chain, &fakeSubmitter{}, tip.Default(), zerolog.Nop()))

	_, err := r.NativeTransfer(t.Context(), solana.NewWallet().PublicKey(), 1_000_000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewRunnerValidates(t *testing.T) {
	_, err := NewRunner(Options{})
	require.Error(t, err)

	_, err = NewRunner(Options{Chain: newFakeChain(0), Signer: newSigner(t)})
	require.Error(t, err)

	_, err = NewRunner(Options{Chain: newFakeChain(0), Signer: newSigner(t), DryRun: true})
	require.Error(t, err)
}
