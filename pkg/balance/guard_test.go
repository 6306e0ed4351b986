package balance

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/tipsend-go/pkg/tip"
)

type staticReader struct {
	balance uint64
	err     error
	calls   int
}

func (r *staticReader) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	r.calls++
	return r.balance, r.err
}

func TestEvaluateSufficiencyRule(t *testing.T) {
	const tipAmount = uint64(1_000_000)
	cases := []struct {
		balance, base uint64
		tipEnabled    bool
	}{
		{0, 0, false},
		{0, 0, true},
		{10_000_000, 1_005_000, false},
		{10_000_000, 1_005_000, true},
		{2_005_000, 1_005_000, true},
		{2_004_999, 1_005_000, true},
		{1_005_000, 1_005_000, false},
		{1_004_999, 1_005_000, false},
		{math.MaxUint64, math.MaxUint64, true},
	}
	for _, tc := range cases {
		tp := tip.Tip{Enabled: tc.tipEnabled, Lamports: tipAmount, Account: solana.NewWallet().PublicKey()}
		g := New(tp, zerolog.Nop())
		r := g.Evaluate(tc.balance, tc.base)

		var want uint64 = tc.base
		if tc.tipEnabled {
			want += tipAmount
			if want < tc.base {
				want = math.MaxUint64
			}
		}
		assert.Equal(t, want, r.Required)
		assert.Equal(t, tc.balance >= want, r.Sufficient, "balance=%d base=%d tip=%v", tc.balance, tc.base, tc.tipEnabled)
		if r.Sufficient {
			assert.Equal(t, tc.balance-want, r.Remaining)
			assert.Zero(t, r.Shortfall)
		} else {
			assert.Equal(t, want-tc.balance, r.Shortfall)
			assert.Zero(t, r.Remaining)
		}
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	reader := &staticReader{balance: 3_000_000}
	g := New(tip.Default(), zerolog.Nop())
	payer := solana.NewWallet().PublicKey()

	first, err := g.Check(context.Background(), reader, payer, 1_005_000)
	require.NoError(t, err)
	second, err := g.Check(context.Background(), reader, payer, 1_005_000)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(3_000_000), reader.balance)
	assert.Equal(t, 2, reader.calls)
}

func TestCheckPropagatesReadError(t *testing.T) {
	reader := &staticReader{err: errors.New("boom")}
	_, err := New(tip.Disabled(), zerolog.Nop()).Check(context.Background(), reader, solana.NewWallet().PublicKey(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestEvaluateLogsReport(t *testing.T) {
	var buf bytes.Buffer
	g := New(tip.Disabled(), zerolog.New(&buf))

	g.Evaluate(10_000_000, 1_005_000)
	assert.Contains(t, buf.String(), "balance sufficient")
	assert.Contains(t, buf.String(), "0.008995000 SOL")

	buf.Reset()
	g.Evaluate(1_000, 1_005_000)
	assert.Contains(t, buf.String(), "balance insufficient")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestFormatSOL(t *testing.T) {
	assert.Equal(t, "1.500000000 SOL", FormatSOL(1_500_000_000))
	assert.Equal(t, "0.000005000 SOL", FormatSOL(5_000))
}
