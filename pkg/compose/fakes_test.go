package compose

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"math"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/ninja0404/tipsend-go/pkg/constants"
	"github.com/ninja0404/tipsend-go/pkg/jupiter"
)

const testRent = 2_039_280

type fakeChain struct {
	accounts   map[solana.PublicKey]*solanarpc.Account
	batchCalls int
	rentCalls  int
	lastBatch  []solana.PublicKey
	err        error
}

func newFakeChain() *fakeChain {
	return &fakeChain{accounts: map[solana.PublicKey]*solanarpc.Account{}}
}

func (f *fakeChain) GetMultipleAccounts(ctx context.Context, addrs ...solana.PublicKey) ([]*solanarpc.Account, error) {
	f.batchCalls++
	f.lastBatch = addrs
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*solanarpc.Account, len(addrs))
	for i, a := range addrs {
		out[i] = f.accounts[a]
	}
	return out, nil
}

func (f *fakeChain) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	f.rentCalls++
	return testRent, nil
}

func (f *fakeChain) put(key, owner solana.PublicKey, data []byte) {
	f.accounts[key] = &solanarpc.Account{
		Owner:    owner,
		Lamports: 1,
		Data:     solanarpc.DataBytesOrJSONFromBytes(data),
	}
}

func mintData(decimals uint8) []byte {
	data := make([]byte, mintSize)
	data[mintDecimalsAt] = decimals
	data[mintDecimalsAt+1] = 1
	return data
}

func tokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, tokenAccountBase)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[tokenAmountAt:], amount)
	data[108] = 1
	return data
}

func lookupTableData(authority solana.PublicKey, addrs ...solana.PublicKey) []byte {
	data := make([]byte, 56, 56+32*len(addrs))
	binary.LittleEndian.PutUint32(data[0:], 1)
	binary.LittleEndian.PutUint64(data[4:], math.MaxUint64)
	data[21] = 1
	copy(data[22:54], authority[:])
	for _, a := range addrs {
		data = append(data, a[:]...)
	}
	return data
}

type fakeAggregator struct {
	quoteErr   error
	swapErr    error
	response   *jupiter.SwapInstructions
	quoteCalls int
	swapCalls  int
	lastQuote  jupiter.QuoteRequest
}

func (f *fakeAggregator) Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error) {
	f.quoteCalls++
	f.lastQuote = req
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &jupiter.Quote{InAmount: "1000000", OutAmount: "150000", PriceImpactPct: "0", Raw: []byte(`{}`)}, nil
}

func (f *fakeAggregator) SwapInstructions(ctx context.Context, quote *jupiter.Quote, user solana.PublicKey) (*jupiter.SwapInstructions, error) {
	f.swapCalls++
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	return f.response, nil
}

func wireInstruction(program solana.PublicKey, data []byte, accounts ...solana.PublicKey) jupiter.Instruction {
	metas := make([]jupiter.AccountMeta, 0, len(accounts))
	for _, a := range accounts {
		metas = append(metas, jupiter.AccountMeta{Pubkey: a.String(), IsWritable: true})
	}
	return jupiter.Instruction{
		ProgramID: program.String(),
		Accounts:  metas,
		Data:      base64.StdEncoding.EncodeToString(data),
	}
}

func budgetWire() jupiter.Instruction {
	return wireInstruction(constants.ComputeBudgetProgramID, []byte{2, 0x40, 0x0d, 0x03, 0x00})
}
