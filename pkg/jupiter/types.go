package jupiter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrRateLimited = errors.New("aggregator rate limited")
	ErrBadRequest  = errors.New("aggregator rejected request")
	ErrNoRoute     = errors.New("aggregator returned no route")
)

// APIError is a non-2xx answer from the aggregator.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aggregator http %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case 429:
		return ErrRateLimited
	case 400:
		return ErrBadRequest
	}
	return nil
}

// QuoteRequest selects a route.
type QuoteRequest struct {
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	Amount      uint64 // raw units of InputMint
	SlippageBps uint64
}

// Quote is the aggregator's route. Raw keeps the exact document so it can be
// echoed back when requesting swap instructions.
type Quote struct {
	InputMint            string `json:"inputMint"`
	OutputMint           string `json:"outputMint"`
	InAmount             string `json:"inAmount"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SlippageBps          uint64 `json:"slippageBps"`
	PriceImpactPct       string `json:"priceImpactPct"`

	Raw json.RawMessage `json:"-"`
}

// AccountMeta as serialized by the aggregator.
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// Instruction as serialized by the aggregator. Data is base64.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"`
}

// ToSolana decodes the instruction into a solana-go instruction.
func (i Instruction) ToSolana() (solana.Instruction, error) {
	program, err := solana.PublicKeyFromBase58(i.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id %q: %w", i.ProgramID, err)
	}
	data, err := base64.StdEncoding.DecodeString(i.Data)
	if err != nil {
		return nil, fmt.Errorf("instruction data for %s: %w", i.ProgramID, err)
	}
	metas := make(solana.AccountMetaSlice, 0, len(i.Accounts))
	for _, a := range i.Accounts {
		pk, err := solana.PublicKeyFromBase58(a.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", a.Pubkey, err)
		}
		metas = append(metas, solana.NewAccountMeta(pk, a.IsWritable, a.IsSigner))
	}
	return solana.NewInstruction(program, metas, data), nil
}

// SwapInstructions is the response of the swap-instructions endpoint.
type SwapInstructions struct {
	ComputeBudgetInstructions   []Instruction `json:"computeBudgetInstructions"`
	SetupInstructions           []Instruction `json:"setupInstructions"`
	SwapInstruction             Instruction   `json:"swapInstruction"`
	CleanupInstruction          *Instruction  `json:"cleanupInstruction"`
	OtherInstructions           []Instruction `json:"otherInstructions"`
	AddressLookupTableAddresses []string      `json:"addressLookupTableAddresses"`
}

// Ordered returns setup, swap, cleanup and other instructions in execution
// order. Compute budget instructions are not included.
func (s SwapInstructions) Ordered() ([]solana.Instruction, error) {
	raw := make([]Instruction, 0, len(s.SetupInstructions)+len(s.OtherInstructions)+2)
	raw = append(raw, s.SetupInstructions...)
	raw = append(raw, s.SwapInstruction)
	if s.CleanupInstruction != nil {
		raw = append(raw, *s.CleanupInstruction)
	}
	raw = append(raw, s.OtherInstructions...)

	out := make([]solana.Instruction, 0, len(raw))
	for _, ix := range raw {
		decoded, err := ix.ToSolana()
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// LookupTables parses AddressLookupTableAddresses.
func (s SwapInstructions) LookupTables() ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, 0, len(s.AddressLookupTableAddresses))
	for _, a := range s.AddressLookupTableAddresses {
		pk, err := solana.PublicKeyFromBase58(a)
		if err != nil {
			return nil, fmt.Errorf("lookup table %q: %w", a, err)
		}
		out = append(out, pk)
	}
	return out, nil
}
