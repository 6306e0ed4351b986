// Package computebudget builds the compute budget directives that open every
// transaction and estimates the fee they imply.
package computebudget

import (
	"fmt"
	"math"
	"math/bits"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	cb "github.com/gagliardetto/solana-go/programs/compute-budget"

	"github.com/ninja0404/tipsend-go/pkg/constants"
)

// Instruction discriminators of the compute budget program.
const (
	InstructionSetComputeUnitLimit uint8 = 2
	InstructionSetComputeUnitPrice uint8 = 3
)

const microLamportsPerLamport = 1_000_000

// Config holds the locally chosen unit limit and price.
type Config struct {
	UnitLimit uint32
	UnitPrice uint64 // micro-lamports per compute unit
}

// DefaultConfig returns the process-wide defaults.
func DefaultConfig() Config {
	return Config{
		UnitLimit: constants.DefaultComputeUnitLimit,
		UnitPrice: constants.DefaultComputeUnitPrice,
	}
}

// Instructions returns [SetComputeUnitLimit, SetComputeUnitPrice].
// Both are always emitted so the pair occupies the first two slots.
func (c Config) Instructions() []solana.Instruction {
	limit := c.UnitLimit
	if limit == 0 {
		limit = constants.DefaultComputeUnitLimit
	}
	return []solana.Instruction{
		cb.NewSetComputeUnitLimitInstruction(limit).Build(),
		cb.NewSetComputeUnitPriceInstruction(c.UnitPrice).Build(),
	}
}

// PriorityFee returns ceil(limit * price / 1e6) lamports, saturating at
// math.MaxUint64.
func (c Config) PriorityFee() uint64 {
	limit := uint64(c.UnitLimit)
	if limit == 0 {
		limit = uint64(constants.DefaultComputeUnitLimit)
	}
	hi, lo := bits.Mul64(limit, c.UnitPrice)
	if hi >= microLamportsPerLamport {
		return math.MaxUint64
	}
	fee, rem := bits.Div64(hi, lo, microLamportsPerLamport)
	if rem != 0 {
		if fee == math.MaxUint64 {
			return fee
		}
		fee++
	}
	return fee
}

// EstimateFee returns the base signature fee plus the priority fee,
// saturating at math.MaxUint64.
func (c Config) EstimateFee(signatures int) uint64 {
	if signatures < 1 {
		signatures = 1
	}
	base := uint64(signatures) * constants.BaseFeeLamports
	sum, carry := bits.Add64(base, c.PriorityFee(), 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// IsComputeBudget reports whether ix targets the compute budget program.
func IsComputeBudget(ix solana.Instruction) bool {
	return ix != nil && ix.ProgramID().Equals(constants.ComputeBudgetProgramID)
}

// Strip removes compute budget instructions from instrs.
func Strip(instrs []solana.Instruction) []solana.Instruction {
	out := make([]solana.Instruction, 0, len(instrs))
	for _, ix := range instrs {
		if IsComputeBudget(ix) {
			continue
		}
		out = append(out, ix)
	}
	return out
}

// ParseUnitLimit decodes a SetComputeUnitLimit payload.
func ParseUnitLimit(data []byte) (uint32, error) {
	if len(data) != 5 || data[0] != InstructionSetComputeUnitLimit {
		return 0, fmt.Errorf("not a set compute unit limit payload: %x", data)
	}
	return bin.NewBinDecoder(data[1:]).ReadUint32(bin.LE)
}

// ParseUnitPrice decodes a SetComputeUnitPrice payload.
func ParseUnitPrice(data []byte) (uint64, error) {
	if len(data) != 9 || data[0] != InstructionSetComputeUnitPrice {
		return 0, fmt.Errorf("not a set compute unit price payload: %x", data)
	}
	return bin.NewBinDecoder(data[1:]).ReadUint64(bin.LE)
}
