// Package tip appends the fixed priority tip that the sender endpoint
// requires in front of the leader. The tip is a plain system transfer and
// must be the final instruction of the transaction.
package tip

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog"

	"github.com/ninja0404/tipsend-go/pkg/constants"
	"github.com/ninja0404/tipsend-go/pkg/jito"
)

// Tip describes whether and how much to tip, and to whom.
type Tip struct {
	Enabled  bool
	Lamports uint64
	Account  solana.PublicKey
}

// Default returns an enabled tip of constants.DefaultTipLamports to constants.DefaultTipAccount.
func Default() Tip {
	return Tip{
		Enabled:  true,
		Lamports: constants.DefaultTipLamports,
		Account:  constants.DefaultTipAccount,
	}
}

// Disabled returns a tip that never attaches.
func Disabled() Tip {
	return Tip{}
}

// WithRandomAccount returns t with its account replaced by a random Jito tip account.
func (t Tip) WithRandomAccount() Tip {
	t.Account = jito.GetRandomTipAccountLocal()
	return t
}

// Active reports whether Attach will append an instruction.
func (t Tip) Active() bool {
	return t.Enabled && t.Lamports > 0 && !t.Account.IsZero()
}

// Cost returns the lamports the tip adds to a transaction.
func (t Tip) Cost() uint64 {
	if !t.Active() {
		return 0
	}
	return t.Lamports
}

// Instruction builds the tip transfer from payer.
func (t Tip) Instruction(payer solana.PublicKey) solana.Instruction {
	return system.NewTransferInstruction(t.Lamports, payer, t.Account).Build()
}

// Attach appends the tip transfer to instrs when the tip is active. It never fails.
func (t Tip) Attach(log zerolog.Logger, instrs []solana.Instruction, payer solana.PublicKey) []solana.Instruction {
	if !t.Active() {
		log.Debug().Msg("tip disabled, sending without tip instruction")
		return instrs
	}
	log.Debug().
		Uint64("lamports", t.Lamports).
		Str("account", t.Account.String()).
		Msg("tip attached")
	return append(instrs, t.Instruction(payer))
}

// IsTip reports whether ix is a transfer of exactly t.Lamports to t.Account.
func (t Tip) IsTip(ix solana.Instruction) bool {
	if ix == nil || !ix.ProgramID().Equals(solana.SystemProgramID) {
		return false
	}
	accounts := ix.Accounts()
	if len(accounts) != 2 || !accounts[1].PublicKey.Equals(t.Account) {
		return false
	}
	data, err := ix.Data()
	if err != nil {
		return false
	}
	lamports, ok := decodeTransfer(data)
	return ok && lamports == t.Lamports
}

// decodeTransfer reads a system Transfer payload: u32 LE index 2 + u64 LE lamports.
func decodeTransfer(data []byte) (uint64, bool) {
	if len(data) != 12 {
		return 0, false
	}
	dec := bin.NewBinDecoder(data)
	kind, err := dec.ReadUint32(bin.LE)
	if err != nil || kind != system.Instruction_Transfer {
		return 0, false
	}
	lamports, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return 0, false
	}
	return lamports, true
}
