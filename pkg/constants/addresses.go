package constants

import "github.com/gagliardetto/solana-go"

// Well-known program IDs
var (
	SystemProgramID          = solana.SystemProgramID
	TokenProgramID           = solana.TokenProgramID
	Token2022ProgramID       = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
	ComputeBudgetProgramID   = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	AddressLookupTableID     = solana.MustPublicKeyFromBase58("AddressLookupTab1e1111111111111111111111111")
)

// Mainnet well-known accounts
var (
	// WSOLMint is the native mint used by the aggregator for SOL legs.
	WSOLMint = solana.WrappedSol

	// DefaultTipAccount receives the tip when no account is configured.
	DefaultTipAccount = solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")
)

// Fee and budget defaults.
const (
	LamportsPerSOL = uint64(1_000_000_000)

	// DefaultTipLamports is the fixed tip added to every tipped transaction (0.001 SOL).
	DefaultTipLamports = uint64(1_000_000)

	// BaseFeeLamports is the network fee charged per required signature.
	BaseFeeLamports = uint64(5_000)

	DefaultComputeUnitLimit = uint32(200_000)
	DefaultComputeUnitPrice = uint64(100_000) // micro-lamports per unit

	// MaxComputeUnitLimit is the largest limit the runtime grants a transaction.
	MaxComputeUnitLimit = uint32(1_400_000)
	// MaxComputeUnitPrice caps the configured price at 1000 lamports per unit.
	MaxComputeUnitPrice = uint64(1_000_000_000)

	// TokenAccountSize is the data length of an SPL token account.
	TokenAccountSize = uint64(165)
)
