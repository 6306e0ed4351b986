package wallet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signer performs detached signatures for transaction messages.
type Signer interface {
	PublicKey() solana.PublicKey
	SignMessage(ctx context.Context, message []byte) (solana.Signature, error)
}

// Local wraps a local private key.
type Local struct {
	key solana.PrivateKey
}

// Load reads a solana-keygen JSON file holding the secret key as an array of
// 64 byte values. The public half must match the one derived from the seed.
func Load(path string) (Local, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return Local{}, err
	}
	return checked(key)
}

// Parse decodes keypair file content.
func Parse(content []byte) (Local, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFileBytes(content)
	if err != nil {
		return Local{}, err
	}
	return checked(key)
}

func checked(key solana.PrivateKey) (Local, error) {
	// PublicKey reads the stored half, so derive it from the seed instead.
	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
		return Local{}, fmt.Errorf("decode keypair: public key does not match secret seed")
	}
	return Local{key: key}, nil
}

// NewLocalFromBase58 constructs a local signer from base58-encoded key.
func NewLocalFromBase58(privateKey string) (Local, error) {
	key, err := solana.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return Local{}, fmt.Errorf("decode base58 key: %w", err)
	}
	return Local{key: key}, nil
}

// NewLocalFromPrivateKey constructs a local signer from existing private key.
func NewLocalFromPrivateKey(key solana.PrivateKey) Local {
	return Local{key: key}
}

// PublicKey returns the associated public key.
func (l Local) PublicKey() solana.PublicKey {
	return l.key.PublicKey()
}

// SignMessage signs the provided message bytes.
func (l Local) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	select {
	case <-ctx.Done():
		return solana.Signature{}, ctx.Err()
	default:
		sig, err := l.key.Sign(message)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("sign message: %w", err)
		}
		return sig, nil
	}
}
