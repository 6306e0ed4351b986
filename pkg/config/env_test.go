package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/tipsend-go/pkg/constants"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(KeySenderRPCURL, "https://sender.example.com/fast")
	t.Setenv(KeyBasicRPCURL, "https://rpc.example.com")
	t.Setenv(KeyWalletPath, "/tmp/id.json")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://sender.example.com/fast", cfg.SenderRPCURL)
	assert.Equal(t, "https://rpc.example.com", cfg.BasicRPCURL)
	assert.Equal(t, "/tmp/id.json", cfg.WalletPath)
	assert.True(t, cfg.TipEnabled)
	assert.Equal(t, constants.DefaultTipLamports, cfg.TipLamports)
	assert.Equal(t, constants.DefaultTipAccount, cfg.TipAccount)
	assert.Equal(t, constants.DefaultComputeUnitLimit, cfg.ComputeUnitLimit)
	assert.Equal(t, constants.DefaultComputeUnitPrice, cfg.ComputeUnitPrice)
	assert.Equal(t, DefaultJupiterURL, cfg.JupiterURL)
	assert.True(t, cfg.DefaultRecipient.IsZero())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyTipEnabled, "false")
	t.Setenv(KeyTipLamports, "2500000")
	t.Setenv(KeyComputeUnitPrice, "0")
	t.Setenv(KeyDefaultRecipient, "HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe")
	t.Setenv(KeyJupiterURL, "https://quote.example.com/v6/")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.TipEnabled)
	assert.Equal(t, uint64(2_500_000), cfg.TipLamports)
	assert.Equal(t, uint64(0), cfg.ComputeUnitPrice)
	assert.Equal(t, "HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe", cfg.DefaultRecipient.String())
	assert.Equal(t, "https://quote.example.com/v6", cfg.JupiterURL)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv(KeySenderRPCURL, "")
	t.Setenv(KeyBasicRPCURL, "")
	t.Setenv(KeyWalletPath, "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeySenderRPCURL)
	assert.Contains(t, err.Error(), KeyBasicRPCURL)
	assert.Contains(t, err.Error(), KeyWalletPath)
}

func TestLoadInvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv(KeySenderRPCURL, "ftp://sender.example.com")
	t.Setenv(KeyDefaultRecipient, "not-a-key")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeySenderRPCURL)
	assert.Contains(t, err.Error(), KeyDefaultRecipient)
}

func TestLoadRejectsComputeBudgetOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyComputeUnitLimit, "1400001")
	t.Setenv(KeyComputeUnitPrice, "17592186044416")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyComputeUnitLimit)
	assert.Contains(t, err.Error(), KeyComputeUnitPrice)
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(KeySenderRPCURL, "")
	t.Setenv(KeyBasicRPCURL, "")
	t.Setenv(KeyWalletPath, "")

	path := filepath.Join(t.TempDir(), "tipsend.env")
	content := "SENDER_RPC_URL=https://sender.example.com\n" +
		"BASIC_RPC_URL=https://rpc.example.com\n" +
		"WALLET_PATH=/keys/payer.json\n" +
		"TIP_ENABLED=false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://sender.example.com", cfg.SenderRPCURL)
	assert.Equal(t, "/keys/payer.json", cfg.WalletPath)
	assert.False(t, cfg.TipEnabled)
}

func TestLoadEnvFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
}

func TestRPCConfigs(t *testing.T) {
	cfg := Config{SenderRPCURL: "https://a.example.com", BasicRPCURL: "https://b.example.com"}
	sender, basic := cfg.RPCConfigs(DefaultRPCConfig())
	assert.Equal(t, "https://a.example.com", sender.Endpoint())
	assert.Equal(t, "https://b.example.com", basic.Endpoint())
	assert.Equal(t, RoleSender, sender.Role)
	assert.Equal(t, RoleBasic, basic.Role)
	assert.Equal(t, "confirmed", basic.Commitment)
}

func TestRPCConfigEndpointFallback(t *testing.T) {
	assert.Equal(t, FallbackRPCURL, DefaultRPCConfig().Endpoint())
}
