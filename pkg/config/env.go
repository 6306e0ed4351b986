package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/ninja0404/tipsend-go/pkg/constants"
)

// Environment keys.
const (
	KeySenderRPCURL     = "SENDER_RPC_URL"
	KeyBasicRPCURL      = "BASIC_RPC_URL"
	KeyWalletPath       = "WALLET_PATH"
	KeyTipEnabled       = "TIP_ENABLED"
	KeyDefaultRecipient = "DEFAULT_RECIPIENT"
	KeyTipLamports      = "TIP_LAMPORTS"
	KeyTipAccount       = "TIP_ACCOUNT"
	KeyComputeUnitLimit = "COMPUTE_UNIT_LIMIT"
	KeyComputeUnitPrice = "COMPUTE_UNIT_PRICE"
	KeyJupiterURL       = "JUPITER_API_URL"
	KeyJitoURL          = "JITO_BLOCK_ENGINE_URL"
	KeyLogLevel         = "LOG_LEVEL"
)

const (
	DefaultJupiterURL = "https://lite-api.jup.ag/swap/v1"
	DefaultJitoURL    = "https://mainnet.block-engine.jito.wtf/api/v1"
)

// Config is the process-wide configuration. It is loaded once and passed by value.
type Config struct {
	SenderRPCURL     string
	BasicRPCURL      string
	WalletPath       string
	TipEnabled       bool
	DefaultRecipient solana.PublicKey

	TipLamports      uint64
	TipAccount       solana.PublicKey
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64

	JupiterURL string
	JitoURL    string
	LogLevel   string
}

// Load reads configuration from the environment and, when envFile is not
// empty, from a dotenv file. Environment variables win over the file.
// Every missing or malformed required value is reported in the returned error.
func Load(envFile string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault(KeyTipEnabled, true)
	v.SetDefault(KeyTipLamports, constants.DefaultTipLamports)
	v.SetDefault(KeyComputeUnitLimit, constants.DefaultComputeUnitLimit)
	v.SetDefault(KeyComputeUnitPrice, constants.DefaultComputeUnitPrice)
	v.SetDefault(KeyJupiterURL, DefaultJupiterURL)
	v.SetDefault(KeyJitoURL, DefaultJitoURL)
	v.SetDefault(KeyLogLevel, "info")

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	cfg := Config{
		SenderRPCURL:     strings.TrimSpace(v.GetString(KeySenderRPCURL)),
		BasicRPCURL:      strings.TrimSpace(v.GetString(KeyBasicRPCURL)),
		WalletPath:       strings.TrimSpace(v.GetString(KeyWalletPath)),
		TipEnabled:       v.GetBool(KeyTipEnabled),
		TipLamports:      v.GetUint64(KeyTipLamports),
		ComputeUnitLimit: v.GetUint32(KeyComputeUnitLimit),
		ComputeUnitPrice: v.GetUint64(KeyComputeUnitPrice),
		JupiterURL:       strings.TrimRight(strings.TrimSpace(v.GetString(KeyJupiterURL)), "/"),
		JitoURL:          strings.TrimSpace(v.GetString(KeyJitoURL)),
		LogLevel:         v.GetString(KeyLogLevel),
		TipAccount:       constants.DefaultTipAccount,
	}

	var errs []error
	if s := strings.TrimSpace(v.GetString(KeyDefaultRecipient)); s != "" {
		pk, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s invalid pubkey: %w", KeyDefaultRecipient, err))
		}
		cfg.DefaultRecipient = pk
	}
	if s := strings.TrimSpace(v.GetString(KeyTipAccount)); s != "" {
		pk, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s invalid pubkey: %w", KeyTipAccount, err))
		}
		cfg.TipAccount = pk
	}
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c Config) Validate() error {
	var errs []error
	if err := validateURL(KeySenderRPCURL, c.SenderRPCURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL(KeyBasicRPCURL, c.BasicRPCURL); err != nil {
		errs = append(errs, err)
	}
	if c.WalletPath == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyWalletPath))
	}
	if c.TipEnabled && c.TipLamports == 0 {
		errs = append(errs, fmt.Errorf("%s must be greater than 0 when tips are enabled", KeyTipLamports))
	}
	if c.TipEnabled && c.TipAccount.IsZero() {
		errs = append(errs, fmt.Errorf("%s is required when tips are enabled", KeyTipAccount))
	}
	if c.ComputeUnitLimit == 0 {
		errs = append(errs, fmt.Errorf("%s must be greater than 0", KeyComputeUnitLimit))
	}
	if c.ComputeUnitLimit > constants.MaxComputeUnitLimit {
		errs = append(errs, fmt.Errorf("%s must be <= %d", KeyComputeUnitLimit, constants.MaxComputeUnitLimit))
	}
	if c.ComputeUnitPrice > constants.MaxComputeUnitPrice {
		errs = append(errs, fmt.Errorf("%s must be <= %d micro-lamports", KeyComputeUnitPrice, constants.MaxComputeUnitPrice))
	}
	return errors.Join(errs...)
}

// RPCConfigs derives the sender and basic endpoint settings from base.
func (c Config) RPCConfigs(base RPCConfig) (sender, basic RPCConfig) {
	return base.ForEndpoint(RoleSender, c.SenderRPCURL), base.ForEndpoint(RoleBasic, c.BasicRPCURL)
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", key)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host", key)
	}
	return nil
}
