package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ninja0404/tipsend-go/pkg/config"
	"github.com/ninja0404/tipsend-go/pkg/jito"
	"github.com/ninja0404/tipsend-go/pkg/jupiter"
	"github.com/ninja0404/tipsend-go/pkg/metrics"
	sdkrpc "github.com/ninja0404/tipsend-go/pkg/rpc"
	"github.com/ninja0404/tipsend-go/pkg/scenario"
	"github.com/ninja0404/tipsend-go/pkg/tip"
	"github.com/ninja0404/tipsend-go/pkg/txbuilder"
	"github.com/ninja0404/tipsend-go/pkg/wallet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Submission endpoints selectable with --endpoint.
const (
	endpointSender = "sender"
	endpointBasic  = "basic"
	endpointJito   = "jito"
)

type globalOpts struct {
	envFile          string
	logLevel         string
	endpoint         string
	noTip            bool
	randomTipAccount bool
	maxAttempts      int
	confirmTimeout   time.Duration
	simulate         bool
	metricsAddr      string
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "tipsend",
		Short:         "Send tipped Solana transactions: SOL transfers, token transfers and swaps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load (environment variables take precedence)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error), overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", endpointSender, "submission endpoint (sender|basic|jito)")
	root.PersistentFlags().BoolVar(&opts.noTip, "no-tip", false, "do not attach the tip transfer")
	root.PersistentFlags().BoolVar(&opts.randomTipAccount, "random-tip-account", false, "tip a random Jito tip account instead of TIP_ACCOUNT")
	root.PersistentFlags().IntVar(&opts.maxAttempts, "max-attempts", txbuilder.DefaultMaxAttempts, "submission attempts")
	root.PersistentFlags().DurationVar(&opts.confirmTimeout, "confirm-timeout", txbuilder.DefaultConfirmTimeout, "how long to wait for confirmation")
	root.PersistentFlags().BoolVar(&opts.simulate, "simulate", false, "simulate the transaction instead of sending it")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9091)")

	root.AddCommand(
		newTransferCmd(opts),
		newTokenTransferCmd(opts),
		newSwapCmd(opts),
		newBalanceCmd(opts),
		newConfigCmd(opts),
		newTipAccountsCmd(opts),
	)

	return root
}

type runtimeDeps struct {
	cfg     config.Config
	log     zerolog.Logger
	sender  *sdkrpc.Client
	basic   *sdkrpc.Client
	metrics *metrics.Metrics
	stop    func()
}

// newRuntime loads configuration and connects the RPC endpoints. Callers must
// invoke stop when done.
func newRuntime(cmd *cobra.Command, opts *globalOpts) (*runtimeDeps, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log := newLogger(cmd, level)

	base := config.DefaultRPCConfig()
	base.Logger = log
	senderCfg, basicCfg := cfg.RPCConfigs(base)

	deps := &runtimeDeps{
		cfg:    cfg,
		log:    log,
		sender: sdkrpc.NewClient(senderCfg),
		basic:  sdkrpc.NewClient(basicCfg),
		stop:   func() {},
	}
	if opts.metricsAddr != "" {
		registry := prometheus.NewRegistry()
		deps.metrics = metrics.NewMetrics(registry)
		deps.stop = serveMetrics(log, opts.metricsAddr, registry)
	}
	return deps, nil
}

func serveMetrics(log zerolog.Logger, addr string, registry *prometheus.Registry) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func (d *runtimeDeps) submitter(endpoint string) (txbuilder.Submitter, error) {
	switch endpoint {
	case endpointSender:
		return txbuilder.NewRPCSubmitter(d.sender), nil
	case endpointBasic:
		return txbuilder.NewRPCSubmitter(d.basic), nil
	case endpointJito:
		return jito.NewClient(d.cfg.JitoURL, "").WithLogger(d.log), nil
	default:
		return nil, fmt.Errorf("unknown endpoint %q (want sender, basic or jito)", endpoint)
	}
}

// newRunner loads the wallet and assembles a scenario runner from the flags.
func (d *runtimeDeps) newRunner(opts *globalOpts) (*scenario.Runner, error) {
	signer, err := wallet.Load(d.cfg.WalletPath)
	if err != nil {
		return nil, err
	}
	sub, err := d.submitter(opts.endpoint)
	if err != nil {
		return nil, err
	}

	tp := scenario.TipFromConfig(d.cfg)
	if opts.noTip {
		tp = tip.Disabled()
	}
	if opts.randomTipAccount && tp.Active() {
		tp = tp.WithRandomAccount()
	}

	return scenario.NewRunner(scenario.Options{
		Chain:          d.basic,
		Submitter:      sub,
		Endpoint:       opts.endpoint,
		Aggregator:     jupiter.NewClient(d.cfg.JupiterURL, jupiter.WithLogger(d.log)),
		Signer:         signer,
		Budget:         scenario.BudgetFromConfig(d.cfg),
		Tip:            tp,
		MaxAttempts:    opts.maxAttempts,
		ConfirmTimeout: opts.confirmTimeout,
		DryRun:         opts.simulate,
		Simulator:      d.basic,
		Log:            d.log,
		Metrics:        d.metrics,
	})
}

func newLogger(cmd *cobra.Command, level string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).
		Level(parseLogLevel(level)).
		With().
		Timestamp().
		Logger()
}

func parseLogLevel(lvl string) zerolog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
