package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"intent-swap/config"
	"intent-swap/pkg/execution"
	"intent-swap/pkg/logging"
	"intent-swap/pkg/solver"
	"intent-swap/pkg/wallet"
)

var rootCmd = &cobra.Command{
	Use:   "intent-swap",
	Short: "Generate and simulate routes for intent-based token swaps",
	Long: `intent-swap turns a swap intent ("give 1 ETH, want USDC") into ranked
candidate routes across Ethereum and its L2s or Solana, and lets you execute
them against a simulated wallet.

Examples:
  intent-swap solve 1 ETH to USDC --chains ethereum,arbitrum
  intent-swap wallet connect
  intent-swap execute 100 USDC to SOL --chains solana --yes
  intent-swap list-tokens
  intent-swap serve`,
	Version: "0.1.0",
}

// Execute runs the root command. Cancelling ctx aborts simulated delays.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// services bundles everything a command needs, built from configuration.
type services struct {
	cfg      *config.Config
	logger   *logrus.Logger
	solver   *solver.Solver
	wallet   *wallet.Store
	executor *execution.Executor
}

func loadServices(cmd *cobra.Command) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cmd.Name() != "serve" {
		// keep CLI output readable; the server logs at the configured level
		logger.SetLevel(logrus.WarnLevel)
	}

	store, err := wallet.NewStore(cfg.WalletFile, cfg.ConnectDelay, logger)
	if err != nil {
		return nil, err
	}

	return &services{
		cfg:      cfg,
		logger:   logger,
		solver:   solver.NewSolver(cfg.SolveDelay, logger),
		wallet:   store,
		executor: execution.NewExecutor(store, cfg.ExecuteDelay, logger),
	}, nil
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
