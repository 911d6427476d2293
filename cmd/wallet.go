package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"intent-swap/pkg/solver"
	"intent-swap/pkg/wallet"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show the simulated wallet",
	Long: `Show the simulated wallet's connection state and balances.

The wallet is stored locally (see wallet_file in the config) and survives
between runs until you disconnect it.

Examples:
  intent-swap wallet
  intent-swap wallet connect
  intent-swap wallet disconnect`,
	Args: cobra.NoArgs,
	Run:  runWalletShow,
}

var walletConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the simulated wallet",
	Args:  cobra.NoArgs,
	Run:   runWalletConnect,
}

var walletDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the wallet and drop its balances",
	Args:  cobra.NoArgs,
	Run:   runWalletDisconnect,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletConnectCmd)
	walletCmd.AddCommand(walletDisconnectCmd)
}

func runWalletShow(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	svc, err := loadServices(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printWalletJSON(svc.wallet)
		return
	}
	displayWallet(svc.wallet)
}

func runWalletConnect(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	svc, err := loadServices(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if svc.wallet.IsConnected() && !jsonOutput {
		color.Yellow("\nWallet already connected.")
		displayWallet(svc.wallet)
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Connecting wallet..."
		s.Start()
	}

	err = svc.wallet.Connect(cmd.Context())
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printWalletJSON(svc.wallet)
		return
	}

	color.Green("\n✓ Wallet connected")
	displayWallet(svc.wallet)
}

func runWalletDisconnect(cmd *cobra.Command, args []string) {
	svc, err := loadServices(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if err := svc.wallet.Disconnect(); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Wallet disconnected.")
}

func printWalletJSON(store *wallet.Store) {
	output := map[string]interface{}{
		"connected": store.IsConnected(),
		"balances":  store.Balances(),
		"value_usd": solver.PortfolioValue(store.Balances()),
	}
	jsonData, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonData))
}

func displayWallet(store *wallet.Store) {
	if !store.IsConnected() {
		color.Yellow("\nWallet not connected.")
		color.Cyan("  Connect with: intent-swap wallet connect\n")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	color.Green("                    WALLET")
	fmt.Println(strings.Repeat("=", 50))

	balances := store.Balances()
	for _, token := range store.Tokens() {
		amount := balances[token]
		usd := ""
		if price, ok := solver.LookupPrice(token); ok {
			usd = "$" + amount.Mul(decimal.NewFromFloat(price)).StringFixed(2)
		}
		fmt.Printf("  %-8s %18s  %s\n", color.YellowString(token), amount.String(), color.HiBlackString(usd))
	}

	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  Total value: %s\n", color.GreenString("$"+solver.PortfolioValue(balances).StringFixed(2)))
	fmt.Println(strings.Repeat("=", 50) + "\n")
}
