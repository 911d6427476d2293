package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intent-swap/pkg/execution"
	"intent-swap/pkg/types"
	"intent-swap/pkg/wallet"
)

var (
	executeFlags  intentFlags
	routeID       string
	recipientAddr string
	noConfirm     bool
)

var executeCmd = &cobra.Command{
	Use:   "execute <amount> <give-token> to <want-token>",
	Short: "Solve an intent and execute a route against the simulated wallet",
	Long: `Solve an intent, then execute the best route (or the one given with --route)
against the simulated wallet. The wallet must be connected first.

Examples:
  intent-swap execute 1 ETH to USDC
  intent-swap execute 1 ETH to USDC --chains eth,arb --route arbitrum-route --yes
  intent-swap execute 100 USDC to SOL --chains solana --recipient <solana-addr>`,
	Args: cobra.MinimumNArgs(1),
	Run:  runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)
	executeFlags.register(executeCmd)

	executeCmd.Flags().StringVar(&routeID, "route", "", "Route id to execute (default: best route)")
	executeCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address on the destination chain (optional)")
	executeCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runExecute(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	in, err := executeFlags.buildIntent(cmd, args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	svc, err := loadServices(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !svc.wallet.IsConnected() {
		printError(wallet.ErrNotConnected)
		color.Cyan("  Connect first with: intent-swap wallet connect\n")
		os.Exit(1)
	}

	routes, err := solveWithSpinner(cmd.Context(), svc, in, jsonOutput)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	route, err := pickRoute(routes, routeID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !jsonOutput {
		displayExecutionPlan(in, route, svc.wallet)
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	var events <-chan wallet.Event
	if verbose {
		ch, unsubscribe := svc.wallet.Subscribe(8)
		defer unsubscribe()
		events = ch
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}

	receipt, err := svc.executor.Execute(cmd.Context(), execution.Request{
		Intent:    *in,
		Route:     route,
		Recipient: recipientAddr,
	})
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(receipt, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	drainEvents(events)
	displayReceipt(receipt, svc.wallet)
}

func pickRoute(routes []types.Route, id string) (types.Route, error) {
	if len(routes) == 0 {
		return types.Route{}, errors.New("no routes found for your preferred chains")
	}
	if id == "" {
		return routes[0], nil
	}

	available := make([]string, 0, len(routes))
	for _, r := range routes {
		if r.ID == id {
			return r, nil
		}
		available = append(available, r.ID)
	}
	return types.Route{}, fmt.Errorf("route %q not available; choose one of: %s", id, strings.Join(available, ", "))
}

func displayExecutionPlan(in *types.Intent, route types.Route, store *wallet.Store) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP PREVIEW")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Route:             %s\n", color.CyanString(route.ID))
	fmt.Printf("  Steps:             %s\n", strings.Join(route.Steps, " -> "))
	fmt.Printf("  From:              %g %s\n", in.Give.Amount, color.YellowString(in.Give.Token))
	fmt.Printf("  To:                ~%.6f %s\n", route.ExpectedReceive, color.YellowString(in.Want.Token))
	fmt.Printf("  Fees:              %.6f %s\n", route.Fees, in.Want.Token)
	fmt.Printf("  Gas:               %.4f ETH\n", route.GasCost)
	fmt.Printf("  Latency:           %s\n", route.Latency)
	fmt.Printf("  Chains:            %s\n", strings.Join(route.Chains, " -> "))
	fmt.Printf("  Available:         %s %s\n", store.Balance(in.Give.Token).String(), in.Give.Token)
	if recipientAddr != "" {
		fmt.Printf("  Recipient:         %s\n", recipientAddr)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func displayReceipt(r *execution.Receipt, store *wallet.Store) {
	color.Green("\n✓ Swap completed in %s", r.Duration().Round(time.Millisecond))
	fmt.Printf("  Execution ID: %s\n", color.CyanString(r.ID))
	fmt.Printf("  Sent:         %s %s\n", r.GiveAmount.String(), r.GiveToken)
	fmt.Printf("  Received:     %s %s\n", r.ReceiveAmount.StringFixed(6), r.WantToken)
	if r.Recipient != "" {
		fmt.Printf("  Recipient:    %s\n", r.Recipient)
	}
	fmt.Printf("\n  New balances: %s %s, %s %s\n\n",
		store.Balance(r.GiveToken).String(), r.GiveToken,
		store.Balance(r.WantToken).StringFixed(6), r.WantToken)
}

// drainEvents prints the balance changes already published, without blocking.
func drainEvents(events <-chan wallet.Event) {
	if events == nil {
		return
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == wallet.EventBalanceChanged {
				fmt.Printf("  Debug: %s %s\n", ev.Token, ev.Delta.String())
			}
		default:
			return
		}
	}
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
