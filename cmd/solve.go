package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intent-swap/pkg/parser"
	"intent-swap/pkg/types"
)

// intentFlags are the preference flags shared by solve and execute
type intentFlags struct {
	chains      string
	privacy     string
	speed       string
	maxSlippage float64
	minReceive  float64
}

func (f *intentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.chains, "chains", "", "Comma separated preferred chains (default: ethereum)")
	cmd.Flags().StringVar(&f.privacy, "privacy", string(types.DefaultPrivacyLevel), "Privacy level: low, medium or high")
	cmd.Flags().StringVar(&f.speed, "speed", string(types.DefaultTimePreference), "Time preference: fast, balanced or cheap")
	cmd.Flags().Float64Var(&f.maxSlippage, "max-slippage", 1.0, "Maximum slippage in percent")
	cmd.Flags().Float64Var(&f.minReceive, "min-receive", 0, "Minimum amount of the wanted token to accept")
}

// buildIntent parses "<amount> <token> to <token>" and applies the flags.
func (f *intentFlags) buildIntent(cmd *cobra.Command, args []string) (*types.Intent, error) {
	in, err := parser.ParseIntentCommand(strings.Join(args, " "))
	if err != nil {
		return nil, err
	}

	privacy, err := parser.ParsePrivacyLevel(f.privacy)
	if err != nil {
		return nil, err
	}
	speed, err := parser.ParseTimePreference(f.speed)
	if err != nil {
		return nil, err
	}

	prefs := &types.Preferences{
		MaxSlippage:    f.maxSlippage,
		PrivacyLevel:   privacy,
		TimePreference: speed,
	}
	// An explicit --chains "" asks for no chains at all
	if cmd.Flags().Changed("chains") {
		chains, err := parser.ParseChains(f.chains)
		if err != nil {
			return nil, err
		}
		prefs.PreferredChains = chains
	}
	in.Preferences = prefs

	if cmd.Flags().Changed("min-receive") {
		minReceive := f.minReceive
		in.Want.MinAmount = &minReceive
	}

	return in, nil
}

var solveFlags intentFlags

var solveCmd = &cobra.Command{
	Use:   "solve <amount> <give-token> to <want-token>",
	Short: "Generate ranked routes for a swap intent",
	Long: `Generate the candidate routes for an intent, best expected output first.

Routes are built from a fixed set of venues on your preferred chains and
priced at reference rates. Nothing is executed.

Examples:
  intent-swap solve 1 ETH to USDC
  intent-swap solve 1000 USDC to ETH --chains eth,arb,op --privacy high
  intent-swap solve 100 USDC to SOL --chains solana --speed fast --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveFlags.register(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	in, err := solveFlags.buildIntent(cmd, args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	svc, err := loadServices(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	routes, err := solveWithSpinner(cmd.Context(), svc, in, jsonOutput)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(routes, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayRoutes(in, routes)
}

func solveWithSpinner(ctx context.Context, svc *services, in *types.Intent, quiet bool) ([]types.Route, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !quiet {
		s.Suffix = " Solving intent..."
		s.Start()
	}

	routes, err := svc.solver.GenerateRoutes(ctx, *in)
	if !quiet {
		s.Stop()
	}
	return routes, err
}

func displayRoutes(in *types.Intent, routes []types.Route) {
	if len(routes) == 0 {
		color.Yellow("\nNo routes found for your preferred chains.")
		fmt.Println("Try adding chains with --chains (e.g. --chains ethereum,arbitrum).")
		fmt.Println()
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 96))
	color.Green("  ROUTES: %g %s -> %s", in.Give.Amount, in.Give.Token, in.Want.Token)
	fmt.Println(strings.Repeat("=", 96))

	fmt.Printf("\n  %-18s %16s %10s %9s %8s %8s %8s  %s\n",
		"ROUTE", "RECEIVE", "FEES", "GAS", "LATENCY", "PRIVACY", "EFFIC.", "CHAINS")
	fmt.Println("  " + strings.Repeat("-", 92))

	for i, r := range routes {
		id := fmt.Sprintf("%-18s", r.ID)
		if i == 0 {
			id = color.GreenString(id)
		}
		fmt.Printf("  %s %16.6f %10.6f %9.4f %8s %8d %8d  %s\n",
			id, r.ExpectedReceive, r.Fees, r.GasCost, r.Latency, r.PrivacyScore, r.Efficiency,
			color.CyanString(strings.Join(r.Chains, " -> ")))
	}

	best := routes[0]
	fmt.Printf("\n  Best:  %s via %s\n", color.GreenString(best.ID), strings.Join(best.Steps, ", "))
	if best.Highlight != "" {
		fmt.Printf("         %s\n", color.HiBlackString(best.Highlight))
	}
	if best.BridgeTime != "" {
		fmt.Printf("         bridge time ~%s\n", best.BridgeTime)
	}
	if in.Want.MinAmount != nil && best.ExpectedReceive < *in.Want.MinAmount {
		color.Red("\n  Warning: no route meets your minimum of %g %s", *in.Want.MinAmount, in.Want.Token)
	}

	fmt.Println("\n" + strings.Repeat("=", 96) + "\n")
}
