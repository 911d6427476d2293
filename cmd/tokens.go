package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intent-swap/pkg/solver"
)

var filterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tokens with reference prices",
	Long: `List the tokens routes are priced with and their USD reference prices.

Any other symbol is still accepted by solve, but is priced at 1.

Examples:
  intent-swap list-tokens
  intent-swap list-tokens --symbol USD`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	tokens := solver.Tokens()
	if filterSymbol != "" {
		var filtered []solver.TokenPrice
		for _, token := range tokens {
			if strings.Contains(token.Symbol, strings.ToUpper(filterSymbol)) {
				filtered = append(filtered, token)
			}
		}
		tokens = filtered
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(tokens, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(tokens)
}

func displayTokens(tokens []solver.TokenPrice) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 40))
	color.Green("           REFERENCE PRICES")
	fmt.Println(strings.Repeat("=", 40))

	for _, token := range tokens {
		fmt.Printf("  %-10s  %14s\n", color.YellowString(token.Symbol), fmt.Sprintf("$%.2f", token.Price))
	}

	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("\nTotal: %d tokens (swap fee %.2f%% on direct routes)\n\n", len(tokens), solver.DefaultFeePercent)
}
