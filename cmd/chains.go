package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intent-swap/pkg/chain"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List supported chains and their aliases",
	Run: func(cmd *cobra.Command, args []string) {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		chains := chain.All()

		if jsonOutput {
			jsonData, _ := json.MarshalIndent(chains, "", "  ")
			fmt.Println(string(jsonData))
			return
		}

		fmt.Println()
		for _, c := range chains {
			fmt.Printf("  %-10s %-10s %-7s %s\n",
				color.CyanString(c.ID), c.Name, string(c.Family),
				color.HiBlackString(strings.Join(c.Aliases, ", ")))
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(chainsCmd)
}
