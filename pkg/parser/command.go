package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"intent-swap/pkg/chain"
	"intent-swap/pkg/types"
)

// Pattern: <amount> <give_token> TO <want_token>
var intentPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

// ParseIntentCommand parses a natural language swap command into an intent
// without preferences.
// Examples:
//   - "swap 1 ETH to USDC"
//   - "1.5 eth to sol"
//   - "100 USDC to SOL"
func ParseIntentCommand(command string) (*types.Intent, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.Join(strings.Fields(command), " ")

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	matches := intentPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 ETH to USDC')")
	}

	amount, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", matches[1], err)
	}

	return &types.Intent{
		Give: types.Give{Token: NormalizeTokenSymbol(matches[2]), Amount: amount},
		Want: types.Want{Token: NormalizeTokenSymbol(matches[3])},
	}, nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	// Convert to uppercase for consistency
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Handle common aliases
	aliases := map[string]string{
		"WETH":   "ETH",
		"WSOL":   "SOL",
		"WMATIC": "MATIC",
		"POL":    "MATIC",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}

// ParseChains turns a comma separated chain list into canonical chain ids,
// keeping first-seen order and dropping duplicates. An empty string yields
// an empty, non-nil list.
func ParseChains(list string) ([]string, error) {
	chains := []string{}
	seen := make(map[string]bool)

	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := chain.Normalize(part)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		chains = append(chains, id)
	}

	return chains, nil
}

// ParsePrivacyLevel validates a privacy level flag value.
func ParsePrivacyLevel(s string) (types.PrivacyLevel, error) {
	switch level := types.PrivacyLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case types.PrivacyLow, types.PrivacyMedium, types.PrivacyHigh:
		return level, nil
	default:
		return "", fmt.Errorf("privacy level must be 'low', 'medium', or 'high'")
	}
}

// ParseTimePreference validates a time preference flag value.
func ParseTimePreference(s string) (types.TimePreference, error) {
	switch pref := types.TimePreference(strings.ToLower(strings.TrimSpace(s))); pref {
	case types.TimeFast, types.TimeBalanced, types.TimeCheap:
		return pref, nil
	default:
		return "", fmt.Errorf("time preference must be 'fast', 'balanced', or 'cheap'")
	}
}
