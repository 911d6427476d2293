package solver

import (
	"slices"

	"intent-swap/pkg/types"
)

// Template is one fixed entry of the route catalog.
type Template struct {
	ID string
	// Chain gates the template: it is eligible only when Chain is one of
	// the intent's preferred chains.
	Chain string
	// Requires is an extra eligibility rule on top of the chain gate.
	Requires func(in *types.Intent) bool

	// Venues sit between the give and want tokens in the step list.
	Venues     []string
	Chains     []string
	FeePercent float64

	LatencyFast  string
	LatencyOther string
	GasFast      float64
	GasOther     float64

	BridgeTime string
	Highlight  string

	PrivacyHigh   int
	PrivacyMedium int
	PrivacyLow    int
	Efficiency    int
}

// Eligible reports whether the template applies to the intent given its
// resolved chain list.
func (t *Template) Eligible(in *types.Intent, chains []string) bool {
	if !slices.Contains(chains, t.Chain) {
		return false
	}
	if t.Requires != nil && !t.Requires(in) {
		return false
	}
	return true
}

// Build derives the route for an intent.
func (t *Template) Build(in *types.Intent, prefs types.Preferences) types.Route {
	steps := make([]string, 0, len(t.Venues)+2)
	steps = append(steps, in.Give.Token)
	steps = append(steps, t.Venues...)
	steps = append(steps, in.Want.Token)

	latency, gas := t.LatencyOther, t.GasOther
	if prefs.TimePreference == types.TimeFast {
		latency, gas = t.LatencyFast, t.GasFast
	}

	return types.Route{
		ID:              t.ID,
		Steps:           steps,
		ExpectedReceive: SwapAmount(in.Give.Token, in.Want.Token, in.Give.Amount, t.FeePercent),
		Fees:            t.FeePercent / 100,
		Latency:         latency,
		Privacy:         prefs.PrivacyLevel,
		Chains:          slices.Clone(t.Chains),
		GasCost:         gas,
		BridgeTime:      t.BridgeTime,
		Highlight:       t.Highlight,
		PrivacyScore:    t.privacyScore(prefs.PrivacyLevel),
		Efficiency:      t.Efficiency,
	}
}

func (t *Template) privacyScore(level types.PrivacyLevel) int {
	switch level {
	case types.PrivacyHigh:
		return t.PrivacyHigh
	case types.PrivacyMedium:
		return t.PrivacyMedium
	default:
		return t.PrivacyLow
	}
}

// tradesUSDC gates the Solana route: it is only offered for USDC pairs.
func tradesUSDC(in *types.Intent) bool {
	return in.Give.Token == "USDC" || in.Want.Token == "USDC"
}

// catalog is the fixed route menu, in generation order.
var catalog = []Template{
	{
		ID:            "ethereum-direct",
		Chain:         "ethereum",
		Venues:        []string{"Uniswap V3"},
		Chains:        []string{"ethereum"},
		FeePercent:    0.3,
		LatencyFast:   "15s",
		LatencyOther:  "30s",
		GasFast:       0.008,
		GasOther:      0.005,
		PrivacyHigh:   80,
		PrivacyMedium: 60,
		PrivacyLow:    40,
		Efficiency:    85,
	},
	{
		ID:            "arbitrum-route",
		Chain:         "arbitrum",
		Venues:        []string{"Arbitrum Bridge", "Uniswap V3"},
		Chains:        []string{"ethereum", "arbitrum"},
		FeePercent:    0.25,
		LatencyFast:   "45s",
		LatencyOther:  "1.2m",
		GasFast:       0.002,
		GasOther:      0.002,
		BridgeTime:    "30s",
		Highlight:     "Lower fees on Arbitrum",
		PrivacyHigh:   85,
		PrivacyMedium: 70,
		PrivacyLow:    50,
		Efficiency:    92,
	},
	{
		ID:            "optimism-route",
		Chain:         "optimism",
		Venues:        []string{"Optimism Bridge", "Velodrome"},
		Chains:        []string{"ethereum", "optimism"},
		FeePercent:    0.28,
		LatencyFast:   "50s",
		LatencyOther:  "1.5m",
		GasFast:       0.0018,
		GasOther:      0.0018,
		BridgeTime:    "35s",
		Highlight:     "Good liquidity on Velodrome",
		PrivacyHigh:   82,
		PrivacyMedium: 68,
		PrivacyLow:    48,
		Efficiency:    90,
	},
	{
		ID:            "polygon-route",
		Chain:         "polygon",
		Venues:        []string{"Polygon Bridge", "QuickSwap"},
		Chains:        []string{"ethereum", "polygon"},
		FeePercent:    0.35,
		LatencyFast:   "2m",
		LatencyOther:  "2m",
		GasFast:       0.001,
		GasOther:      0.001,
		BridgeTime:    "8m",
		Highlight:     "Cheapest gas fees",
		PrivacyHigh:   78,
		PrivacyMedium: 65,
		PrivacyLow:    45,
		Efficiency:    88,
	},
	{
		ID:            "solana-route",
		Chain:         "solana",
		Requires:      tradesUSDC,
		Venues:        []string{"Wormhole Bridge", "Jupiter"},
		Chains:        []string{"ethereum", "solana"},
		FeePercent:    0.22,
		LatencyFast:   "3m",
		LatencyOther:  "3m",
		GasFast:       0.0005,
		GasOther:      0.0005,
		BridgeTime:    "15m",
		Highlight:     "Best rates via Solana",
		PrivacyHigh:   88,
		PrivacyMedium: 68,
		PrivacyLow:    52,
		Efficiency:    94,
	},
}

// Catalog returns a copy of the route templates in generation order.
func Catalog() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}
