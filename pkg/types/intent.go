package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidIntent is returned when an intent is missing required fields
// or carries an unknown preference value.
var ErrInvalidIntent = errors.New("invalid intent")

// PrivacyLevel selects the privacy tier a route is scored with.
type PrivacyLevel string

const (
	PrivacyLow    PrivacyLevel = "low"
	PrivacyMedium PrivacyLevel = "medium"
	PrivacyHigh   PrivacyLevel = "high"
)

// TimePreference trades latency against cost.
type TimePreference string

const (
	TimeFast     TimePreference = "fast"
	TimeBalanced TimePreference = "balanced"
	TimeCheap    TimePreference = "cheap"
)

// Defaults applied when an intent leaves a preference unset.
const (
	DefaultChain          = "ethereum"
	DefaultPrivacyLevel   = PrivacyMedium
	DefaultTimePreference = TimeBalanced
)

// Give is the side of the trade the user pays with.
type Give struct {
	Token  string  `json:"token"`
	Amount float64 `json:"amount"`
}

// Want is the side of the trade the user receives.
type Want struct {
	Token     string   `json:"token"`
	MinAmount *float64 `json:"minAmount,omitempty"`
}

// Preferences tune which routes are eligible and how they are scored.
type Preferences struct {
	MaxSlippage     float64        `json:"maxSlippage"`
	PreferredChains []string       `json:"preferredChains"`
	PrivacyLevel    PrivacyLevel   `json:"privacyLevel"`
	TimePreference  TimePreference `json:"timePreference"`
}

// Intent is a user's trade request
type Intent struct {
	Give        Give         `json:"give"`
	Want        Want         `json:"want"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// Validate checks that the intent names both tokens, carries a finite
// amount and only uses known preference values. Zero and negative amounts
// are left to the caller.
func (in *Intent) Validate() error {
	if in.Give.Token == "" {
		return fmt.Errorf("%w: give token is required", ErrInvalidIntent)
	}
	if in.Want.Token == "" {
		return fmt.Errorf("%w: want token is required", ErrInvalidIntent)
	}
	if math.IsNaN(in.Give.Amount) || math.IsInf(in.Give.Amount, 0) {
		return fmt.Errorf("%w: give amount must be a finite number", ErrInvalidIntent)
	}
	if in.Preferences == nil {
		return nil
	}

	switch in.Preferences.PrivacyLevel {
	case "", PrivacyLow, PrivacyMedium, PrivacyHigh:
	default:
		return fmt.Errorf("%w: unknown privacy level %q", ErrInvalidIntent, in.Preferences.PrivacyLevel)
	}

	switch in.Preferences.TimePreference {
	case "", TimeFast, TimeBalanced, TimeCheap:
	default:
		return fmt.Errorf("%w: unknown time preference %q", ErrInvalidIntent, in.Preferences.TimePreference)
	}

	return nil
}

// ResolvedPreferences returns the preferences with defaults filled in.
// A nil chain list means "not set" and falls back to the default chain;
// an explicit empty list is kept as is.
func (in *Intent) ResolvedPreferences() Preferences {
	prefs := Preferences{
		PreferredChains: []string{DefaultChain},
		PrivacyLevel:    DefaultPrivacyLevel,
		TimePreference:  DefaultTimePreference,
	}
	if in.Preferences == nil {
		return prefs
	}

	prefs.MaxSlippage = in.Preferences.MaxSlippage
	if in.Preferences.PreferredChains != nil {
		prefs.PreferredChains = in.Preferences.PreferredChains
	}
	if in.Preferences.PrivacyLevel != "" {
		prefs.PrivacyLevel = in.Preferences.PrivacyLevel
	}
	if in.Preferences.TimePreference != "" {
		prefs.TimePreference = in.Preferences.TimePreference
	}
	return prefs
}

// Route is one candidate execution path for an intent
type Route struct {
	ID              string       `json:"id"`
	Steps           []string     `json:"steps"`
	ExpectedReceive float64      `json:"expectedReceive"`
	Fees            float64      `json:"fees"`
	Latency         string       `json:"latency"`
	Privacy         PrivacyLevel `json:"privacy"`
	Chains          []string     `json:"chains"`
	GasCost         float64      `json:"gasCost"`
	BridgeTime      string       `json:"bridgeTime,omitempty"`
	Highlight       string       `json:"highlight,omitempty"`
	PrivacyScore    int          `json:"privacyScore"`
	Efficiency      int          `json:"efficiency"`
}

// DestinationChain is the last chain the route touches.
func (r *Route) DestinationChain() string {
	if len(r.Chains) == 0 {
		return ""
	}
	return r.Chains[len(r.Chains)-1]
}

// IsCrossChain reports whether the route bridges between chains.
func (r *Route) IsCrossChain() bool {
	return len(r.Chains) > 1
}
