package solver

import "github.com/shopspring/decimal"

// DefaultFeePercent is the fee applied by SwapAmount callers that have no
// venue-specific rate.
const DefaultFeePercent = 0.3

// unknownTokenPrice is the reference price assumed for symbols missing from
// the table. It must never be zero.
const unknownTokenPrice = 1.0

// TokenPrice is one entry of the reference price table.
type TokenPrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// referencePrices is the fixed USD price table. Order is the display order.
var referencePrices = []TokenPrice{
	{Symbol: "ETH", Price: 2450},
	{Symbol: "USDC", Price: 1},
	{Symbol: "DAI", Price: 1},
	{Symbol: "USDT", Price: 1},
	{Symbol: "SOL", Price: 145},
	{Symbol: "MATIC", Price: 0.65},
}

var priceIndex = func() map[string]float64 {
	idx := make(map[string]float64, len(referencePrices))
	for _, p := range referencePrices {
		idx[p.Symbol] = p.Price
	}
	return idx
}()

// LookupPrice returns the reference price of a symbol and whether the
// symbol is in the table.
func LookupPrice(symbol string) (float64, bool) {
	price, ok := priceIndex[symbol]
	return price, ok
}

// priceOf returns the reference price, defaulting unknown symbols to 1.
func priceOf(symbol string) float64 {
	if price, ok := priceIndex[symbol]; ok {
		return price
	}
	return unknownTokenPrice
}

// Tokens returns a copy of the reference price table.
func Tokens() []TokenPrice {
	out := make([]TokenPrice, len(referencePrices))
	copy(out, referencePrices)
	return out
}

// SwapAmount converts amount of fromToken into toToken at reference prices
// and takes feePercent (in percent, 0.3 means 0.3%) off the result.
func SwapAmount(fromToken, toToken string, amount, feePercent float64) float64 {
	base := amount
	if fromToken != toToken {
		base = amount * priceOf(fromToken) / priceOf(toToken)
	}
	fee := base * (feePercent / 100)
	return base - fee
}

// PortfolioValue is the USD value of balances at reference prices, rounded
// to cents. Tokens without a reference price are not counted.
func PortfolioValue(balances map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for token, amount := range balances {
		if price, ok := priceIndex[token]; ok {
			total = total.Add(amount.Mul(decimal.NewFromFloat(price)))
		}
	}
	return total.Round(2)
}
