package trades

import "time"

// Trade status values, derived from the sign of ProfitUSD.
const (
	StatusWinner    = "WINNER"
	StatusLoser     = "LOSER"
	StatusBreakEven = "BREAK_EVEN"
)

// Order types recognized in terminal exports. Rows with any other type
// (balance lines, summary totals) are not trades.
const (
	OrderTypeBuy  = "BUY"
	OrderTypeSell = "SELL"
)

// contractMultiplier approximates the notional exposure of one lot when
// deriving the per-trade percentage return.
const contractMultiplier = 100

// Trade is one closed position from a trading terminal export. It is
// created by the parser and never mutated afterwards.
type Trade struct {
	ID         int       `json:"id"`
	OpenTime   time.Time `json:"open_time"`
	CloseTime  time.Time `json:"close_time"`
	Symbol     string    `json:"symbol"`
	OrderType  string    `json:"order_type"`
	Volume     float64   `json:"volume"`
	OpenPrice  float64   `json:"open_price"`
	ClosePrice float64   `json:"close_price"`
	ProfitUSD  float64   `json:"profit_usd"`
	ProfitPct  float64   `json:"profit_pct"`
	// Duration is the holding time in minutes, 0 when either timestamp
	// could not be parsed.
	Duration int     `json:"duration"`
	Spread   float64 `json:"spread,omitempty"`
	Comment  string  `json:"comment,omitempty"`
	Status   string  `json:"status"`
}

// statusFor maps a realized profit to its status tag.
func statusFor(profit float64) string {
	switch {
	case profit > 0:
		return StatusWinner
	case profit < 0:
		return StatusLoser
	default:
		return StatusBreakEven
	}
}

// profitPct computes the approximate percentage return against the trade's
// notional exposure. Returns 0 when the notional is zero.
func profitPct(profit, openPrice, volume float64) float64 {
	notional := openPrice * volume * contractMultiplier
	if notional < 0 {
		notional = -notional
	}
	if notional == 0 {
		return 0
	}
	return profit / notional * 100
}

// durationMinutes returns the holding time in whole minutes, 0 when either
// timestamp is missing.
func durationMinutes(open, close time.Time) int {
	if open.IsZero() || close.IsZero() {
		return 0
	}
	return int(close.Sub(open).Minutes())
}
