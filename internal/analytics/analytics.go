// Package analytics turns a normalized trade history into a portfolio
// performance report. Computation is a pure function of its input: no
// shared state, no persistence, a full recompute per call.
package analytics

// SymbolStats aggregates performance for one traded symbol.
type SymbolStats struct {
	Trades    int     `json:"trades"`
	Profit    float64 `json:"profit"`
	WinRate   float64 `json:"win_rate"`
	AvgProfit float64 `json:"avg_profit"`
}

// DailyStats aggregates one calendar day of trading.
type DailyStats struct {
	Date    string  `json:"date"`
	Trades  int     `json:"trades"`
	Profit  float64 `json:"profit"`
	WinRate float64 `json:"win_rate"`
	// MaxLoss is the day's worst single trade.
	MaxLoss float64 `json:"max_loss"`
}

// MonthlyStats aggregates one calendar month of trading.
type MonthlyStats struct {
	Month   string  `json:"month"`
	Trades  int     `json:"trades"`
	Profit  float64 `json:"profit"`
	WinRate float64 `json:"win_rate"`
	// BestDay and WorstDay are the month's extreme days by summed profit.
	BestDay  string `json:"best_day"`
	WorstDay string `json:"worst_day"`
}

// HourStats is one cell of the hour-of-day profitability heatmap.
type HourStats struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Heatmap is the per-hour profitability breakdown across all dates.
type Heatmap struct {
	Data     map[string]HourStats `json:"data"`
	BestHour int                  `json:"best_hour"`
}

// Analytics is the full metrics report for one trade history. It is built
// once per computation and not mutated afterwards.
type Analytics struct {
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`
	BreakEven     int `json:"break_even"`

	TotalProfit    float64 `json:"total_profit"`
	TotalProfitPct float64 `json:"total_profit_pct"`
	AverageProfit  float64 `json:"average_profit"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	PayoffRatio    float64 `json:"payoff_ratio"`

	MaxDrawdown     float64 `json:"max_drawdown"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct"`
	CurrentDrawdown float64 `json:"current_drawdown"`

	LongestWinStreak  int `json:"longest_win_streak"`
	LongestLossStreak int `json:"longest_loss_streak"`
	// CurrentStreak is the sign of the most recent trade's profit.
	CurrentStreak int `json:"current_streak"`

	SymbolStats map[string]SymbolStats `json:"symbol_stats"`

	BestDay       string  `json:"best_day"`
	BestDayProfit float64 `json:"best_day_profit"`
	WorstDay      string  `json:"worst_day"`
	WorstDayProfit float64 `json:"worst_day_profit"`
	BestHour       int     `json:"best_hour"`
	BestHourProfit float64 `json:"best_hour_profit"`

	EquityCurve []float64 `json:"equity_curve"`
	EquityDates []string  `json:"equity_dates"`

	DailyStats   []DailyStats   `json:"daily_stats"`
	MonthlyStats []MonthlyStats `json:"monthly_stats"`

	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	TotalDays   int    `json:"total_days"`

	ProfitDistribution   map[string]int `json:"profit_distribution"`
	DurationDistribution map[string]int `json:"duration_distribution"`
}
