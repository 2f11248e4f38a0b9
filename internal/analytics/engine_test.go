package analytics

import (
	"testing"
	"time"

	"trade-analytics-go/internal/trades"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tradesWithProfits builds a chronological history with one trade per hour
// and the given profits.
func tradesWithProfits(profits ...float64) []trades.Trade {
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	out := make([]trades.Trade, len(profits))
	for i, p := range profits {
		status := trades.StatusBreakEven
		if p > 0 {
			status = trades.StatusWinner
		} else if p < 0 {
			status = trades.StatusLoser
		}
		out[i] = trades.Trade{
			ID:         i + 1,
			OpenTime:   base.Add(time.Duration(i) * time.Hour),
			CloseTime:  base.Add(time.Duration(i)*time.Hour + 30*time.Minute),
			Symbol:     "EURUSD",
			OrderType:  trades.OrderTypeBuy,
			Volume:     1.0,
			OpenPrice:  1.1,
			ClosePrice: 1.105,
			ProfitUSD:  p,
			Duration:   30,
			Status:     status,
		}
	}
	return out
}

func TestCompute_BasicWinLossSet(t *testing.T) {
	report := Compute(tradesWithProfits(100, -50, 200, -50, 0))

	assert.Equal(t, 5, report.TotalTrades)
	assert.Equal(t, 2, report.WinningTrades)
	assert.Equal(t, 2, report.LosingTrades)
	assert.Equal(t, 1, report.BreakEven)
	assert.Equal(t, 200.0, report.TotalProfit)
	assert.Equal(t, 40.0, report.WinRate)

	assert.Equal(t, []float64{100, 50, 250, 200, 200}, report.EquityCurve)
	assert.Equal(t, -50.0, report.MaxDrawdown)
	assert.Equal(t, -50.0, report.CurrentDrawdown)
	// -50 / 250 * 100
	assert.InDelta(t, -20.0, report.MaxDrawdownPct, 1e-9)

	// 300 gains vs 100 losses
	assert.InDelta(t, 3.0, report.ProfitFactor, 1e-9)
	// avg win 150 vs avg loss 50
	assert.InDelta(t, 3.0, report.PayoffRatio, 1e-9)
	assert.Equal(t, 0, report.CurrentStreak)
}

func TestCompute_EmptyInput(t *testing.T) {
	report := Compute(nil)

	assert.Equal(t, 0, report.TotalTrades)
	assert.Equal(t, 0.0, report.WinRate)
	assert.Equal(t, 0.0, report.ProfitFactor)
	assert.Equal(t, 0.0, report.PayoffRatio)
	assert.Empty(t, report.EquityCurve)
	assert.Empty(t, report.EquityDates)
	assert.Empty(t, report.DailyStats)
	assert.Empty(t, report.MonthlyStats)
	assert.Empty(t, report.SymbolStats)
	assert.Equal(t, "", report.BestDay)
	assert.Equal(t, "", report.PeriodStart)
}

func TestCompute_Idempotent(t *testing.T) {
	input := tradesWithProfits(10, -20, 30, -5, 0, 100)
	first := Compute(input)
	second := Compute(input)
	assert.Equal(t, first, second)
}

func TestCompute_PartitionCompleteness(t *testing.T) {
	cases := [][]float64{
		{},
		{1, 2, 3},
		{-1, -2},
		{0, 0, 0},
		{5, -5, 0, 12.5, -0.01},
	}
	for _, profits := range cases {
		report := Compute(tradesWithProfits(profits...))
		assert.Equal(t, report.TotalTrades,
			report.WinningTrades+report.LosingTrades+report.BreakEven)
	}
}

func TestCompute_ProfitFactorFloorWithoutLosses(t *testing.T) {
	report := Compute(tradesWithProfits(100, 200, 50))
	assert.Equal(t, 0.0, report.ProfitFactor)
	// Loss denominator floors at 1, so payoff ratio degenerates to the
	// average win.
	assert.InDelta(t, 350.0/3, report.PayoffRatio, 1e-9)
}

func TestCompute_DrawdownNeverPositive(t *testing.T) {
	report := Compute(tradesWithProfits(-100, 50, -200, 300, -50, -50, 500))

	runningMax := report.EquityCurve[0]
	minDD := 0.0
	for _, v := range report.EquityCurve {
		if v > runningMax {
			runningMax = v
		}
		dd := v - runningMax
		assert.LessOrEqual(t, dd, 0.0)
		if dd < minDD {
			minDD = dd
		}
	}
	assert.Equal(t, minDD, report.MaxDrawdown)
}

func TestCompute_DrawdownPctZeroWhenPeakNegative(t *testing.T) {
	// Running max of [-100, -150] is -100, so the drawdown series is
	// [0, -50] and the percentage floors at 0 with no positive peak.
	report := Compute(tradesWithProfits(-100, -50))
	assert.Equal(t, -50.0, report.MaxDrawdown)
	assert.Equal(t, 0.0, report.MaxDrawdownPct)
}

func TestCompute_Streaks(t *testing.T) {
	// Runs: +,+ | - | +,+,+ | -,- | 0
	report := Compute(tradesWithProfits(10, 20, -5, 1, 2, 3, -10, -20, 0))

	assert.Equal(t, 3, report.LongestWinStreak)
	assert.Equal(t, 2, report.LongestLossStreak)
	assert.Equal(t, 0, report.CurrentStreak)

	report = Compute(tradesWithProfits(-1, 50))
	assert.Equal(t, 1, report.CurrentStreak)
}

func TestCompute_SortsByOpenTimeBeforeAggregating(t *testing.T) {
	input := tradesWithProfits(100, -50, 200)
	// Shuffle: the engine must restore chronological order.
	shuffled := []trades.Trade{input[2], input[0], input[1]}

	report := Compute(shuffled)
	assert.Equal(t, []float64{100, 50, 250}, report.EquityCurve)
	assert.Equal(t, 1, report.CurrentStreak)
}

func TestCompute_TieBrokenByID(t *testing.T) {
	ts := tradesWithProfits(100, -50)
	ts[1].OpenTime = ts[0].OpenTime

	report := Compute([]trades.Trade{ts[1], ts[0]})
	assert.Equal(t, []float64{100, 50}, report.EquityCurve)
}

func TestCompute_SymbolStats(t *testing.T) {
	ts := tradesWithProfits(100, -50, 30)
	ts[2].Symbol = "GBPUSD"

	report := Compute(ts)
	require.Len(t, report.SymbolStats, 2)

	eur := report.SymbolStats["EURUSD"]
	assert.Equal(t, 2, eur.Trades)
	assert.Equal(t, 50.0, eur.Profit)
	assert.Equal(t, 50.0, eur.WinRate)
	assert.Equal(t, 25.0, eur.AvgProfit)

	gbp := report.SymbolStats["GBPUSD"]
	assert.Equal(t, 1, gbp.Trades)
	assert.Equal(t, 100.0, gbp.WinRate)
}

func TestCompute_DailyAndMonthlyStats(t *testing.T) {
	day1 := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	ts := []trades.Trade{
		{ID: 1, OpenTime: day1, Symbol: "EURUSD", ProfitUSD: 100},
		{ID: 2, OpenTime: day1.Add(time.Hour), Symbol: "EURUSD", ProfitUSD: -30},
		{ID: 3, OpenTime: day2, Symbol: "EURUSD", ProfitUSD: -80},
		{ID: 4, OpenTime: day3, Symbol: "EURUSD", ProfitUSD: 40},
	}

	report := Compute(ts)

	require.Len(t, report.DailyStats, 3)
	first := report.DailyStats[0]
	assert.Equal(t, "2024-01-10", first.Date)
	assert.Equal(t, 2, first.Trades)
	assert.Equal(t, 70.0, first.Profit)
	assert.Equal(t, 50.0, first.WinRate)
	assert.Equal(t, -30.0, first.MaxLoss)

	assert.Equal(t, "2024-01-10", report.BestDay)
	assert.Equal(t, 70.0, report.BestDayProfit)
	assert.Equal(t, "2024-01-11", report.WorstDay)
	assert.Equal(t, -80.0, report.WorstDayProfit)

	require.Len(t, report.MonthlyStats, 2)
	jan := report.MonthlyStats[0]
	assert.Equal(t, "2024-01", jan.Month)
	assert.Equal(t, 3, jan.Trades)
	assert.Equal(t, -10.0, jan.Profit)
	assert.Equal(t, "2024-01-10", jan.BestDay)
	assert.Equal(t, "2024-01-11", jan.WorstDay)

	feb := report.MonthlyStats[1]
	assert.Equal(t, "2024-02", feb.Month)
	assert.Equal(t, 1, feb.Trades)
}

func TestCompute_BestHourUsesMeanNotSum(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	// Hour 9: three trades totaling 90 (mean 30). Hour 14: one trade of
	// 60 (mean 60). Best hour must be 14 despite the lower total.
	ts := []trades.Trade{
		{ID: 1, OpenTime: base.Add(9 * time.Hour), Symbol: "EURUSD", ProfitUSD: 30},
		{ID: 2, OpenTime: base.Add(9*time.Hour + time.Minute), Symbol: "EURUSD", ProfitUSD: 30},
		{ID: 3, OpenTime: base.Add(9*time.Hour + 2*time.Minute), Symbol: "EURUSD", ProfitUSD: 30},
		{ID: 4, OpenTime: base.Add(14 * time.Hour), Symbol: "EURUSD", ProfitUSD: 60},
	}

	report := Compute(ts)
	assert.Equal(t, 14, report.BestHour)
	assert.Equal(t, 60.0, report.BestHourProfit)
}

func TestCompute_TotalProfitPctUsesFirstTradeNotional(t *testing.T) {
	ts := tradesWithProfits(100, 100)
	ts[0].OpenPrice = 1.25
	ts[0].Volume = 2.0

	report := Compute(ts)
	// 200 / (1.25 * 2 * 100000) * 100
	assert.InDelta(t, 0.08, report.TotalProfitPct, 1e-9)
}

func TestCompute_Distributions(t *testing.T) {
	ts := tradesWithProfits(-2000, -700, -300, -50, 50, 300, 700, 2000)
	ts[0].Duration = 10
	ts[1].Duration = 45
	ts[2].Duration = 90
	ts[3].Duration = 200
	ts[4].Duration = 400
	ts[5].Duration = 1000
	ts[6].Duration = 2000
	ts[7].Duration = 15

	report := Compute(ts)

	assert.Equal(t, 1, report.ProfitDistribution["below -1000"])
	assert.Equal(t, 1, report.ProfitDistribution["-1000 to -500"])
	assert.Equal(t, 1, report.ProfitDistribution["-500 to -100"])
	assert.Equal(t, 1, report.ProfitDistribution["-100 to 0"])
	assert.Equal(t, 1, report.ProfitDistribution["0 to 100"])
	assert.Equal(t, 1, report.ProfitDistribution["100 to 500"])
	assert.Equal(t, 1, report.ProfitDistribution["500 to 1000"])
	assert.Equal(t, 1, report.ProfitDistribution["above 1000"])

	assert.Equal(t, 2, report.DurationDistribution["0-30m"])
	assert.Equal(t, 1, report.DurationDistribution["30-60m"])
	assert.Equal(t, 1, report.DurationDistribution["1-2h"])
	assert.Equal(t, 1, report.DurationDistribution["2-4h"])
	assert.Equal(t, 1, report.DurationDistribution["4-8h"])
	assert.Equal(t, 1, report.DurationDistribution["8-24h"])
	assert.Equal(t, 1, report.DurationDistribution["over 24h"])
}

func TestCompute_PeriodBounds(t *testing.T) {
	ts := tradesWithProfits(1, 2, 3)
	report := Compute(ts)

	assert.Equal(t, ts[0].OpenTime.Format(time.RFC3339), report.PeriodStart)
	assert.Equal(t, ts[2].OpenTime.Format(time.RFC3339), report.PeriodEnd)
	assert.Equal(t, 0, report.TotalDays) // 2 hours apart
}

func TestHourlyHeatmap(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	ts := []trades.Trade{
		{ID: 1, OpenTime: base.Add(9 * time.Hour), ProfitUSD: 100},
		{ID: 2, OpenTime: base.Add(9*time.Hour + 30*time.Minute), ProfitUSD: -40},
		{ID: 3, OpenTime: base.Add(15 * time.Hour), ProfitUSD: 80},
	}

	hm := HourlyHeatmap(ts)
	require.Len(t, hm.Data, 24)

	nine := hm.Data["9"]
	assert.Equal(t, 60.0, nine.Total)
	assert.Equal(t, 30.0, nine.Average)
	assert.Equal(t, 2, nine.Count)

	assert.Equal(t, HourStats{}, hm.Data["3"])
	assert.Equal(t, 15, hm.BestHour)
}

func TestHourlyHeatmap_Empty(t *testing.T) {
	hm := HourlyHeatmap(nil)
	require.Len(t, hm.Data, 24)
	assert.Equal(t, 0, hm.BestHour)
}
