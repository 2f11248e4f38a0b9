package analytics

import (
	"math"
	"sort"
	"strconv"
	"time"

	"trade-analytics-go/internal/trades"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// reportBaselineMultiplier scales the first trade's notional when deriving
// the report-level percentage return. The percentage is measured against
// that single reference notional, not a running account balance; this
// mirrors the behavior of the terminal reports the output is compared
// against.
const reportBaselineMultiplier = 100000

// profitBuckets are the fixed profit distribution bins, in USD.
var profitBuckets = []struct {
	label string
	upper float64
}{
	{"below -1000", -1000},
	{"-1000 to -500", -500},
	{"-500 to -100", -100},
	{"-100 to 0", 0},
	{"0 to 100", 100},
	{"100 to 500", 500},
	{"500 to 1000", 1000},
	{"above 1000", math.Inf(1)},
}

// durationBuckets are the fixed holding-time bins, in minutes.
var durationBuckets = []struct {
	label string
	upper int
}{
	{"0-30m", 30},
	{"30-60m", 60},
	{"1-2h", 120},
	{"2-4h", 240},
	{"4-8h", 480},
	{"8-24h", 1440},
	{"over 24h", math.MaxInt},
}

// Compute builds the full analytics report from a trade history. It never
// fails: an empty input yields a zero-valued report, and every ratio
// guards its denominator. Time series are ordered by open time, ties
// broken by trade id.
func Compute(input []trades.Trade) *Analytics {
	a := newEmptyReport()
	if len(input) == 0 {
		return a
	}

	ts := make([]trades.Trade, len(input))
	copy(ts, input)
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].OpenTime.Equal(ts[j].OpenTime) {
			return ts[i].OpenTime.Before(ts[j].OpenTime)
		}
		return ts[i].ID < ts[j].ID
	})

	a.TotalTrades = len(ts)

	var grossGain, grossLoss float64
	for _, t := range ts {
		switch {
		case t.ProfitUSD > 0:
			a.WinningTrades++
			grossGain += t.ProfitUSD
		case t.ProfitUSD < 0:
			a.LosingTrades++
			grossLoss += -t.ProfitUSD
		default:
			a.BreakEven++
		}
		a.TotalProfit += t.ProfitUSD
	}

	a.AverageProfit = a.TotalProfit / float64(a.TotalTrades)
	a.WinRate = float64(a.WinningTrades) / float64(a.TotalTrades) * 100

	if baseline := math.Abs(ts[0].OpenPrice * ts[0].Volume * reportBaselineMultiplier); baseline > 0 {
		a.TotalProfitPct = a.TotalProfit / baseline * 100
	}

	if grossLoss > 0 {
		a.ProfitFactor = grossGain / grossLoss
	}

	// Payoff ratio floors the loss denominator at 1 when there are no
	// losing trades, so it degenerates to the average win in that case.
	// Established report behavior, kept as-is.
	var avgWin float64
	avgLoss := 1.0
	if a.WinningTrades > 0 {
		avgWin = grossGain / float64(a.WinningTrades)
	}
	if a.LosingTrades > 0 {
		avgLoss = grossLoss / float64(a.LosingTrades)
	}
	a.PayoffRatio = avgWin / avgLoss

	computeEquityAndDrawdown(a, ts)
	computeStreaks(a, ts)
	computeCalendarStats(a, ts)
	computeSymbolStats(a, ts)
	computeDistributions(a, ts)

	a.PeriodStart = ts[0].OpenTime.Format(time.RFC3339)
	a.PeriodEnd = ts[len(ts)-1].OpenTime.Format(time.RFC3339)
	a.TotalDays = int(ts[len(ts)-1].OpenTime.Sub(ts[0].OpenTime).Hours() / 24)

	return a
}

func newEmptyReport() *Analytics {
	a := &Analytics{
		SymbolStats:          map[string]SymbolStats{},
		EquityCurve:          []float64{},
		EquityDates:          []string{},
		DailyStats:           []DailyStats{},
		MonthlyStats:         []MonthlyStats{},
		ProfitDistribution:   map[string]int{},
		DurationDistribution: map[string]int{},
	}
	for _, b := range profitBuckets {
		a.ProfitDistribution[b.label] = 0
	}
	for _, b := range durationBuckets {
		a.DurationDistribution[b.label] = 0
	}
	return a
}

// computeEquityAndDrawdown fills the cumulative P&L curve and the
// drawdown metrics. Drawdown is the distance below the running peak, so
// every point of the series is <= 0.
func computeEquityAndDrawdown(a *Analytics, ts []trades.Trade) {
	var cumulative, runningMax, maxDD, lastDD float64
	for i, t := range ts {
		cumulative += t.ProfitUSD
		if i == 0 || cumulative > runningMax {
			runningMax = cumulative
		}
		dd := cumulative - runningMax
		if dd < maxDD {
			maxDD = dd
		}
		lastDD = dd

		a.EquityCurve = append(a.EquityCurve, cumulative)
		a.EquityDates = append(a.EquityDates, t.OpenTime.Format(time.RFC3339))
	}
	a.MaxDrawdown = maxDD
	a.CurrentDrawdown = lastDD
	if runningMax > 0 {
		a.MaxDrawdownPct = maxDD / runningMax * 100
	}
}

// computeStreaks partitions the chronological sign sequence into maximal
// constant-sign runs. A run counts as winning or losing by the sign of
// its summed profit, not the per-trade sign.
func computeStreaks(a *Analytics, ts []trades.Trade) {
	var runLen, prevSign int
	var runSum float64

	closeRun := func() {
		if runSum > 0 && runLen > a.LongestWinStreak {
			a.LongestWinStreak = runLen
		}
		if runSum < 0 && runLen > a.LongestLossStreak {
			a.LongestLossStreak = runLen
		}
	}

	for i, t := range ts {
		s := sign(t.ProfitUSD)
		if i > 0 && s != prevSign {
			closeRun()
			runLen, runSum = 0, 0
		}
		runLen++
		runSum += t.ProfitUSD
		prevSign = s
	}
	closeRun()

	a.CurrentStreak = sign(ts[len(ts)-1].ProfitUSD)
}

type dayAgg struct {
	trades  int
	profit  float64
	wins    int
	maxLoss float64
}

type monthAgg struct {
	trades   int
	profit   float64
	wins     int
	dayOrder []string
	days     map[string]float64
}

// computeCalendarStats fills the daily and monthly series plus the
// best/worst day and best hour aggregates. Grouping uses the calendar
// date of the open time as exported, with no timezone normalization.
func computeCalendarStats(a *Analytics, ts []trades.Trade) {
	days := map[string]*dayAgg{}
	months := map[string]*monthAgg{}
	var dayOrder, monthOrder []string

	var hourSum [24]float64
	var hourCount [24]int

	for _, t := range ts {
		date := t.OpenTime.Format(dateLayout)
		d, ok := days[date]
		if !ok {
			d = &dayAgg{maxLoss: t.ProfitUSD}
			days[date] = d
			dayOrder = append(dayOrder, date)
		}
		d.trades++
		d.profit += t.ProfitUSD
		if t.ProfitUSD > 0 {
			d.wins++
		}
		if t.ProfitUSD < d.maxLoss {
			d.maxLoss = t.ProfitUSD
		}

		month := t.OpenTime.Format(monthLayout)
		m, ok := months[month]
		if !ok {
			m = &monthAgg{days: map[string]float64{}}
			months[month] = m
			monthOrder = append(monthOrder, month)
		}
		m.trades++
		m.profit += t.ProfitUSD
		if t.ProfitUSD > 0 {
			m.wins++
		}
		if _, seen := m.days[date]; !seen {
			m.dayOrder = append(m.dayOrder, date)
		}
		m.days[date] += t.ProfitUSD

		h := t.OpenTime.Hour()
		hourSum[h] += t.ProfitUSD
		hourCount[h]++
	}

	for i, date := range dayOrder {
		d := days[date]
		a.DailyStats = append(a.DailyStats, DailyStats{
			Date:    date,
			Trades:  d.trades,
			Profit:  d.profit,
			WinRate: float64(d.wins) / float64(d.trades) * 100,
			MaxLoss: d.maxLoss,
		})
		if i == 0 || d.profit > a.BestDayProfit {
			a.BestDay, a.BestDayProfit = date, d.profit
		}
		if i == 0 || d.profit < a.WorstDayProfit {
			a.WorstDay, a.WorstDayProfit = date, d.profit
		}
	}

	for _, month := range monthOrder {
		m := months[month]
		var bestDay, worstDay string
		var bestProfit, worstProfit float64
		for i, date := range m.dayOrder {
			p := m.days[date]
			if i == 0 || p > bestProfit {
				bestDay, bestProfit = date, p
			}
			if i == 0 || p < worstProfit {
				worstDay, worstProfit = date, p
			}
		}
		a.MonthlyStats = append(a.MonthlyStats, MonthlyStats{
			Month:    month,
			Trades:   m.trades,
			Profit:   m.profit,
			WinRate:  float64(m.wins) / float64(m.trades) * 100,
			BestDay:  bestDay,
			WorstDay: worstDay,
		})
	}

	// Best hour ranks by mean profit per hour-of-day, not the sum.
	first := true
	for h := 0; h < 24; h++ {
		if hourCount[h] == 0 {
			continue
		}
		mean := hourSum[h] / float64(hourCount[h])
		if first || mean > a.BestHourProfit {
			a.BestHour, a.BestHourProfit = h, mean
			first = false
		}
	}
}

func computeSymbolStats(a *Analytics, ts []trades.Trade) {
	type symbolAgg struct {
		trades int
		profit float64
		wins   int
	}
	bySymbol := map[string]*symbolAgg{}
	for _, t := range ts {
		s, ok := bySymbol[t.Symbol]
		if !ok {
			s = &symbolAgg{}
			bySymbol[t.Symbol] = s
		}
		s.trades++
		s.profit += t.ProfitUSD
		if t.ProfitUSD > 0 {
			s.wins++
		}
	}
	for symbol, s := range bySymbol {
		a.SymbolStats[symbol] = SymbolStats{
			Trades:    s.trades,
			Profit:    s.profit,
			WinRate:   float64(s.wins) / float64(s.trades) * 100,
			AvgProfit: s.profit / float64(s.trades),
		}
	}
}

func computeDistributions(a *Analytics, ts []trades.Trade) {
	for _, t := range ts {
		for _, b := range profitBuckets {
			if t.ProfitUSD <= b.upper {
				a.ProfitDistribution[b.label]++
				break
			}
		}
		for _, b := range durationBuckets {
			if t.Duration <= b.upper {
				a.DurationDistribution[b.label]++
				break
			}
		}
	}
}

// HourlyHeatmap breaks profitability down by hour of day across all
// dates, with every hour present in the output.
func HourlyHeatmap(input []trades.Trade) *Heatmap {
	var hourSum [24]float64
	var hourCount [24]int
	for _, t := range input {
		h := t.OpenTime.Hour()
		hourSum[h] += t.ProfitUSD
		hourCount[h]++
	}

	hm := &Heatmap{Data: make(map[string]HourStats, 24)}
	first := true
	var bestMean float64
	for h := 0; h < 24; h++ {
		stats := HourStats{Total: hourSum[h], Count: hourCount[h]}
		if hourCount[h] > 0 {
			stats.Average = hourSum[h] / float64(hourCount[h])
			if first || stats.Average > bestMean {
				hm.BestHour, bestMean = h, stats.Average
				first = false
			}
		}
		hm.Data[strconv.Itoa(h)] = stats
	}
	return hm
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
