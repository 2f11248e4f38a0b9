package trades

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Canonical column names the parser resolves terminal-export headers onto.
const (
	fieldOpenTime   = "open_time"
	fieldCloseTime  = "close_time"
	fieldSymbol     = "symbol"
	fieldOrderType  = "order_type"
	fieldVolume     = "volume"
	fieldOpenPrice  = "open_price"
	fieldClosePrice = "close_price"
	fieldProfitUSD  = "profit_usd"
	fieldCommission = "commission"
	fieldSwap       = "swap"
	fieldSpread     = "spread"
	fieldComment    = "comment"

	// Ambiguous headers resolved by position: the first occurrence is the
	// open side, the second the close side.
	fieldTimeAny  = "_time"
	fieldPriceAny = "_price"
)

// headerScanLimit bounds how many leading rows are inspected when the
// export carries a preamble before the real header.
const headerScanLimit = 10

// requiredFields must all resolve after alias mapping, otherwise the file
// is unusable.
var requiredFields = []string{
	fieldOpenTime, fieldCloseTime, fieldSymbol, fieldOrderType,
	fieldVolume, fieldOpenPrice, fieldClosePrice, fieldProfitUSD,
}

// columnAliases maps normalized header variants onto canonical fields.
// Terminal exports localize headers, so the table carries every spelling
// seen in the wild. Extend by adding entries, not by branching logic.
var columnAliases = map[string]string{
	// English (MT4/MT5 exports)
	"open time":   fieldOpenTime,
	"close time":  fieldCloseTime,
	"time":        fieldTimeAny,
	"symbol":      fieldSymbol,
	"type":        fieldOrderType,
	"order type":  fieldOrderType,
	"volume":      fieldVolume,
	"lots":        fieldVolume,
	"size":        fieldVolume,
	"open price":  fieldOpenPrice,
	"close price": fieldClosePrice,
	"price":       fieldPriceAny,
	"profit":      fieldProfitUSD,
	"commission":  fieldCommission,
	"swap":        fieldSwap,
	"spread":      fieldSpread,
	"comment":     fieldComment,

	// Spanish
	"hora de apertura":   fieldOpenTime,
	"hora de cierre":     fieldCloseTime,
	"hora":               fieldTimeAny,
	"símbolo":            fieldSymbol,
	"simbolo":            fieldSymbol,
	"tipo":               fieldOrderType,
	"volumen":            fieldVolume,
	"precio de apertura": fieldOpenPrice,
	"precio de cierre":   fieldClosePrice,
	"precio":             fieldPriceAny,
	"ganancias":          fieldProfitUSD,
	"beneficio":          fieldProfitUSD,
	"comisión":           fieldCommission,
	"comision":           fieldCommission,
	"comente":            fieldComment,
	"comentario":         fieldComment,
}

// timeLayouts are tried in order when coercing a timestamp cell. Terminal
// exports use a dotted date convention alongside ISO-like formats.
var timeLayouts = []string{
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"2006-01-02",
	"2006.01.02",
}

// ParseError reports an export that cannot be normalized: an unsupported
// file format, or required columns that stayed unresolved after header
// detection and alias mapping.
type ParseError struct {
	Reason  string
	Missing []string
	Found   []string
}

func (e *ParseError) Error() string {
	if len(e.Missing) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: missing columns %s (found: %s)",
		e.Reason, strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// Parser normalizes raw terminal exports into Trade records.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser that logs row-level skips through the given
// logger.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Normalize parses a tabular export into an ordered sequence of trades.
// The format is detected from the filename extension. Rows that are not
// trades (balance lines, totals) or that fail numeric coercion are
// dropped; only an unusable file as a whole returns an error.
func (p *Parser) Normalize(data []byte, filename string) ([]Trade, error) {
	rows, err := p.readRows(data, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ParseError{Reason: "file contains no rows"}
	}

	headerIdx := detectHeaderRow(rows)
	header := rows[headerIdx]
	columns, found := resolveColumns(header)

	var missing []string
	for _, f := range requiredFields {
		if _, ok := columns[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Reason:  "could not resolve required columns",
			Missing: missing,
			Found:   found,
		}
	}

	var (
		out     []Trade
		skipped int
	)
	for i := headerIdx + 1; i < len(rows); i++ {
		trade, ok, err := p.parseRow(rows[i], columns)
		if err != nil {
			skipped++
			p.logger.Warn("Skipping malformed trade row",
				zap.Int("row", i), zap.Error(err))
			continue
		}
		if !ok {
			continue // non-trade row (balance, summary, blank)
		}
		trade.ID = len(out) + 1
		out = append(out, trade)
	}

	p.logger.Info("Normalized trade export",
		zap.String("file", filepath.Base(filename)),
		zap.Int("trades", len(out)),
		zap.Int("skipped_rows", skipped))

	return out, nil
}

// readRows decodes the raw bytes into a rectangular cell grid based on the
// file extension.
func (p *Parser) readRows(data []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return readCSV(data)
	case ".xlsx", ".xls":
		return readExcel(data)
	default:
		return nil, &ParseError{
			Reason: fmt.Sprintf("unsupported file format %q", filepath.Ext(filename)),
		}
	}
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid CSV: %v", err)}
	}
	return rows, nil
}

// sniffDelimiter picks between comma and semicolon based on the first
// line; some terminals export semicolon-separated "CSV".
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func readExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid spreadsheet: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Reason: "spreadsheet has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("could not read sheet %q: %v", sheets[0], err)}
	}
	return rows, nil
}

// detectHeaderRow scans the leading rows for one that resolves both a time
// column and the symbol column, which identifies the real header beneath
// any report preamble. Falls back to row 0.
func detectHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		var hasTime, hasSymbol bool
		for _, cell := range rows[i] {
			switch columnAliases[normalizeHeader(cell)] {
			case fieldOpenTime, fieldCloseTime, fieldTimeAny:
				hasTime = true
			case fieldSymbol:
				hasSymbol = true
			}
		}
		if hasTime && hasSymbol {
			return i
		}
	}
	return 0
}

// resolveColumns maps header cells to canonical field indexes. Ambiguous
// names follow positional convention: first occurrence is the open side,
// second the close side. Returns the mapping and the headers actually
// seen, for diagnostics.
func resolveColumns(header []string) (map[string]int, []string) {
	columns := make(map[string]int)
	var found []string
	for idx, cell := range header {
		name := normalizeHeader(cell)
		if name == "" {
			continue
		}
		found = append(found, name)
		field, ok := columnAliases[name]
		if !ok {
			continue
		}
		switch field {
		case fieldTimeAny:
			field = fieldOpenTime
			if _, taken := columns[fieldOpenTime]; taken {
				field = fieldCloseTime
			}
		case fieldPriceAny:
			field = fieldOpenPrice
			if _, taken := columns[fieldOpenPrice]; taken {
				field = fieldClosePrice
			}
		}
		if _, taken := columns[field]; !taken {
			columns[field] = idx
		}
	}
	return columns, found
}

func normalizeHeader(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

// parseRow coerces one data row into a Trade. ok=false marks a non-trade
// row to drop silently; an error marks a trade row with a malformed field.
func (p *Parser) parseRow(row []string, columns map[string]int) (Trade, bool, error) {
	cell := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	symbol := cell(fieldSymbol)
	if symbol == "" {
		return Trade{}, false, nil
	}
	orderType := strings.ToUpper(cell(fieldOrderType))
	if orderType != OrderTypeBuy && orderType != OrderTypeSell {
		return Trade{}, false, nil
	}

	volume, err := parseNumber(cell(fieldVolume))
	if err != nil {
		return Trade{}, false, fmt.Errorf("volume: %w", err)
	}
	openPrice, err := parseNumber(cell(fieldOpenPrice))
	if err != nil {
		return Trade{}, false, fmt.Errorf("open price: %w", err)
	}
	closePrice, err := parseNumber(cell(fieldClosePrice))
	if err != nil {
		return Trade{}, false, fmt.Errorf("close price: %w", err)
	}
	profit, err := parseNumber(cell(fieldProfitUSD))
	if err != nil {
		return Trade{}, false, fmt.Errorf("profit: %w", err)
	}

	openTime := parseTime(cell(fieldOpenTime))
	closeTime := parseTime(cell(fieldCloseTime))

	trade := Trade{
		OpenTime:   openTime,
		CloseTime:  closeTime,
		Symbol:     symbol,
		OrderType:  orderType,
		Volume:     volume,
		OpenPrice:  openPrice,
		ClosePrice: closePrice,
		ProfitUSD:  profit,
		ProfitPct:  profitPct(profit, openPrice, volume),
		Duration:   durationMinutes(openTime, closeTime),
		Comment:    cell(fieldComment),
		Status:     statusFor(profit),
	}
	if s := cell(fieldSpread); s != "" {
		if spread, err := parseNumber(s); err == nil {
			trade.Spread = spread
		}
	}
	return trade, true, nil
}

// parseNumber coerces a numeric cell, tolerating thousands separators and
// a comma decimal point.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// parseTime tries the accepted layouts, returning the zero time when none
// match. Malformed timestamps are tolerated rather than fatal.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
