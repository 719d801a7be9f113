package feed

import "time"

// PriceScale is the fixed-point denominator for the price columns.
// Price cells hold signed integers scaled by 1e9, so a stored value of
// 10_500_000_000 decodes to 10.5.
const PriceScale = 1_000_000_000

// Required column names, matched case-sensitively against the CSV header.
const (
	ColTsEvent = "ts_event"
	ColOpen    = "open"
	ColHigh    = "high"
	ColLow     = "low"
	ColClose   = "close"
	ColVolume  = "volume"
	ColSymbol  = "symbol"
)

// RequiredColumns lists every column a feed file must carry.
// Columns beyond these are tolerated and ignored.
var RequiredColumns = []string{
	ColTsEvent,
	ColOpen,
	ColHigh,
	ColLow,
	ColClose,
	ColVolume,
	ColSymbol,
}

// Bar is a single OHLCV record from the feed file.
type Bar struct {
	TsEvent uint64 // Event timestamp (nanoseconds since the UNIX epoch)
	Open    int64  // Opening price (fixed-point, scaled by PriceScale)
	High    int64  // Highest price during the interval
	Low     int64  // Lowest price during the interval
	Close   int64  // Closing price
	Volume  uint64 // Trade volume (number of units traded)
	Symbol  string // Trading symbol (e.g., "MNQZ4")
}

// Time returns the event timestamp as a UTC time.
func (b Bar) Time() time.Time {
	return time.Unix(0, int64(b.TsEvent)).UTC()
}

// OpenPrice returns the opening price decoded from fixed point.
func (b Bar) OpenPrice() float64 { return float64(b.Open) / PriceScale }

// HighPrice returns the highest price decoded from fixed point.
func (b Bar) HighPrice() float64 { return float64(b.High) / PriceScale }

// LowPrice returns the lowest price decoded from fixed point.
func (b Bar) LowPrice() float64 { return float64(b.Low) / PriceScale }

// ClosePrice returns the closing price decoded from fixed point.
func (b Bar) ClosePrice() float64 { return float64(b.Close) / PriceScale }
