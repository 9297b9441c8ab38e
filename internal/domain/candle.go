package domain

import "fmt"

// CandleKind distinguishes minute-resolution from day-resolution candles.
type CandleKind string

const (
	CandleKindMinute CandleKind = "minute"
	CandleKindDay    CandleKind = "day"
)

// CandleLayout selects how a candle set is serialized into the prompt bundle.
type CandleLayout string

const (
	// LayoutRecords emits one JSON object per candle.
	LayoutRecords CandleLayout = "records"
	// LayoutColumns emits a {columns, data} table.
	LayoutColumns CandleLayout = "columns"
)

func (l CandleLayout) IsValid() bool {
	return l == LayoutRecords || l == LayoutColumns
}

// MinuteCandleColumns is the declared column order of minute candles.
var MinuteCandleColumns = []string{
	"candle_datetime_kst",
	"opening_price",
	"high_price",
	"low_price",
	"closing_price",
	"timestamp",
	"candle_acc_trade_price",
	"candle_acc_trade_volume",
	"label",
}

// DayCandleColumns adds previous close and change fields before the label.
var DayCandleColumns = []string{
	"candle_datetime_kst",
	"opening_price",
	"high_price",
	"low_price",
	"closing_price",
	"timestamp",
	"candle_acc_trade_price",
	"candle_acc_trade_volume",
	"prev_closing_price",
	"change_price",
	"change_rate",
	"label",
}

// Candle is one time-bucketed OHLCV record from the exchange.
// The change fields are only set on day candles.
type Candle struct {
	Kind             CandleKind `json:"-"`
	DateTimeKST      string     `json:"candle_datetime_kst"`
	OpeningPrice     float64    `json:"opening_price"`
	HighPrice        float64    `json:"high_price"`
	LowPrice         float64    `json:"low_price"`
	ClosingPrice     float64    `json:"closing_price"`
	Timestamp        int64      `json:"timestamp"`
	AccTradePrice    float64    `json:"candle_acc_trade_price"`
	AccTradeVolume   float64    `json:"candle_acc_trade_volume"`
	PrevClosingPrice *float64   `json:"prev_closing_price,omitempty"`
	ChangePrice      *float64   `json:"change_price,omitempty"`
	ChangeRate       *float64   `json:"change_rate,omitempty"`
	Label            string     `json:"label"`
}

// MinuteLabel names a minute bucket width the way the report readers expect.
func MinuteLabel(unit int) string {
	if unit == 60 {
		return "hourly"
	}
	return fmt.Sprintf("%dm", unit)
}

// DayLabel is the label carried by day candles.
const DayLabel = "daily"

// Columns returns the column order matching Row.
func (c Candle) Columns() []string {
	if c.Kind == CandleKindDay {
		return DayCandleColumns
	}
	return MinuteCandleColumns
}

// Row returns the candle values in Columns order.
func (c Candle) Row() []any {
	row := []any{
		c.DateTimeKST,
		c.OpeningPrice,
		c.HighPrice,
		c.LowPrice,
		c.ClosingPrice,
		c.Timestamp,
		c.AccTradePrice,
		c.AccTradeVolume,
	}
	if c.Kind == CandleKindDay {
		row = append(row, floatOrZero(c.PrevClosingPrice), floatOrZero(c.ChangePrice), floatOrZero(c.ChangeRate))
	}
	return append(row, c.Label)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// CandleSet is the candles of one kind for one market, plus the layout used
// when it is serialized.
type CandleSet struct {
	Kind    CandleKind
	Layout  CandleLayout
	Candles []Candle
}

func NewCandleSet(kind CandleKind, layout CandleLayout, candles []Candle) CandleSet {
	if !layout.IsValid() {
		layout = LayoutRecords
	}
	return CandleSet{Kind: kind, Layout: layout, Candles: candles}
}

// Table converts the set to the columnar shape.
func (s CandleSet) Table() Table {
	columns := MinuteCandleColumns
	if s.Kind == CandleKindDay {
		columns = DayCandleColumns
	}
	rows := make([][]any, 0, len(s.Candles))
	for _, c := range s.Candles {
		rows = append(rows, c.Row())
	}
	return Table{Columns: columns, Data: rows}
}

func (s CandleSet) MarshalJSON() ([]byte, error) {
	if s.Layout == LayoutColumns {
		return marshalUnescaped(s.Table())
	}
	candles := s.Candles
	if candles == nil {
		candles = []Candle{}
	}
	return marshalUnescaped(candles)
}

// MarketCandles groups the minute and day sets of one market.
type MarketCandles struct {
	Minutes CandleSet `json:"minutes"`
	Days    CandleSet `json:"days"`
}
