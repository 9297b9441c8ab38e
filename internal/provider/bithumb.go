package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"crypto-predictor/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const bithumbBaseURL = "https://api.bithumb.com"

const (
	DefaultMinuteUnit  = 60
	DefaultCandleCount = 200
	MaxCandleCount     = 200
)

var minuteUnits = map[int]bool{1: true, 3: true, 5: true, 10: true, 15: true, 30: true, 60: true, 240: true}

// ValidMinuteUnit reports whether Bithumb serves minute candles of this width.
func ValidMinuteUnit(unit int) bool {
	return minuteUnits[unit]
}

// BithumbProvider fetches minute and day candles from the Bithumb public API.
type BithumbProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewBithumbProvider(tracer trace.Tracer) *BithumbProvider {
	return &BithumbProvider{
		client:  NewHTTPClient(defaultHTTPTimeout),
		baseURL: bithumbBaseURL,
		tracer:  tracer,
	}
}

// Response shape shared by the minute and day endpoints. The change fields
// are only populated on day candles.
type bithumbCandle struct {
	Market               string  `json:"market"`
	CandleDateTimeKST    string  `json:"candle_date_time_kst"`
	OpeningPrice         float64 `json:"opening_price"`
	HighPrice            float64 `json:"high_price"`
	LowPrice             float64 `json:"low_price"`
	TradePrice           float64 `json:"trade_price"`
	Timestamp            int64   `json:"timestamp"`
	CandleAccTradePrice  float64 `json:"candle_acc_trade_price"`
	CandleAccTradeVolume float64 `json:"candle_acc_trade_volume"`
	PrevClosingPrice     float64 `json:"prev_closing_price"`
	ChangePrice          float64 `json:"change_price"`
	ChangeRate           float64 `json:"change_rate"`
}

// FetchMinuteCandles returns up to count candles of unit-minute width.
// Zero values select the defaults (60 minutes, 200 candles).
func (p *BithumbProvider) FetchMinuteCandles(ctx context.Context, market string, unit, count int) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "bithumb.fetch-minute-candles")
	defer span.End()

	if unit == 0 {
		unit = DefaultMinuteUnit
	}
	if !ValidMinuteUnit(unit) {
		return nil, fmt.Errorf("unsupported minute unit: %d", unit)
	}
	count = normalizeCount(count)
	span.SetAttributes(
		attribute.String("market", market),
		attribute.Int("unit", unit),
		attribute.Int("count", count),
	)

	endpoint := fmt.Sprintf("%s/v1/candles/minutes/%d?%s",
		strings.TrimRight(p.baseURL, "/"), unit, candleQuery(market, count))

	var raw []bithumbCandle
	if err := p.getCandles(ctx, endpoint, "minute candles", &raw); err != nil {
		span.RecordError(err)
		return nil, err
	}

	label := domain.MinuteLabel(unit)
	candles := make([]domain.Candle, 0, len(raw))
	for _, c := range raw {
		candles = append(candles, c.toCandle(domain.CandleKindMinute, label))
	}
	span.SetAttributes(attribute.Int("candles", len(candles)))
	return candles, nil
}

// FetchDayCandles returns up to count daily candles, including previous
// close and change fields.
func (p *BithumbProvider) FetchDayCandles(ctx context.Context, market string, count int) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "bithumb.fetch-day-candles")
	defer span.End()

	count = normalizeCount(count)
	span.SetAttributes(
		attribute.String("market", market),
		attribute.Int("count", count),
	)

	endpoint := fmt.Sprintf("%s/v1/candles/days?%s",
		strings.TrimRight(p.baseURL, "/"), candleQuery(market, count))

	var raw []bithumbCandle
	if err := p.getCandles(ctx, endpoint, "day candles", &raw); err != nil {
		span.RecordError(err)
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, c := range raw {
		candles = append(candles, c.toCandle(domain.CandleKindDay, domain.DayLabel))
	}
	span.SetAttributes(attribute.Int("candles", len(candles)))
	return candles, nil
}

func (p *BithumbProvider) getCandles(ctx context.Context, endpoint, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("bithumb API: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{API: "bithumb", Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode bithumb %s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

func (c bithumbCandle) toCandle(kind domain.CandleKind, label string) domain.Candle {
	out := domain.Candle{
		Kind:           kind,
		DateTimeKST:    c.CandleDateTimeKST,
		OpeningPrice:   c.OpeningPrice,
		HighPrice:      c.HighPrice,
		LowPrice:       c.LowPrice,
		ClosingPrice:   c.TradePrice,
		Timestamp:      c.Timestamp,
		AccTradePrice:  c.CandleAccTradePrice,
		AccTradeVolume: c.CandleAccTradeVolume,
		Label:          label,
	}
	if kind == domain.CandleKindDay {
		prev, change, rate := c.PrevClosingPrice, c.ChangePrice, c.ChangeRate
		out.PrevClosingPrice = &prev
		out.ChangePrice = &change
		out.ChangeRate = &rate
	}
	return out
}

func candleQuery(market string, count int) string {
	q := url.Values{}
	q.Set("market", market)
	q.Set("count", strconv.Itoa(count))
	return q.Encode()
}

func normalizeCount(count int) int {
	if count <= 0 {
		return DefaultCandleCount
	}
	if count > MaxCandleCount {
		return MaxCandleCount
	}
	return count
}
