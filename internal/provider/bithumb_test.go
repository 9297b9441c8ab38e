package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"crypto-predictor/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

const minuteCandlesBody = `[
	{"market":"KRW-ETH","candle_date_time_utc":"2024-06-01T00:00:00","candle_date_time_kst":"2024-06-01T09:00:00","opening_price":5100000,"high_price":5150000,"low_price":5090000,"trade_price":5120000,"timestamp":1717203600000,"candle_acc_trade_price":1200000000.5,"candle_acc_trade_volume":234.5,"unit":60},
	{"market":"KRW-ETH","candle_date_time_utc":"2024-05-31T23:00:00","candle_date_time_kst":"2024-06-01T08:00:00","opening_price":5080000,"high_price":5110000,"low_price":5070000,"trade_price":5100000,"timestamp":1717200000000,"candle_acc_trade_price":900000000,"candle_acc_trade_volume":176.2,"unit":60}
]`

const dayCandlesBody = `[
	{"market":"KRW-ETH","candle_date_time_kst":"2024-06-01T09:00:00","opening_price":5100000,"high_price":5200000,"low_price":5000000,"trade_price":5150000,"timestamp":1717203600000,"candle_acc_trade_price":9000000000,"candle_acc_trade_volume":1800,"prev_closing_price":5100000,"change_price":50000,"change_rate":0.0098}
]`

func newTestBithumb(t *testing.T, fn roundTripFunc) *BithumbProvider {
	t.Helper()
	p := NewBithumbProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "https://example.com"
	p.client = &http.Client{Transport: fn}
	return p
}

func TestBithumbFetchMinuteCandles(t *testing.T) {
	p := newTestBithumb(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/candles/minutes/60" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("market"); got != "KRW-ETH" {
			t.Fatalf("unexpected market: %s", got)
		}
		if got := req.URL.Query().Get("count"); got != "200" {
			t.Fatalf("unexpected count: %s", got)
		}
		if req.Header.Get("accept") != "application/json" || req.Header.Get("content-type") != "application/json" {
			t.Fatalf("missing json headers: %v", req.Header)
		}
		return jsonResponse(http.StatusOK, minuteCandlesBody), nil
	})

	candles, err := p.FetchMinuteCandles(context.Background(), "KRW-ETH", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	first := candles[0]
	if first.Kind != domain.CandleKindMinute || first.Label != "hourly" {
		t.Fatalf("unexpected kind/label: %+v", first)
	}
	if first.ClosingPrice != 5120000 || first.DateTimeKST != "2024-06-01T09:00:00" || first.Timestamp != 1717203600000 {
		t.Fatalf("unexpected candle: %+v", first)
	}
	if first.ChangeRate != nil || first.PrevClosingPrice != nil {
		t.Fatalf("minute candle should not carry day fields: %+v", first)
	}
	if len(first.Row()) != len(domain.MinuteCandleColumns) {
		t.Fatalf("unexpected row length %d", len(first.Row()))
	}
}

func TestBithumbFetchMinuteCandlesCustomUnit(t *testing.T) {
	p := newTestBithumb(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/candles/minutes/15" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("count"); got != "200" {
			t.Fatalf("count should be clamped to 200, got %s", got)
		}
		return jsonResponse(http.StatusOK, `[]`), nil
	})

	candles, err := p.FetchMinuteCandles(context.Background(), "KRW-XRP", 15, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 0 {
		t.Fatalf("expected no candles, got %d", len(candles))
	}
}

func TestBithumbFetchMinuteCandlesRejectsUnit(t *testing.T) {
	p := newTestBithumb(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for an unsupported unit")
		return nil, nil
	})
	if _, err := p.FetchMinuteCandles(context.Background(), "KRW-ETH", 7, 10); err == nil {
		t.Fatal("expected error for unit 7")
	}
}

func TestBithumbFetchDayCandles(t *testing.T) {
	p := newTestBithumb(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/candles/days" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("count"); got != "30" {
			t.Fatalf("unexpected count: %s", got)
		}
		return jsonResponse(http.StatusOK, dayCandlesBody), nil
	})

	candles, err := p.FetchDayCandles(context.Background(), "KRW-ETH", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	c := candles[0]
	if c.Label != domain.DayLabel || c.Kind != domain.CandleKindDay {
		t.Fatalf("unexpected kind/label: %+v", c)
	}
	if c.PrevClosingPrice == nil || *c.PrevClosingPrice != 5100000 {
		t.Fatalf("unexpected prev close: %+v", c)
	}
	if c.ChangePrice == nil || *c.ChangePrice != 50000 || c.ChangeRate == nil || *c.ChangeRate != 0.0098 {
		t.Fatalf("unexpected change fields: %+v", c)
	}
	if len(c.Row()) != len(domain.DayCandleColumns) {
		t.Fatalf("unexpected row length %d", len(c.Row()))
	}
}

func TestBithumbNonSuccessStatus(t *testing.T) {
	cases := []struct {
		name  string
		op    string
		fetch func(p *BithumbProvider) error
	}{
		{"minutes", "minute candles", func(p *BithumbProvider) error {
			_, err := p.FetchMinuteCandles(context.Background(), "KRW-ETH", 60, 200)
			return err
		}},
		{"days", "day candles", func(p *BithumbProvider) error {
			_, err := p.FetchDayCandles(context.Background(), "KRW-ETH", 200)
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			p := newTestBithumb(t, func(req *http.Request) (*http.Response, error) {
				atomic.AddInt32(&calls, 1)
				return jsonResponse(http.StatusTooManyRequests, `{"error":{"name":"too_many_requests"}}`), nil
			})

			err := tc.fetch(p)
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if se.Op != tc.op || se.StatusCode != http.StatusTooManyRequests || se.API != "bithumb" {
				t.Fatalf("unexpected status error: %+v", se)
			}
			if calls != 1 {
				t.Fatalf("expected exactly one request, got %d", calls)
			}
		})
	}
}

func TestBithumbMalformedBody(t *testing.T) {
	p := newTestBithumb(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"not":"a list"}`), nil
	})
	_, err := p.FetchDayCandles(context.Background(), "KRW-ETH", 1)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestValidMinuteUnit(t *testing.T) {
	for _, unit := range []int{1, 3, 5, 10, 15, 30, 60, 240} {
		if !ValidMinuteUnit(unit) {
			t.Fatalf("expected %d to be valid", unit)
		}
	}
	for _, unit := range []int{0, 2, 120, -1} {
		if ValidMinuteUnit(unit) {
			t.Fatalf("expected %d to be invalid", unit)
		}
	}
}
