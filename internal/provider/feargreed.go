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
	"time"

	"crypto-predictor/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

// DateFormats accepted by the index API. The empty format returns unix time.
var DateFormats = map[string]bool{"": true, "us": true, "cn": true, "kr": true, "world": true}

type FearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer) *FearGreedProvider {
	return &FearGreedProvider{
		client:  NewHTTPClient(15 * time.Second),
		baseURL: fearGreedBaseURL,
		tracer:  tracer,
	}
}

// FetchIndex returns the limit most recent index records, newest first.
// Only the newest record carries TimeUntilUpdate.
func (p *FearGreedProvider) FetchIndex(ctx context.Context, limit int, dateFormat string) ([]domain.SentimentRecord, error) {
	ctx, span := p.tracer.Start(ctx, "feargreed.fetch-index")
	defer span.End()

	if limit <= 0 {
		limit = 1
	}
	if !DateFormats[dateFormat] {
		return nil, fmt.Errorf("unsupported fear & greed date format: %q", dateFormat)
	}
	span.SetAttributes(attribute.Int("limit", limit), attribute.String("date_format", dateFormat))

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("format", "json")
	q.Set("date_format", dateFormat)
	endpoint := strings.TrimRight(p.baseURL, "/") + "/fng/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fear & greed API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		err := &StatusError{API: "fear & greed", Op: "index", StatusCode: resp.StatusCode}
		span.RecordError(err)
		return nil, err
	}

	var payload struct {
		Data []struct {
			Value           string          `json:"value"`
			Classification  string          `json:"value_classification"`
			Timestamp       string          `json:"timestamp"`
			TimeUntilUpdate json.RawMessage `json:"time_until_update"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fear & greed response: %w: %v", ErrMalformedResponse, err)
	}

	records := make([]domain.SentimentRecord, 0, len(payload.Data))
	for _, row := range payload.Data {
		value, err := strconv.Atoi(strings.TrimSpace(row.Value))
		if err != nil {
			return nil, fmt.Errorf("parse fear & greed value %q: %w", row.Value, ErrMalformedResponse)
		}
		record := domain.SentimentRecord{
			Value:          value,
			Classification: row.Classification,
			Timestamp:      row.Timestamp,
		}
		if len(row.TimeUntilUpdate) > 0 {
			record.HasTimeUntilUpdate = true
			record.TimeUntilUpdate = rawText(row.TimeUntilUpdate)
		}
		records = append(records, record)
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

// rawText returns a JSON string's contents, the literal text of any other
// scalar, or nil for null.
func rawText(raw json.RawMessage) *string {
	if string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	return &s
}
