package domain

import (
	"bytes"
	"encoding/json"
)

const (
	// ReferenceSymbol is always included in the bundle for market context.
	ReferenceSymbol = "KRW-BTC"
	// SentimentKey is the bundle key of the Fear & Greed table.
	SentimentKey = "fear_and_greed_index"
)

// PromptBundle is the data handed to the model as the user message.
// Markets serialize in insertion order, followed by the sentiment table.
type PromptBundle struct {
	order     []string
	markets   map[string]MarketCandles
	sentiment *Table
}

func NewPromptBundle() *PromptBundle {
	return &PromptBundle{markets: make(map[string]MarketCandles)}
}

func (b *PromptBundle) SetMarket(symbol string, candles MarketCandles) {
	if _, ok := b.markets[symbol]; !ok {
		b.order = append(b.order, symbol)
	}
	b.markets[symbol] = candles
}

func (b *PromptBundle) Market(symbol string) (MarketCandles, bool) {
	m, ok := b.markets[symbol]
	return m, ok
}

func (b *PromptBundle) SetSentiment(t Table) {
	b.sentiment = &t
}

func (b *PromptBundle) Sentiment() (Table, bool) {
	if b.sentiment == nil {
		return Table{}, false
	}
	return *b.sentiment, true
}

// Keys lists the top-level keys in serialization order.
func (b *PromptBundle) Keys() []string {
	keys := append([]string(nil), b.order...)
	if b.sentiment != nil {
		keys = append(keys, SentimentKey)
	}
	return keys
}

func (b *PromptBundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := marshalUnescaped(key)
		if err != nil {
			return err
		}
		val, err := marshalUnescaped(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	for _, symbol := range b.order {
		if err := write(symbol, b.markets[symbol]); err != nil {
			return nil, err
		}
	}
	if b.sentiment != nil {
		if err := write(SentimentKey, *b.sentiment); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode serializes the bundle without HTML escaping. A non-empty indent
// pretty-prints it.
func (b *PromptBundle) Encode(indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
