package advisor

import (
	"fmt"
	"os"
	"strings"
)

// CryptoPlaceholder is replaced with the traded asset's ticker.
const CryptoPlaceholder = "{crypto}"

var readFileFunc = os.ReadFile

// TickerOf returns the asset part of a market symbol: "KRW-ETH" -> "ETH".
// Symbols without a separator are returned unchanged.
func TickerOf(symbol string) string {
	if _, ticker, ok := strings.Cut(symbol, "-"); ok && ticker != "" {
		return ticker
	}
	return symbol
}

func RenderInstruction(template, symbol string) string {
	return strings.ReplaceAll(template, CryptoPlaceholder, TickerOf(symbol))
}

// LoadInstruction reads the system instruction template and renders it for symbol.
func LoadInstruction(path, symbol string) (string, error) {
	data, err := readFileFunc(path)
	if err != nil {
		return "", fmt.Errorf("read instruction template: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("instruction template %s is empty", path)
	}
	return RenderInstruction(text, symbol), nil
}
