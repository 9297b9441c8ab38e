package advisor

import (
	"fmt"
	"strings"
)

// NormalizeMarket upper-cases a market symbol and checks it has the
// QUOTE-BASE shape the exchange expects, e.g. "krw-eth" -> "KRW-ETH".
func NormalizeMarket(raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	parts := strings.Split(symbol, "-")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid market %q: expected QUOTE-BASE, e.g. KRW-BTC", raw)
	}
	for _, part := range parts {
		if part == "" || strings.IndexFunc(part, func(r rune) bool {
			return !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
		}) >= 0 {
			return "", fmt.Errorf("invalid market %q: expected QUOTE-BASE, e.g. KRW-BTC", raw)
		}
	}
	return symbol, nil
}
