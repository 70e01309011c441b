package streams

import "strings"

var quoteSuffixes = []string{"USDT", "USDC", "USD", "PERP"}

// CoinFromSymbol normalises an exchange symbol to the coin key, e.g.
// BTCUSDT, BTC-USD, XBT/USD and BTC-USDT-SWAP all map to BTC.
func CoinFromSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.TrimSuffix(s, "-SWAP")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "_", "")

	for _, quote := range quoteSuffixes {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			s = strings.TrimSuffix(s, quote)
			break
		}
	}

	if s == "XBT" {
		return "BTC"
	}

	return s
}
