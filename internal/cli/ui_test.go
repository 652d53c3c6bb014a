package cli

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/leeduo/marketdeck/internal/api"
)

func candle(open, close, low, high string) []decimal.Decimal {
	return []decimal.Decimal{
		decimal.RequireFromString(open),
		decimal.RequireFromString(close),
		decimal.RequireFromString(low),
		decimal.RequireFromString(high),
	}
}

func TestDisplayKlineMismatchedSeriesLengths(t *testing.T) {
	// Dates longer than values/volumes must not panic; the extra rows are
	// simply not shown.
	k := &api.Kline{
		Symbol: "600519",
		Name:   "贵州茅台",
		Dates:  []string{"2025-08-13", "2025-08-14", "2025-08-15"},
		Values: [][]decimal.Decimal{
			candle("1680", "1690", "1675", "1695"),
		},
		Volumes: []decimal.Decimal{
			decimal.RequireFromString("120000"),
			decimal.RequireFromString("130000"),
		},
	}
	DisplayKline(k, 20)

	// Short candle rows are skipped, not indexed.
	k.Values = [][]decimal.Decimal{{decimal.RequireFromString("1680")}}
	DisplayKline(k, 20)

	DisplayKline(&api.Kline{}, 20)
	DisplayKline(nil, 20)
}

func TestTruncateCountsRunes(t *testing.T) {
	if got := truncate("贵州茅台股份", 4); got != "贵州茅…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
