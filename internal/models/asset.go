// Package models defines data structures for StockSight
package models

import (
	"regexp"
	"strings"
	"time"
)

// AssetKind distinguishes the three supported asset classes
type AssetKind string

const (
	AssetKindStock AssetKind = "STOCK"
	AssetKindETF   AssetKind = "ETF"
	AssetKindFund  AssetKind = "FUND"
)

// fundCodeRe matches AMFI mutual fund scheme codes (5-6 digit numerals)
var fundCodeRe = regexp.MustCompile(`^\d{5,6}$`)

// ETFKeywords flags identifiers that are very likely exchange-traded funds.
// Matched as case-insensitive substrings of the normalized identifier.
var ETFKeywords = []string{
	"BEES", "ETF", "GOLD", "LIQUID", "HANGSENG", "NIFTY",
	"SENSEX", "MOVALUE", "MOMENTUM", "MIDCAP", "SMALLCAP", "JUNIOR",
}

// BlacklistKeys are reserved words that must never be treated as asset
// identifiers. They leak in from sync envelopes and legacy records.
var BlacklistKeys = []string{
	"status", "message", "result", "sync-ts", "sync_ts", "version", "timestamp",
}

// NormalizeIdentifier returns the canonical form of an asset identifier:
// trimmed and upper-cased. The operation is idempotent.
func NormalizeIdentifier(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsFundCode reports whether the identifier is a numeric mutual fund scheme code.
func IsFundCode(identifier string) bool {
	return fundCodeRe.MatchString(identifier)
}

// IsETFLikely reports whether the identifier carries an ETF keyword.
func IsETFLikely(identifier string) bool {
	id := strings.ToUpper(identifier)
	for _, kw := range ETFKeywords {
		if strings.Contains(id, kw) {
			return true
		}
	}
	return false
}

// IsBlacklistedKey reports whether the key is one of the reserved envelope keys.
func IsBlacklistedKey(key string) bool {
	k := strings.ToLower(key)
	for _, bad := range BlacklistKeys {
		if k == bad {
			return true
		}
	}
	return false
}

// ContainsBlacklistedKey reports whether the input contains any reserved key
// as a substring. Used on identifier intake where envelope keys sometimes
// arrive embedded in pasted text.
func ContainsBlacklistedKey(input string) bool {
	lower := strings.ToLower(input)
	for _, bad := range BlacklistKeys {
		if strings.Contains(lower, bad) {
			return true
		}
	}
	return false
}

// Fundamentals holds the raw metrics extracted from a data source.
// A zero value means the metric was not available; the scoring normalizer
// deliberately does not distinguish the two (see scoring package).
type Fundamentals struct {
	PE              float64 `json:"pe"`
	ROE             float64 `json:"roe"`
	ROCE            float64 `json:"roce"`
	MarketCap       float64 `json:"market_cap"`
	OperatingMargin float64 `json:"opm"`
	SalesGrowth3Y   float64 `json:"sales_growth_3y"`
	ProfitGrowth3Y  float64 `json:"profit_growth_3y"`
	Beta            float64 `json:"beta"`
}

// Metric returns a named metric value. Unknown names return zero, which the
// normalizer treats the same as missing data.
func (f *Fundamentals) Metric(name string) float64 {
	if f == nil {
		return 0
	}
	switch strings.ToLower(name) {
	case "pe":
		return f.PE
	case "roe":
		return f.ROE
	case "roce":
		return f.ROCE
	case "mcap", "market_cap":
		return f.MarketCap
	case "opm":
		return f.OperatingMargin
	case "growth", "sales_growth_3y":
		return f.SalesGrowth3Y
	case "profit_growth", "profit_growth_3y":
		return f.ProfitGrowth3Y
	case "beta":
		return f.Beta
	}
	return 0
}

// Returns holds trailing annualized return percentages
type Returns struct {
	R1Y float64 `json:"r1y"`
	R3Y float64 `json:"r3y"`
	R5Y float64 `json:"r5y"`
}

// Technicals holds price-level technical data
type Technicals struct {
	High52 float64 `json:"high_52w"`
	Low52  float64 `json:"low_52w"`
	MA50   float64 `json:"ma_50,omitempty"`
	MA200  float64 `json:"ma_200,omitempty"`
}

// AssetRecord is the common record every source adapter produces. A record is
// replaced wholesale on each successful resolution, never merged.
type AssetRecord struct {
	Identifier   string        `json:"identifier"`
	Name         string        `json:"name"`
	Price        float64       `json:"price"`
	Kind         AssetKind     `json:"kind"`
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	Returns      *Returns      `json:"returns,omitempty"`
	Technicals   *Technicals   `json:"technicals,omitempty"`
	FundHouse    string        `json:"fund_house,omitempty"`
	Signal       string        `json:"signal,omitempty"` // e.g. "BUY NOW", "HOLD", "AVOID"
	Source       string        `json:"source"`           // provenance: which adapter produced this
	ResolvedAt   time.Time     `json:"resolved_at"`
}

// SignalBuy is the explicit buy conviction label used by the allocation simulator.
const SignalBuy = "BUY NOW"
