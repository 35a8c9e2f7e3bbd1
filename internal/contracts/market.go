package contracts

import "strings"

// Market identifies a tradable market universe.
// ⭐ SSOT: 시장 구분은 이 타입으로만 표현
type Market string

const (
	MarketKR     Market = "KR"
	MarketUS     Market = "US"
	MarketCrypto Market = "CRYPTO"
)

// ParseMarket converts a user-supplied market string into a Market.
// Unknown values fail with InvalidMarketError, never a silent default.
func ParseMarket(s string) (Market, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "KR", "KOSPI", "KOSDAQ":
		return MarketKR, nil
	case "US", "NASDAQ", "NYSE":
		return MarketUS, nil
	case "CRYPTO", "COIN", "UPBIT":
		return MarketCrypto, nil
	default:
		return "", &InvalidMarketError{Value: s}
	}
}

// Valid reports whether m is one of the known markets.
func (m Market) Valid() bool {
	switch m {
	case MarketKR, MarketUS, MarketCrypto:
		return true
	}
	return false
}

// AssetType narrows the KR universe by listing type.
type AssetType string

const (
	AssetStock AssetType = "stock"
	AssetETF   AssetType = "etf"
	AssetETN   AssetType = "etn"
)
