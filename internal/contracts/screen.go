package contracts

// ScreenCandidate is a normalized market record for one instrument in
// the screening universe. Nullable fields stay nil until enrichment
// fills them in.
type ScreenCandidate struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Close      float64 `json:"close"`
	ChangeRate float64 `json:"change_rate"` // percent
	Volume     float64 `json:"volume"`      // shares for equities, 24h traded value for crypto

	MarketCap     *float64 `json:"market_cap,omitempty"` // in 억원 for KR, $M for US
	PER           *float64 `json:"per,omitempty"`
	PBR           *float64 `json:"pbr,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"` // decimal fraction (0.03 = 3%)
	RSI           *float64 `json:"rsi,omitempty"`

	Sector string  `json:"sector,omitempty"`
	Score  float64 `json:"score"` // composite 0..100, filled by scoring
}

// Candle is one OHLCV bar.
type Candle struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Enrichment is the per-candidate payload fetched on demand when a
// screen or recommendation needs fields beyond the base record.
type Enrichment struct {
	RSI           *float64 `json:"rsi,omitempty"`
	ADX           *float64 `json:"adx,omitempty"`
	PlusDI        *float64 `json:"plus_di,omitempty"`
	MinusDI       *float64 `json:"minus_di,omitempty"`
	PER           *float64 `json:"per,omitempty"`
	PBR           *float64 `json:"pbr,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"` // decimal fraction
	TodayVolume   *float64 `json:"today_volume,omitempty"`
	AvgVolume20   *float64 `json:"avg_volume_20,omitempty"`
	Candles       []Candle `json:"candles,omitempty"` // oldest first
}

// CandidateFilter narrows the base universe fetch; advanced filtering
// happens in the screening engine, not the adapter.
type CandidateFilter struct {
	AssetType *AssetType
	Category  string
	Count     int
}
