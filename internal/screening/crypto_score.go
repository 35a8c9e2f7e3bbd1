package screening

import "github.com/dokyun/folio/internal/contracts"

// Crypto composite score weights.
const (
	cryptoRSIWeight    = 0.4
	cryptoVolumeWeight = 0.3
	cryptoTrendWeight  = 0.3
)

// CandleShape classifies the most recently completed candle.
type CandleShape string

const (
	CandleFlat          CandleShape = "flat"
	CandleBullish       CandleShape = "bullish"
	CandleHammer        CandleShape = "hammer"
	CandleBearishStrong CandleShape = "bearish_strong"
	CandleBearishNormal CandleShape = "bearish_normal"
)

// CryptoScoreParts breaks the composite down for diagnostics.
type CryptoScoreParts struct {
	RSIScore          float64     `json:"rsi_score"`
	VolumeScore       float64     `json:"volume_score"`
	TrendScore        float64     `json:"trend_score"`
	CandleCoefficient float64     `json:"candle_coefficient"`
	CandleShape       CandleShape `json:"candle_shape"`
}

// CryptoScore computes the crypto composite:
//
//	total = clamp(0, 100, (100−RSI)×0.4 + (volume×coeff)×0.3 + trend×0.3)
//
// Missing inputs fall back to conservative defaults (RSI 50, trend 30,
// volume 0), so the score is always a finite value in [0, 100].
func CryptoScore(e *contracts.Enrichment) (float64, CryptoScoreParts) {
	parts := CryptoScoreParts{}

	rsi := 50.0 // neutral when unavailable
	if e != nil && e.RSI != nil {
		rsi = *e.RSI
	}
	parts.RSIScore = clamp(100-rsi, 0, 100)

	parts.VolumeScore = volumeScore(e)
	parts.TrendScore = trendScore(e)
	parts.CandleCoefficient, parts.CandleShape = candleCoefficient(candlesOf(e))

	total := parts.RSIScore*cryptoRSIWeight +
		parts.VolumeScore*parts.CandleCoefficient*cryptoVolumeWeight +
		parts.TrendScore*cryptoTrendWeight

	return clamp(total, 0, 100), parts
}

// volumeScore = min(today / avg20 × 33.3, 100); 0 when data is missing.
func volumeScore(e *contracts.Enrichment) float64 {
	if e == nil || e.TodayVolume == nil || e.AvgVolume20 == nil || *e.AvgVolume20 <= 0 {
		return 0
	}
	score := *e.TodayVolume / *e.AvgVolume20 * 33.3
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// trendScore grades the directional system: a confirmed uptrend scores
// 90; otherwise the score falls with trend strength (a strong ADX
// without +DI dominance means a strong downtrend). 30 when unavailable.
func trendScore(e *contracts.Enrichment) float64 {
	if e != nil && e.PlusDI != nil && e.MinusDI != nil && *e.PlusDI > *e.MinusDI {
		return 90
	}
	if e == nil || e.ADX == nil {
		return 30
	}
	switch adx := *e.ADX; {
	case adx < 35:
		return 60
	case adx <= 50:
		return 30
	default:
		return 10
	}
}

func candlesOf(e *contracts.Enrichment) []contracts.Candle {
	if e == nil {
		return nil
	}
	return e.Candles
}

// candleCoefficient reads the most recently completed candle (the
// second-to-last bar), falling back to the last when the series is too
// short.
func candleCoefficient(candles []contracts.Candle) (float64, CandleShape) {
	if len(candles) == 0 {
		return 0.5, CandleFlat
	}

	c := candles[len(candles)-1]
	if len(candles) >= 2 {
		c = candles[len(candles)-2]
	}

	rng := c.High - c.Low
	if rng <= 0 {
		return 0.5, CandleFlat
	}

	if c.Close > c.Open {
		return 1.0, CandleBullish
	}

	body := c.Open - c.Close // bearish or doji from here on
	lowerShadow := min(c.Open, c.Close) - c.Low
	if lowerShadow > 2*body {
		return 0.8, CandleHammer
	}

	if body > 0.7*rng {
		return 0.0, CandleBearishStrong
	}

	return 0.5, CandleBearishNormal
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
