// Package indicator computes the technical indicators the screening and
// scoring layers consume from raw candle series.
package indicator

import (
	"github.com/markcheno/go-talib"

	"github.com/dokyun/folio/internal/contracts"
)

// DefaultPeriod is the lookback used for RSI and the directional system.
const DefaultPeriod = 14

// RSI returns the latest Relative Strength Index over the series, or nil
// when the series is too short. Callers apply their own neutral default.
func RSI(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	values := talib.Rsi(closes, period)
	return lastValid(values)
}

// DirectionalSystem returns the latest ADX, +DI and -DI values, or nils
// when the series is too short for the directional lookback.
func DirectionalSystem(highs, lows, closes []float64, period int) (adx, plusDI, minusDI *float64) {
	// ADX needs roughly 2× the period to stabilize.
	if len(closes) < period*2 || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil, nil, nil
	}

	adx = lastValid(talib.Adx(highs, lows, closes, period))
	plusDI = lastValid(talib.PlusDI(highs, lows, closes, period))
	minusDI = lastValid(talib.MinusDI(highs, lows, closes, period))
	return adx, plusDI, minusDI
}

// VolumeProfile returns today's volume and the 20-day average volume
// from a candle series (oldest first). The current bar is excluded from
// the average so a surge scores against the trailing baseline.
func VolumeProfile(candles []contracts.Candle) (today, avg20 *float64) {
	if len(candles) == 0 {
		return nil, nil
	}

	t := candles[len(candles)-1].Volume
	today = &t

	history := candles[:len(candles)-1]
	if len(history) == 0 {
		return today, nil
	}
	window := 20
	if len(history) < window {
		window = len(history)
	}

	var sum float64
	for _, c := range history[len(history)-window:] {
		sum += c.Volume
	}
	a := sum / float64(window)
	avg20 = &a
	return today, avg20
}

// FromCandles computes the full enrichment payload a candle series can
// provide: RSI, the directional system and the volume profile.
func FromCandles(candles []contracts.Candle) contracts.Enrichment {
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}

	enrich := contracts.Enrichment{Candles: candles}
	enrich.RSI = RSI(closes, DefaultPeriod)
	enrich.ADX, enrich.PlusDI, enrich.MinusDI = DirectionalSystem(highs, lows, closes, DefaultPeriod)
	enrich.TodayVolume, enrich.AvgVolume20 = VolumeProfile(candles)
	return enrich
}

func lastValid(values []float64) *float64 {
	for i := len(values) - 1; i >= 0; i-- {
		v := values[i]
		if v == v && v != 0 { // skip NaN and the zero-filled warmup
			return &v
		}
	}
	return nil
}
