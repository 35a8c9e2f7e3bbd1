package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokyun/folio/internal/contracts"
)

func risingCandles(n int) []contracts.Candle {
	candles := make([]contracts.Candle, n)
	price := 100.0
	for i := range candles {
		price += 1.0
		candles[i] = contracts.Candle{
			Open:   price - 0.5,
			High:   price + 1.0,
			Low:    price - 1.0,
			Close:  price,
			Volume: 1000 + float64(i),
		}
	}
	return candles
}

func TestRSI_ShortSeries(t *testing.T) {
	closes := []float64{1, 2, 3}
	assert.Nil(t, RSI(closes, DefaultPeriod))
}

func TestRSI_UptrendIsHigh(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi := RSI(closes, DefaultPeriod)
	require.NotNil(t, rsi)
	assert.Greater(t, *rsi, 70.0, "steady uptrend should be overbought")
	assert.LessOrEqual(t, *rsi, 100.0)
}

func TestDirectionalSystem_ShortSeries(t *testing.T) {
	adx, plus, minus := DirectionalSystem([]float64{1}, []float64{1}, []float64{1}, DefaultPeriod)
	assert.Nil(t, adx)
	assert.Nil(t, plus)
	assert.Nil(t, minus)
}

func TestDirectionalSystem_Uptrend(t *testing.T) {
	candles := risingCandles(60)
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i], lows[i], closes[i] = c.High, c.Low, c.Close
	}

	adx, plus, minus := DirectionalSystem(highs, lows, closes, DefaultPeriod)
	require.NotNil(t, adx)
	require.NotNil(t, plus)
	require.NotNil(t, minus)
	assert.Greater(t, *plus, *minus, "uptrend: +DI above -DI")
}

func TestVolumeProfile(t *testing.T) {
	candles := risingCandles(30)
	today, avg20 := VolumeProfile(candles)

	require.NotNil(t, today)
	require.NotNil(t, avg20)
	assert.Equal(t, candles[len(candles)-1].Volume, *today)
	assert.Greater(t, *today, *avg20, "rising volume: current above trailing average")

	today, avg20 = VolumeProfile(nil)
	assert.Nil(t, today)
	assert.Nil(t, avg20)

	today, avg20 = VolumeProfile(candles[:1])
	require.NotNil(t, today)
	assert.Nil(t, avg20)
}

func TestFromCandles(t *testing.T) {
	enrich := FromCandles(risingCandles(60))

	require.NotNil(t, enrich.RSI)
	require.NotNil(t, enrich.ADX)
	require.NotNil(t, enrich.TodayVolume)
	assert.Len(t, enrich.Candles, 60)
}
