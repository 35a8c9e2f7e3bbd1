package screening

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dokyun/folio/internal/contracts"
)

func TestCryptoScore_AllDefaults(t *testing.T) {
	// RSI 50 (중립), 거래량 0, 추세 30 (보수적)
	score, parts := CryptoScore(&contracts.Enrichment{})

	assert.Equal(t, 50.0, parts.RSIScore)
	assert.Equal(t, 0.0, parts.VolumeScore)
	assert.Equal(t, 30.0, parts.TrendScore)

	// 50×0.4 + 0 + 30×0.3 = 29
	assert.InDelta(t, 29.0, score, 1e-9)
}

func TestCryptoScore_NilEnrichment(t *testing.T) {
	score, _ := CryptoScore(nil)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestCryptoScore_VolumeScoreCapped(t *testing.T) {
	e := &contracts.Enrichment{
		TodayVolume: fptr(10_000),
		AvgVolume20: fptr(100),
	}
	_, parts := CryptoScore(e)
	assert.Equal(t, 100.0, parts.VolumeScore, "volume score caps at 100")
}

func TestCryptoScore_VolumeScoreFormula(t *testing.T) {
	e := &contracts.Enrichment{
		TodayVolume: fptr(200),
		AvgVolume20: fptr(100),
	}
	_, parts := CryptoScore(e)
	assert.InDelta(t, 66.6, parts.VolumeScore, 1e-9, "2× average → 66.6")
}

func TestTrendScore_Table(t *testing.T) {
	tests := []struct {
		name string
		e    *contracts.Enrichment
		want float64
	}{
		{"uptrend", &contracts.Enrichment{PlusDI: fptr(30), MinusDI: fptr(20), ADX: fptr(60)}, 90},
		{"weak trend", &contracts.Enrichment{PlusDI: fptr(10), MinusDI: fptr(20), ADX: fptr(20)}, 60},
		{"moderate downtrend", &contracts.Enrichment{PlusDI: fptr(10), MinusDI: fptr(20), ADX: fptr(40)}, 30},
		{"adx boundary 35", &contracts.Enrichment{ADX: fptr(35)}, 30},
		{"adx boundary 50", &contracts.Enrichment{ADX: fptr(50)}, 30},
		{"strong downtrend", &contracts.Enrichment{PlusDI: fptr(10), MinusDI: fptr(20), ADX: fptr(55)}, 10},
		{"no data", &contracts.Enrichment{}, 30},
		{"di only uptrend", &contracts.Enrichment{PlusDI: fptr(25), MinusDI: fptr(15)}, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trendScore(tt.e))
		})
	}
}

func TestCandleCoefficient_Shapes(t *testing.T) {
	// 두 개 이상이면 두 번째 마지막(완성된 봉) 사용
	completed := func(c contracts.Candle) []contracts.Candle {
		return []contracts.Candle{c, {Open: 1, High: 2, Low: 0.5, Close: 1.5}}
	}

	tests := []struct {
		name      string
		candle    contracts.Candle
		wantCoeff float64
		wantShape CandleShape
	}{
		{"flat", contracts.Candle{Open: 100, High: 100, Low: 100, Close: 100}, 0.5, CandleFlat},
		{"bullish", contracts.Candle{Open: 100, High: 110, Low: 99, Close: 108}, 1.0, CandleBullish},
		{"hammer", contracts.Candle{Open: 100, High: 101, Low: 90, Close: 99}, 0.8, CandleHammer},
		{"bearish strong", contracts.Candle{Open: 110, High: 110, Low: 100, Close: 101}, 0.0, CandleBearishStrong},
		{"bearish normal", contracts.Candle{Open: 105, High: 110, Low: 100, Close: 103}, 0.5, CandleBearishNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coeff, shape := candleCoefficient(completed(tt.candle))
			assert.Equal(t, tt.wantCoeff, coeff)
			assert.Equal(t, tt.wantShape, shape)
		})
	}
}

func TestCandleCoefficient_FallbackToLast(t *testing.T) {
	bullish := contracts.Candle{Open: 100, High: 110, Low: 99, Close: 108}
	coeff, shape := candleCoefficient([]contracts.Candle{bullish})
	assert.Equal(t, 1.0, coeff)
	assert.Equal(t, CandleBullish, shape)

	coeff, shape = candleCoefficient(nil)
	assert.Equal(t, 0.5, coeff)
	assert.Equal(t, CandleFlat, shape)
}

func TestCryptoScore_AlwaysInRange(t *testing.T) {
	// 결측 조합 포함 무작위 입력에 대해 항상 [0, 100]의 유한값
	rng := rand.New(rand.NewSource(7))

	maybe := func(v float64) *float64 {
		if rng.Intn(3) == 0 {
			return nil
		}
		return &v
	}

	for trial := 0; trial < 1000; trial++ {
		e := &contracts.Enrichment{
			RSI:         maybe(rng.Float64() * 120),
			ADX:         maybe(rng.Float64() * 80),
			PlusDI:      maybe(rng.Float64() * 50),
			MinusDI:     maybe(rng.Float64() * 50),
			TodayVolume: maybe(rng.Float64() * 1e12),
			AvgVolume20: maybe(rng.Float64() * 1e12),
		}
		if rng.Intn(2) == 0 {
			n := rng.Intn(4)
			for i := 0; i < n; i++ {
				base := rng.Float64() * 1000
				e.Candles = append(e.Candles, contracts.Candle{
					Open:  base,
					High:  base + rng.Float64()*10,
					Low:   base - rng.Float64()*10,
					Close: base + rng.Float64()*10 - 5,
				})
			}
		}

		score, _ := CryptoScore(e)
		assert.GreaterOrEqual(t, score, 0.0, "trial %d", trial)
		assert.LessOrEqual(t, score, 100.0, "trial %d", trial)
		assert.False(t, score != score, "trial %d: NaN", trial)
	}
}
