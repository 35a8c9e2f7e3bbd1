package recommend

import (
	"fmt"

	"github.com/dokyun/folio/internal/contracts"
)

// factorParts holds the five sub-scores (each 0..100) before weighting.
type factorParts struct {
	rsi       float64
	valuation float64
	momentum  float64
	volume    float64
	dividend  float64
}

// scoreCandidate computes the weighted composite for one candidate.
// maxVolume is the pool-wide maximum, used to scale the volume factor
// deterministically within one run.
func scoreCandidate(c *contracts.ScreenCandidate, strategy Strategy, maxVolume float64) (float64, factorParts) {
	w := strategyWeights[strategy]
	parts := factorParts{
		rsi:       rsiScore(c.RSI),
		valuation: valuationScore(c.PER, c.PBR),
		momentum:  momentumScore(c.ChangeRate),
		volume:    volumeScore(c.Volume, maxVolume),
		dividend:  dividendScore(c.DividendYield),
	}

	score := parts.rsi*w.rsi +
		parts.valuation*w.valuation +
		parts.momentum*w.momentum +
		parts.volume*w.volume +
		parts.dividend*w.dividend

	if strategy == StrategyValue {
		if c.PER == nil {
			score -= missingPERPenalty
		}
		if c.PBR == nil {
			score -= missingPBRPenalty
		}
	}

	return clamp(score, 0, 100), parts
}

// rsiScore rewards oversold names: 100 − RSI, neutral 50 when missing.
func rsiScore(rsi *float64) float64 {
	if rsi == nil {
		return 50
	}
	return clamp(100-*rsi, 0, 100)
}

// valuationScore averages a PER and a PBR sub-score. PER 20 maps to 50,
// PBR 2.0 maps to 50; missing fields are neutral here (the value
// strategy applies its own penalty on top).
func valuationScore(per, pbr *float64) float64 {
	perScore := 50.0
	if per != nil && *per > 0 {
		perScore = clamp(100-*per*2.5, 0, 100)
	}
	pbrScore := 50.0
	if pbr != nil && *pbr > 0 {
		pbrScore = clamp(100-*pbr*25, 0, 100)
	}
	return (perScore + pbrScore) / 2
}

// momentumScore centers on 50 for a flat day: ±10% moves saturate.
func momentumScore(changeRate float64) float64 {
	return clamp(50+changeRate*5, 0, 100)
}

// volumeScore scales against the pool's most-traded candidate.
func volumeScore(volume, maxVolume float64) float64 {
	if maxVolume <= 0 || volume <= 0 {
		return 0
	}
	return clamp(volume/maxVolume*100, 0, 100)
}

// dividendScore saturates at a 4% yield. Missing yield scores zero, not
// neutral: absence of a dividend is meaningful for this factor.
func dividendScore(yield *float64) float64 {
	if yield == nil || *yield <= 0 {
		return 0
	}
	return clamp(*yield * 100 * 25, 0, 100)
}

// reason describes the dominant weighted factor, so the label stays
// derived from structured data rather than free prose.
func reason(strategy Strategy, parts factorParts, fallback bool) string {
	w := strategyWeights[strategy]
	label := "balanced profile"
	best := -1.0
	for _, entry := range []struct {
		contribution float64
		label        string
	}{
		{parts.rsi * w.rsi, "oversold on RSI"},
		{parts.valuation * w.valuation, "attractive valuation"},
		{parts.momentum * w.momentum, "strong momentum"},
		{parts.volume * w.volume, "active trading volume"},
		{parts.dividend * w.dividend, "solid dividend yield"},
	} {
		if entry.contribution > best {
			best = entry.contribution
			label = entry.label
		}
	}

	s := fmt.Sprintf("%s strategy: %s", strategy, label)
	if fallback {
		s += " (relaxed screening)"
	}
	return s
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
