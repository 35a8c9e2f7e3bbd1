package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/screening"
	"github.com/dokyun/folio/pkg/logger"
)

func fptr(v float64) *float64 { return &v }

// fakePort serves canned candidates and enrichments.
type fakePort struct {
	candidates  []contracts.ScreenCandidate
	enrichments map[string]*contracts.Enrichment
	failCodes   map[string]bool
}

func (f *fakePort) FetchQuote(_ context.Context, _ string, _ contracts.Market) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("not implemented")
}

func (f *fakePort) FetchCandidates(_ context.Context, _ contracts.Market, _ contracts.CandidateFilter) ([]contracts.ScreenCandidate, error) {
	out := make([]contracts.ScreenCandidate, len(f.candidates))
	copy(out, f.candidates)
	return out, nil
}

func (f *fakePort) FetchEnrichment(_ context.Context, code string, _ contracts.Market) (*contracts.Enrichment, error) {
	if f.failCodes[code] {
		return nil, fmt.Errorf("enrichment unavailable for %s", code)
	}
	if e, ok := f.enrichments[code]; ok {
		return e, nil
	}
	return &contracts.Enrichment{}, nil
}

func newTestRecommender(port *fakePort) *Recommender {
	screener := screening.NewScreener(port, screening.DefaultConfig(), logger.Discard())
	return NewRecommender(screener, DefaultConfig(), logger.Discard())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("  Dividend ")
	require.NoError(t, err)
	assert.Equal(t, StrategyDividend, s)

	_, err = ParseStrategy("yolo")
	var invalidErr *contracts.InvalidStrategyError
	require.True(t, errors.As(err, &invalidErr))
}

func TestRecommend_InvalidMarket(t *testing.T) {
	r := newTestRecommender(&fakePort{})

	_, err := r.Recommend(context.Background(), Request{
		Budget:   1_000_000,
		Market:   contracts.Market("JP"),
		Strategy: StrategyBalanced,
	})

	var invalidErr *contracts.InvalidMarketError
	require.True(t, errors.As(err, &invalidErr), "unknown market must fail, no silent default")
}

func TestRecommend_InvalidStrategy(t *testing.T) {
	r := newTestRecommender(&fakePort{})

	_, err := r.Recommend(context.Background(), Request{
		Budget:   1_000_000,
		Market:   contracts.MarketKR,
		Strategy: Strategy("yolo"),
	})

	var invalidErr *contracts.InvalidStrategyError
	require.True(t, errors.As(err, &invalidErr))
}

func TestRecommend_NonPositiveBudget(t *testing.T) {
	r := newTestRecommender(&fakePort{})

	_, err := r.Recommend(context.Background(), Request{
		Budget:   0,
		Market:   contracts.MarketKR,
		Strategy: StrategyBalanced,
	})
	require.Error(t, err)
}

// 배당 전략: strict 3종목 < max_positions 5 → 완화 단계로 최대 2종목 보충,
// 보충 후보도 배당수익률 비결측·0 초과만 허용
func TestRecommend_DividendFallback(t *testing.T) {
	port := &fakePort{
		candidates: []contracts.ScreenCandidate{
			{Code: "A", Name: "에이", Close: 10_000, Volume: 900_000, MarketCap: fptr(400)},
			{Code: "B", Name: "비", Close: 20_000, Volume: 800_000, MarketCap: fptr(350)},
			{Code: "C", Name: "씨", Close: 15_000, Volume: 700_000, MarketCap: fptr(500)},
			{Code: "D", Name: "디", Close: 12_000, Volume: 600_000, MarketCap: fptr(250)},
			{Code: "E", Name: "이", Close: 8_000, Volume: 500_000, MarketCap: fptr(220)},
			{Code: "F", Name: "에프", Close: 9_000, Volume: 400_000, MarketCap: fptr(400)},
			{Code: "G", Name: "지", Close: 7_000, Volume: 300_000, MarketCap: fptr(260)},
		},
		enrichments: map[string]*contracts.Enrichment{
			"A": {DividendYield: fptr(0.020)},
			"B": {DividendYield: fptr(0.018)},
			"C": {DividendYield: fptr(0.016)},
			"D": {DividendYield: fptr(0.012)},
			"E": {DividendYield: fptr(0.011)},
			"F": {},                             // 배당 결측 → 완화 풀에서도 제외
			"G": {DividendYield: fptr(0.009)},   // 1% 미만 → 완화 기준도 미달
		},
	}
	r := newTestRecommender(port)

	result, err := r.Recommend(context.Background(), Request{
		Budget:       10_000_000,
		Market:       contracts.MarketKR,
		Strategy:     StrategyDividend,
		MaxPositions: 5,
	})
	require.NoError(t, err)

	assert.True(t, result.Diagnostics.FallbackApplied)
	assert.Equal(t, 3, result.Diagnostics.StrictCount)
	assert.Equal(t, 2, result.Diagnostics.FallbackAdded)

	require.Len(t, result.Recommendations, 5)
	for _, rec := range result.Recommendations {
		require.NotNil(t, rec.DividendYield, "%s: 배당 결측 후보가 포함됨", rec.Symbol)
		assert.Greater(t, *rec.DividendYield, 0.0)
		assert.NotContains(t, []string{"F", "G"}, rec.Symbol)
	}
}

func TestRecommend_NoFallbackWhenStrictPoolFull(t *testing.T) {
	candidates := make([]contracts.ScreenCandidate, 0, 6)
	enrichments := make(map[string]*contracts.Enrichment, 6)
	for i := 0; i < 6; i++ {
		code := fmt.Sprintf("S%d", i)
		candidates = append(candidates, contracts.ScreenCandidate{
			Code: code, Name: code, Close: 10_000,
			Volume: float64(1_000_000 - i*1000), MarketCap: fptr(500),
		})
		enrichments[code] = &contracts.Enrichment{DividendYield: fptr(0.03)}
	}
	r := newTestRecommender(&fakePort{candidates: candidates, enrichments: enrichments})

	result, err := r.Recommend(context.Background(), Request{
		Budget:       10_000_000,
		Market:       contracts.MarketKR,
		Strategy:     StrategyDividend,
		MaxPositions: 5,
	})
	require.NoError(t, err)

	assert.False(t, result.Diagnostics.FallbackApplied)
	assert.Equal(t, 0, result.Diagnostics.FallbackAdded)
	assert.Len(t, result.Recommendations, 5)
}

// 가치 전략: PER 초과는 탈락, PER 결측은 감점만 받고 잔류
func TestRecommend_ValueThresholdsAndPenalty(t *testing.T) {
	port := &fakePort{
		candidates: []contracts.ScreenCandidate{
			{Code: "X", Name: "엑스", Close: 10_000, Volume: 900_000, MarketCap: fptr(400)},
			{Code: "Y", Name: "와이", Close: 20_000, Volume: 800_000, MarketCap: fptr(400)},
			{Code: "Z", Name: "제트", Close: 15_000, Volume: 700_000, MarketCap: fptr(400)},
		},
		enrichments: map[string]*contracts.Enrichment{
			"X": {PBR: fptr(1.0)},               // PER 결측
			"Y": {PER: fptr(30.0), PBR: fptr(1.0)}, // 완화 기준(25)도 초과
			"Z": {PER: fptr(10.0), PBR: fptr(1.2)},
		},
	}
	r := newTestRecommender(port)

	result, err := r.Recommend(context.Background(), Request{
		Budget:       10_000_000,
		Market:       contracts.MarketKR,
		Strategy:     StrategyValue,
		MaxPositions: 5,
	})
	require.NoError(t, err)

	symbols := make([]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		symbols = append(symbols, rec.Symbol)
	}
	assert.Contains(t, symbols, "X")
	assert.Contains(t, symbols, "Z")
	assert.NotContains(t, symbols, "Y")
	assert.Equal(t, 1, result.Diagnostics.MissingPER)

	assert.True(t, result.Diagnostics.FallbackApplied, "strict 2종목 < 5")
	assert.Equal(t, 0, result.Diagnostics.FallbackAdded)
}

func TestScoreCandidate_MissingPERPenalizedForValue(t *testing.T) {
	with := contracts.ScreenCandidate{Volume: 100, PER: fptr(10), PBR: fptr(1.0)}
	without := contracts.ScreenCandidate{Volume: 100, PBR: fptr(1.0)}

	scoreWith, _ := scoreCandidate(&with, StrategyValue, 100)
	scoreWithout, _ := scoreCandidate(&without, StrategyValue, 100)

	assert.Greater(t, scoreWith, scoreWithout)
}

func TestRecommend_ExcludeSymbols(t *testing.T) {
	port := &fakePort{
		candidates: []contracts.ScreenCandidate{
			{Code: "005930", Name: "삼성전자", Close: 71_000, Volume: 1_000_000},
			{Code: "000660", Name: "SK하이닉스", Close: 180_000, Volume: 800_000},
		},
	}
	r := newTestRecommender(port)

	result, err := r.Recommend(context.Background(), Request{
		Budget:         10_000_000,
		Market:         contracts.MarketKR,
		Strategy:       StrategyBalanced,
		ExcludeSymbols: []string{"005930"},
	})
	require.NoError(t, err)

	for _, rec := range result.Recommendations {
		assert.NotEqual(t, "005930", rec.Symbol)
	}
	require.NotEmpty(t, result.Recommendations)
}

func TestRecommend_MaxPositionsRespected(t *testing.T) {
	candidates := make([]contracts.ScreenCandidate, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, contracts.ScreenCandidate{
			Code: fmt.Sprintf("C%d", i), Name: fmt.Sprintf("C%d", i),
			Close: 10_000, Volume: float64(1_000_000 - i*1000),
		})
	}
	r := newTestRecommender(&fakePort{candidates: candidates})

	result, err := r.Recommend(context.Background(), Request{
		Budget:       100_000_000,
		Market:       contracts.MarketKR,
		Strategy:     StrategyMomentum,
		MaxPositions: 3,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Recommendations), 3)
}

func TestRecommend_SumWithinBudget(t *testing.T) {
	port := &fakePort{
		candidates: []contracts.ScreenCandidate{
			{Code: "A", Name: "A", Close: 68_200, Volume: 900_000},
			{Code: "B", Name: "B", Close: 71_000, Volume: 800_000},
			{Code: "C", Name: "C", Close: 123_456, Volume: 700_000},
		},
	}
	r := newTestRecommender(port)

	for _, budget := range []float64{100_000, 500_000, 1_234_567, 70_000} {
		result, err := r.Recommend(context.Background(), Request{
			Budget:   budget,
			Market:   contracts.MarketKR,
			Strategy: StrategyBalanced,
		})
		require.NoError(t, err)

		total := decimal.Zero
		for _, rec := range result.Recommendations {
			assert.GreaterOrEqual(t, rec.Quantity, int64(1))
			total = total.Add(decimal.NewFromFloat(rec.Amount))
		}
		assert.True(t, total.LessThanOrEqual(decimal.NewFromFloat(budget)),
			"budget %v: total %s", budget, total)
	}
}

// 크립토는 스크리너의 복합 점수를 그대로 사용
func TestRecommend_CryptoUsesCompositeScore(t *testing.T) {
	port := &fakePort{
		candidates: []contracts.ScreenCandidate{
			{Code: "KRW-BTC", Name: "비트코인", Close: 95_000_000, Volume: 900e9},
			{Code: "KRW-ETH", Name: "이더리움", Close: 4_800_000, Volume: 800e9},
		},
		enrichments: map[string]*contracts.Enrichment{
			"KRW-BTC": {RSI: fptr(80)}, // 과매수 → 낮은 점수
			"KRW-ETH": {RSI: fptr(20)}, // 과매도 → 높은 점수
		},
	}
	r := newTestRecommender(port)

	result, err := r.Recommend(context.Background(), Request{
		Budget:   200_000_000,
		Market:   contracts.MarketCrypto,
		Strategy: StrategyMomentum,
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.Recommendations)
	assert.Equal(t, "KRW-ETH", result.Recommendations[0].Symbol)
	assert.Contains(t, result.Recommendations[0].Reason, "crypto composite")
}

func TestRecommend_EnrichmentFailureSurfacedNotFatal(t *testing.T) {
	port := &fakePort{
		candidates: []contracts.ScreenCandidate{
			{Code: "A", Name: "A", Close: 10_000, Volume: 900_000},
			{Code: "B", Name: "B", Close: 20_000, Volume: 800_000},
		},
		failCodes: map[string]bool{"B": true},
	}
	r := newTestRecommender(port)

	result, err := r.Recommend(context.Background(), Request{
		Budget:   1_000_000,
		Market:   contracts.MarketKR,
		Strategy: StrategyBalanced,
	})
	require.NoError(t, err, "단일 후보 실패는 전체를 중단시키지 않음")

	require.Len(t, result.Diagnostics.Errors, 1)
	assert.Equal(t, "B", result.Diagnostics.Errors[0].Symbol)
}
