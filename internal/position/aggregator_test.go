package position

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokyun/folio/internal/contracts"
)

func holding(broker string, qty, avg string) contracts.HoldingInfo {
	return contracts.HoldingInfo{
		Broker:   broker,
		Quantity: decimal.RequireFromString(qty),
		AvgPrice: decimal.RequireFromString(avg),
	}
}

func TestAggregate_TwoBrokers(t *testing.T) {
	// KIS 50주 @68,200 + Toss 30주 @71,000
	holdings := []contracts.HoldingInfo{
		holding("kis", "50", "68200"),
		holding("toss", "30", "71000"),
	}

	avg, total := Aggregate(holdings)

	// (50*68200 + 30*71000) / 80 = 69,250 exactly
	assert.True(t, avg.Equal(decimal.RequireFromString("69250")), "avg = %s", avg)
	assert.True(t, total.Equal(decimal.RequireFromString("80")), "total = %s", total)
}

func TestAggregate_Empty(t *testing.T) {
	avg, total := Aggregate(nil)
	assert.True(t, avg.IsZero())
	assert.True(t, total.IsZero())
}

func TestAggregate_ZeroTotalQuantity(t *testing.T) {
	holdings := []contracts.HoldingInfo{
		holding("kis", "0", "68200"),
		holding("toss", "0", "71000"),
	}

	avg, total := Aggregate(holdings)
	assert.True(t, avg.IsZero(), "zero aggregate quantity is a valid zero result, not an error")
	assert.True(t, total.IsZero())
}

func TestAggregate_SingleHolding_NoDrift(t *testing.T) {
	// 단일 보유는 평단가가 정확히 그대로 나와야 함
	prices := []string{"68200", "0.00000412", "71000.33", "123456789.99"}
	for _, p := range prices {
		avg, total := Aggregate([]contracts.HoldingInfo{holding("kis", "7", p)})
		assert.True(t, avg.Equal(decimal.RequireFromString(p)), "price %s: got %s", p, avg)
		assert.True(t, total.Equal(decimal.NewFromInt(7)))
	}
}

func TestAggregate_WeightedAverageProperty(t *testing.T) {
	// 임의 입력에 대해 combined_avg == Σ(qty·price)/Σ(qty) 정확히 성립
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(6)
		holdings := make([]contracts.HoldingInfo, 0, n)
		totalQty := decimal.Zero
		totalCost := decimal.Zero

		for i := 0; i < n; i++ {
			qty := decimal.NewFromInt(int64(rng.Intn(500)))
			price := decimal.NewFromInt(int64(rng.Intn(200000))).
				Add(decimal.NewFromInt(int64(rng.Intn(100))).Div(decimal.NewFromInt(100)))

			holdings = append(holdings, contracts.HoldingInfo{
				Broker:   fmt.Sprintf("broker_%d", i),
				Quantity: qty,
				AvgPrice: price,
			})
			totalQty = totalQty.Add(qty)
			totalCost = totalCost.Add(qty.Mul(price))
		}

		avg, total := Aggregate(holdings)
		require.True(t, total.Equal(totalQty), "trial %d: total %s != %s", trial, total, totalQty)

		if totalQty.IsZero() {
			assert.True(t, avg.IsZero(), "trial %d", trial)
			continue
		}
		expected := totalCost.Div(totalQty)
		assert.True(t, avg.Equal(expected), "trial %d: avg %s != %s", trial, avg, expected)
	}
}

func TestBuildReferencePrices(t *testing.T) {
	holdings := []contracts.HoldingInfo{
		holding("kis", "50", "68200"),
		holding("toss", "30", "71000"),
		holding("samsung", "0", "99999"), // 수량 0 → 평단 기준으로 사용 불가
	}

	ref := BuildReferencePrices(holdings)

	require.Len(t, ref.Brokers, 2)
	kis, ok := ref.Lookup("kis")
	require.True(t, ok)
	assert.True(t, kis.AvgPrice.Equal(decimal.RequireFromString("68200")))
	assert.True(t, kis.Quantity.Equal(decimal.RequireFromString("50")))

	_, ok = ref.Lookup("samsung")
	assert.False(t, ok, "zero-quantity broker must not expose an average")

	assert.True(t, ref.HasCombined)
	assert.True(t, ref.CombinedAvg.Equal(decimal.RequireFromString("69250")))
	assert.True(t, ref.TotalQuantity.Equal(decimal.RequireFromString("80")))

	lowest, ok := ref.LowestAvg()
	require.True(t, ok)
	assert.True(t, lowest.Equal(decimal.RequireFromString("68200")))
}

func TestBuildReferencePrices_Empty(t *testing.T) {
	ref := BuildReferencePrices(nil)

	assert.Empty(t, ref.Brokers)
	assert.False(t, ref.HasCombined)
	assert.True(t, ref.TotalQuantity.IsZero())

	_, ok := ref.LowestAvg()
	assert.False(t, ok)
}
