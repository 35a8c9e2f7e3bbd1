package recommend

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAllocate_EvenShareAcrossRanks(t *testing.T) {
	// 1000을 둘로 나눠 각 500씩: 300짜리 1주, 450짜리 1주
	allocations := allocate(dec("1000"), []decimal.Decimal{dec("300"), dec("450")})

	require.Len(t, allocations, 2)
	assert.Equal(t, int64(1), allocations[0].quantity)
	assert.True(t, allocations[0].amount.Equal(dec("300")))
	assert.Equal(t, int64(1), allocations[1].quantity)
	assert.True(t, allocations[1].amount.Equal(dec("450")))
}

func TestAllocate_LeftoverToppedUpToTopRank(t *testing.T) {
	// 각 500 배분 후 잔액 400 → 1순위에 한 주 추가
	allocations := allocate(dec("1000"), []decimal.Decimal{dec("300"), dec("300")})

	require.Len(t, allocations, 2)
	assert.Equal(t, int64(2), allocations[0].quantity)
	assert.True(t, allocations[0].amount.Equal(dec("600")))
	assert.Equal(t, int64(1), allocations[1].quantity)
}

func TestAllocate_SkipsNonPositivePrices(t *testing.T) {
	allocations := allocate(dec("1000"), []decimal.Decimal{dec("0"), dec("-5"), dec("250")})

	// 유효 가격이 하나뿐이면 잔액 전부가 그 종목으로 몰림
	require.Len(t, allocations, 1)
	assert.Equal(t, 2, allocations[0].index)
	assert.Equal(t, int64(4), allocations[0].quantity)
	assert.True(t, allocations[0].amount.Equal(dec("1000")))
}

func TestAllocate_ShareTooSmallSkipsExpensivePick(t *testing.T) {
	// 몫 500으로는 900짜리를 못 삼; 400짜리가 탑업까지 받음
	allocations := allocate(dec("1000"), []decimal.Decimal{dec("900"), dec("400")})

	require.Len(t, allocations, 1)
	assert.Equal(t, 1, allocations[0].index)
	assert.Equal(t, int64(2), allocations[0].quantity)
}

func TestAllocate_BudgetTooSmall(t *testing.T) {
	allocations := allocate(dec("99"), []decimal.Decimal{dec("100"), dec("200")})
	assert.Empty(t, allocations)
}

func TestAllocate_SingleExactFit(t *testing.T) {
	allocations := allocate(dec("1000"), []decimal.Decimal{dec("250")})

	require.Len(t, allocations, 1)
	assert.Equal(t, int64(4), allocations[0].quantity)
	assert.True(t, allocations[0].amount.Equal(dec("1000")))
}

func TestAllocate_SumNeverExceedsBudget(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 500; trial++ {
		budget := decimal.NewFromFloat(rng.Float64() * 1e7)
		n := 1 + rng.Intn(8)
		prices := make([]decimal.Decimal, n)
		for i := range prices {
			// 소수 둘째 자리 가격, 일부는 0
			cents := rng.Int63n(50_000_00)
			prices[i] = decimal.New(cents, -2)
		}

		allocations := allocate(budget, prices)

		total := decimal.Zero
		for _, a := range allocations {
			require.GreaterOrEqual(t, a.quantity, int64(1), "trial %d", trial)
			expected := prices[a.index].Mul(decimal.NewFromInt(a.quantity))
			require.True(t, a.amount.Equal(expected), "trial %d: amount must equal price×quantity", trial)
			total = total.Add(a.amount)
		}
		require.True(t, total.LessThanOrEqual(budget),
			"trial %d: total %s exceeds budget %s", trial, total, budget)
	}
}
