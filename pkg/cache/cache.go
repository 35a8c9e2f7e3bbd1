package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a pluggable cache backend. Get reports a miss with
// (false, nil); backend failures come back as errors so the
// read-through layer can fall back.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // 실시간 시세
	TTLMedium = 10 * time.Minute // 후보 유니버스
	TTLLong   = 1 * time.Hour    // 마스터 데이터
)

// Cache keys are market+endpoint scoped.

func QuoteKey(market, symbol string) string {
	return fmt.Sprintf("quote:%s:%s", market, symbol)
}

func CandidatesKey(market, category string) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("candidates:%s:%s", market, category)
}

func EnrichmentKey(market, symbol string) string {
	return fmt.Sprintf("enrichment:%s:%s", market, symbol)
}

// decodeInto copies value into dest through the same JSON round-trip a
// cache hit would take, so both paths yield identical shapes.
func decodeInto(value, dest interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return json.Unmarshal(data, dest)
}
