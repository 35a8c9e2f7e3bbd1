package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/external/upbit"
	"github.com/dokyun/folio/internal/scheduler"
	"github.com/dokyun/folio/internal/scheduler/jobs"
	"github.com/dokyun/folio/pkg/cache"
)

// streamedPairs caps the live ticker subscription to the most traded pairs.
const streamedPairs = 20

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "백그라운드 스케줄러 시작",
	Long: `캐시 예열과 만료 엔트리 정리를 주기적으로 실행하고,
Upbit 실시간 체결 스트림으로 암호화폐 시세 캐시를 유지합니다.

Jobs:
  cache_warmup  - 시장별 후보 유니버스 캐시 예열 (10분 간격)
  cache_sweep   - 인메모리 캐시 만료 엔트리 정리 (1시간 간격)

Example:
  go run ./cmd/folio scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	sched := scheduler.New(eng.log)

	if err := sched.AddJob(jobs.NewCacheWarmupJob(eng.provider, nil, eng.log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewCacheSweepJob(eng.cache, eng.log)); err != nil {
		return err
	}

	sched.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := startCryptoStream(ctx, eng)
	if err != nil {
		// 스트림 없이도 주기 잡은 동작하므로 경고만 남긴다
		eng.log.WithError(err).Warn("Crypto ticker stream unavailable")
	}

	fmt.Println("✅ Scheduler running (Ctrl+C to stop)")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if stream != nil {
		stream.Close()
	}
	sched.Stop()
	return nil
}

// startCryptoStream subscribes to live Upbit ticker frames for the top
// traded pairs and keeps the crypto quote cache hot between REST polls.
func startCryptoStream(ctx context.Context, eng *engine) (*upbit.Stream, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	candidates, err := eng.provider.FetchCandidates(fetchCtx, contracts.MarketCrypto, contracts.CandidateFilter{
		Count: streamedPairs,
	})
	if err != nil {
		return nil, fmt.Errorf("crypto universe: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("crypto universe is empty")
	}

	codes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		codes = append(codes, c.Code)
	}

	stream := upbit.NewStream("", codes, eng.log)
	stream.OnTick(func(event *upbit.TickerEvent) {
		key := cache.QuoteKey(string(contracts.MarketCrypto), event.Code)
		eng.cache.Set(ctx, key, decimal.NewFromFloat(event.TradePrice), cache.TTLShort)
	})

	if err := stream.Start(ctx); err != nil {
		return nil, err
	}
	return stream, nil
}
