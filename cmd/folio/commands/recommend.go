package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/recommend"
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "예산 배분 추천",
	Long: `전략별 가중치로 후보를 스코어링하고 예산을 정수 수량으로 배분합니다.

Strategies: balanced | growth | value | dividend | momentum

Example:
  go run ./cmd/folio recommend --market KR --strategy balanced --budget 1000000
  go run ./cmd/folio recommend --market US --strategy value --budget 5000 --max-positions 3`,
	RunE: runRecommend,
}

var (
	recommendMarket       string
	recommendStrategy     string
	recommendBudget       float64
	recommendMaxPositions int
	recommendExclude      []string
)

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVar(&recommendMarket, "market", "KR", "시장 (KR|US|CRYPTO)")
	recommendCmd.Flags().StringVar(&recommendStrategy, "strategy", "balanced", "추천 전략")
	recommendCmd.Flags().Float64Var(&recommendBudget, "budget", 0, "투자 예산 (필수)")
	recommendCmd.Flags().IntVar(&recommendMaxPositions, "max-positions", 0, "최대 종목 수 (기본 5)")
	recommendCmd.Flags().StringSliceVar(&recommendExclude, "exclude", nil, "제외할 종목 코드")
	recommendCmd.MarkFlagRequired("budget")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	market, err := contracts.ParseMarket(recommendMarket)
	if err != nil {
		return err
	}
	strategy, err := recommend.ParseStrategy(recommendStrategy)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := eng.recommender.Recommend(ctx, recommend.Request{
		Budget:         recommendBudget,
		Market:         market,
		Strategy:       strategy,
		ExcludeSymbols: recommendExclude,
		MaxPositions:   recommendMaxPositions,
	})
	if err != nil {
		return err
	}

	if result.Diagnostics.FallbackApplied {
		fmt.Printf("⚠️  strict 후보 %d개 → 완화 조건으로 %d개 추가\n",
			result.Diagnostics.StrictCount, result.Diagnostics.FallbackAdded)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tPRICE\tQTY\tAMOUNT\tSCORE\tREASON")
	var total float64
	for _, rec := range result.Recommendations {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%.2f\t%.1f\t%s\n",
			rec.Symbol, rec.Name, rec.Price, rec.Quantity, rec.Amount, rec.Score, rec.Reason)
		total += rec.Amount
	}
	w.Flush()

	fmt.Printf("\nTotal allocated: %.2f / %.2f\n", total, recommendBudget)
	if len(result.Diagnostics.Errors) > 0 {
		fmt.Printf("%d symbols skipped on enrichment failures\n", len(result.Diagnostics.Errors))
	}
	return nil
}
