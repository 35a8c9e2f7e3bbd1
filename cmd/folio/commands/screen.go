package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/screening"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "종목 스크리닝",
	Long: `시장별 규칙 테이블에 따라 종목을 필터링하고 정렬합니다.

Example:
  go run ./cmd/folio screen --market KR --limit 20
  go run ./cmd/folio screen --market KR --max-per 15 --min-dividend-yield 2
  go run ./cmd/folio screen --market CRYPTO --sort score`,
	RunE: runScreen,
}

var (
	screenMarket        string
	screenCategory      string
	screenAssetType     string
	screenMinMarketCap  float64
	screenMaxPER        float64
	screenMinDivYield   float64
	screenMaxRSI        float64
	screenSortBy        string
	screenSortOrder     string
	screenLimit         int
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVar(&screenMarket, "market", "KR", "시장 (KR|US|CRYPTO)")
	screenCmd.Flags().StringVar(&screenCategory, "category", "", "KR 거래소 (KOSPI|KOSDAQ)")
	screenCmd.Flags().StringVar(&screenAssetType, "asset-type", "", "자산 유형 (stock|etf|etn)")
	screenCmd.Flags().Float64Var(&screenMinMarketCap, "min-market-cap", 0, "최소 시가총액")
	screenCmd.Flags().Float64Var(&screenMaxPER, "max-per", 0, "최대 PER")
	screenCmd.Flags().Float64Var(&screenMinDivYield, "min-dividend-yield", 0, "최소 배당수익률 (%)")
	screenCmd.Flags().Float64Var(&screenMaxRSI, "max-rsi", 0, "최대 RSI")
	screenCmd.Flags().StringVar(&screenSortBy, "sort", "volume", "정렬 기준")
	screenCmd.Flags().StringVar(&screenSortOrder, "order", "desc", "정렬 방향 (asc|desc)")
	screenCmd.Flags().IntVar(&screenLimit, "limit", 20, "결과 수")
}

func runScreen(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	market, err := contracts.ParseMarket(screenMarket)
	if err != nil {
		return err
	}

	req := screening.Request{
		Market:    market,
		Category:  screenCategory,
		SortBy:    screening.SortField(screenSortBy),
		SortOrder: screening.SortOrder(screenSortOrder),
		Limit:     screenLimit,
	}
	if screenAssetType != "" {
		assetType := contracts.AssetType(screenAssetType)
		req.AssetType = &assetType
	}
	if screenMinMarketCap > 0 {
		req.MinMarketCap = &screenMinMarketCap
	}
	if screenMaxPER > 0 {
		req.MaxPER = &screenMaxPER
	}
	if screenMinDivYield > 0 {
		req.MinDividendYield = &screenMinDivYield
	}
	if screenMaxRSI > 0 {
		req.MaxRSI = &screenMaxRSI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := eng.screener.Screen(ctx, req)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tCLOSE\tCHANGE%\tPER\tPBR\tDIV%\tRSI\tSCORE")
	for _, c := range result.Results {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%+.2f\t%s\t%s\t%s\t%s\t%.1f\n",
			c.Code, c.Name, c.Close, c.ChangeRate,
			fmtPtr(c.PER), fmtPtr(c.PBR), fmtYield(c.DividendYield), fmtPtr(c.RSI),
			c.Score,
		)
	}
	w.Flush()

	fmt.Printf("\n%d/%d candidates", result.ReturnedCount, result.TotalCount)
	if len(result.Errors) > 0 {
		fmt.Printf(" (%d enrichment failures)", len(result.Errors))
	}
	fmt.Println()
	return nil
}

func fmtPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func fmtYield(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v*100)
}
