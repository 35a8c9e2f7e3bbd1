package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/holdings"
	"github.com/dokyun/folio/pkg/database"
)

// portfolioCmd represents the portfolio command
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "통합 포트폴리오 조회",
	Long: `실계좌(KIS) 포지션과 수동 입력 보유 종목을 합산해
종목별 통합 평단가와 평가 손익을 출력합니다.

Example:
  go run ./cmd/folio portfolio --user 1
  go run ./cmd/folio portfolio --user 1 --market KR`,
	RunE: runPortfolio,
}

var (
	portfolioUserID int64
	portfolioMarket string
)

func init() {
	rootCmd.AddCommand(portfolioCmd)

	portfolioCmd.Flags().Int64Var(&portfolioUserID, "user", 0, "사용자 ID (필수)")
	portfolioCmd.Flags().StringVar(&portfolioMarket, "market", "", "시장 필터 (KR|US|CRYPTO)")
	portfolioCmd.MarkFlagRequired("user")
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	db, err := database.New(eng.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	var market *contracts.Market
	if portfolioMarket != "" {
		m, err := contracts.ParseMarket(portfolioMarket)
		if err != nil {
			return err
		}
		market = &m
	}

	repo := holdings.NewRepository(db.Pool)
	service := holdings.NewService(eng.executableBroker(), repo, eng.provider, eng.log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	merged, err := service.BuildMergedPortfolio(ctx, portfolioUserID, market)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tNAME\tMARKET\tQTY\tAVG\tPRICE\tEVAL\tP/L\tP/L%")
	for _, row := range merged {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Ticker, row.Name, row.Market,
			row.TotalQuantity.String(),
			row.CombinedAvgPrice.Round(2).String(),
			row.CurrentPrice.String(),
			row.Evaluation.Round(0).String(),
			row.ProfitLoss.Round(0).String(),
			row.ProfitRate.Round(2).String(),
		)
	}
	w.Flush()

	fmt.Printf("\n%d instruments\n", len(merged))
	return nil
}
