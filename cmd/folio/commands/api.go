package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokyun/folio/internal/api"
	"github.com/dokyun/folio/internal/api/handlers"
	"github.com/dokyun/folio/internal/holdings"
	"github.com/dokyun/folio/internal/pricing"
	"github.com/dokyun/folio/pkg/database"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET    /health                    - Health check
  GET    /api/portfolio             - 통합 포트폴리오 조회
  POST   /api/price/buy             - 매수 가격 결정
  POST   /api/price/sell            - 매도 가격 결정
  POST   /api/price/validate-sell   - 매도 수량 검증
  POST   /api/screen                - 종목 스크리닝
  POST   /api/recommend             - 예산 배분 추천
  GET    /api/accounts              - 계좌 목록
  POST   /api/accounts              - 계좌 등록
  DELETE /api/accounts/{id}         - 계좌 삭제 (보유 종목 포함)
  POST   /api/holdings              - 수동 보유 종목 등록/수정
  DELETE /api/holdings/{id}         - 수동 보유 종목 삭제

Example:
  go run ./cmd/folio api
  go run ./cmd/folio api --port 8091`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if apiPort != "" {
		eng.cfg.Port = apiPort
	}

	// Database for accounts and manual holdings
	db, err := database.New(eng.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := holdings.NewRepository(db.Pool)
	service := holdings.NewService(eng.executableBroker(), repo, eng.provider, eng.log)
	resolver := pricing.NewResolver(eng.cfg.Engine.PricePrecision)

	router := api.NewRouter(api.Handlers{
		Health:    handlers.NewHealthHandler(db, eng.redis, eng.log),
		Portfolio: handlers.NewPortfolioHandler(service, eng.log),
		Price:     handlers.NewPriceHandler(service, resolver, eng.provider, "kis", eng.log),
		Screen:    handlers.NewScreenHandler(eng.screener, eng.log),
		Recommend: handlers.NewRecommendHandler(eng.recommender, eng.log),
		Accounts:  handlers.NewAccountsHandler(repo, eng.log),
	}, eng.log)

	server := api.New(eng.cfg, eng.log, router)

	go func() {
		if err := server.Start(); err != nil {
			eng.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("✅ Server running on http://localhost:%s\n", eng.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
