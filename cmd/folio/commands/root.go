package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Folio - 멀티 증권사 포트폴리오 정산 & 가격 결정 엔진",
	Long: `Folio Unified CLI

여러 증권사에 흩어진 포지션을 하나의 포트폴리오로 정산하고,
기준가 기반 매수/매도 가격 결정과 스크리닝/추천을 제공합니다.

Usage:
  go run ./cmd/folio [command]

Examples:
  go run ./cmd/folio api
  go run ./cmd/folio screen --market KR --limit 20
  go run ./cmd/folio recommend --market US --strategy value --budget 5000
  go run ./cmd/folio portfolio --user 1
  go run ./cmd/folio scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
