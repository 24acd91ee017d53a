package cmd

import (
	"fmt"
	"log/slog"

	"github.com/flyfox666/Coffeemaster-AI/internal/config"
	"github.com/flyfox666/Coffeemaster-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// brewCmd は、サーバーなしでレシピと画像一式を生成するワンショット実行なのだ。
var brewCmd = &cobra.Command{
	Use:   "brew",
	Short: "レシピ1件と画像一式を生成してディレクトリに保存しますなのだ。",
	Long: `自由文のリクエストからレシピを生成し、完成イメージと手順画像を
順番に描き起こして、JSONと画像ファイルとして保存するのだ。`,
	RunE: brewCommand,
}

func init() {
	brewCmd.Flags().StringVarP(&opts.Request, "request", "r", "", "淹れたい一杯の自由文リクエストなのだ。")
	brewCmd.Flags().StringVarP(&opts.Language, "language", "l", config.DefaultLanguage, "レシピの言語なのだ（ja / en）。")
	brewCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "レシピJSONと画像の保存先ディレクトリなのだ。")
}

func brewCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.Request == "" {
		return fmt.Errorf("リクエスト（--request）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("ワンショット生成を起動するのだ！",
		"request", opts.Request,
		"language", opts.Language,
		"output", opts.OutputDir)

	if err := pipeline.ExecuteBrew(ctx, cfg); err != nil {
		return fmt.Errorf("生成実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
