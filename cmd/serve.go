package cmd

import (
	"fmt"
	"log/slog"

	"github.com/flyfox666/Coffeemaster-AI/internal/config"
	"github.com/flyfox666/Coffeemaster-AI/internal/pipeline"

	"github.com/spf13/cobra"
)

// serveCmd は、ブラウザUIとJSON APIのHTTPサーバーを起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "レシピアシスタントのWebサーバーを起動しますなのだ。",
	Long: `ブラウザUI、レシピ生成API、画像シーケンサー、チャットAPIをまとめて提供するのだ。
Ctrl+C か SIGTERM でグレースフルに停止するのだよ。`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&opts.Port, "port", "", "待ち受けるポート番号なのだ（既定は環境変数 PORT か 8080）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("コーヒーマスターを起動するのだ！",
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel,
		"chat_model", cfg.GeminiChatModel)

	if err := pipeline.ExecuteServe(ctx, cfg); err != nil {
		return fmt.Errorf("サーバー実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}
