package cmd

import (
	"fmt"
	"os"

	"github.com/flyfox666/Coffeemaster-AI/internal/config"

	"github.com/spf13/cobra"
)

// opts は、フラグ解析の結果を束ねる実行時オプションなのだ。
var opts config.GenerateOptions

// rootCmd は、全サブコマンドの親となるコマンドなのだ。
var rootCmd = &cobra.Command{
	Use:   "coffeemaster",
	Short: "生成AIがあなた好みの一杯のレシピを淹れるアシスタントなのだ。",
	Long: `自由文のリクエストからコーヒーレシピを生成し、完成イメージと手順画像を
順番に描き起こすアシスタントなのだ。serve でブラウザUI、brew でワンショット生成なのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "テキスト生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ChatModel, "chat-model", "", "チャット応答に使う Gemini モデル名なのだ。")

	// --- 画像シーケンサー固有設定 ---
	rootCmd.PersistentFlags().DurationVar(&opts.StepInterval, "step-interval", 0, "手順画像リクエスト間の待機時間なのだ（例: 4s）。")
	rootCmd.PersistentFlags().IntVarP(&opts.StepLimit, "step-limit", "p", 0, "画像を生成する手順数の上限を指定するのだ（0は無制限）。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, brewCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
