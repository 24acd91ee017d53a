package builder

import (
	"github.com/flyfox666/Coffeemaster-AI/internal/config"
	"github.com/flyfox666/Coffeemaster-AI/internal/gemini"
	"github.com/flyfox666/Coffeemaster-AI/internal/session"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options  config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です（ポート、リクエスト本文、言語など）。
	Store    *session.Store         // Storeは、生成セッションの部分結果を保持するインメモリストアです。
	aiClient *gemini.Client         // aiClient はGeminiの通信に使う共通クライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, aiClient *gemini.Client, store *session.Store) AppContext {
	return AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Store:    store,
		aiClient: aiClient,
	}
}
