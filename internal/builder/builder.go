package builder

import (
	"context"
	"fmt"

	"github.com/flyfox666/Coffeemaster-AI/internal/gemini"
	"github.com/flyfox666/Coffeemaster-AI/internal/prompt"
	"github.com/flyfox666/Coffeemaster-AI/internal/runner"
	"github.com/flyfox666/Coffeemaster-AI/internal/server"
)

// BuildRecipeRunner は自由文リクエストから構造化レシピを生成する Runner を構築します。
func BuildRecipeRunner(appCtx *AppContext) (*runner.RecipeRunner, error) {
	pb, err := prompt.NewTemplateBuilder(prompt.ModeRecipe)
	if err != nil {
		return nil, fmt.Errorf("レシピ用プロンプトビルダーの構築に失敗したのだ: %w", err)
	}

	model := pick(appCtx.Options.AIModel, appCtx.Config.GeminiModel)
	source := gemini.NewRecipeGenerator(appCtx.aiClient, model)
	return runner.NewRecipeRunner(source, pb), nil
}

// BuildChatRunner は検索グラウンディングつきチャットの Runner を構築します。
func BuildChatRunner(appCtx *AppContext) (*runner.ChatRunner, error) {
	pb, err := prompt.NewTemplateBuilder(prompt.ModeChat)
	if err != nil {
		return nil, fmt.Errorf("チャット用プロンプトビルダーの構築に失敗したのだ: %w", err)
	}

	model := pick(appCtx.Options.ChatModel, appCtx.Config.GeminiChatModel)
	source := gemini.NewChatResponder(appCtx.aiClient, model)
	return runner.NewChatRunner(source, pb), nil
}

// BuildIllustrationRunner は画像シーケンサーを構築します。
// 待機間隔と手順数上限は CLI フラグが環境設定より優先されるのだ。
func BuildIllustrationRunner(appCtx *AppContext) *runner.IllustrationRunner {
	model := pick(appCtx.Options.ImageModel, appCtx.Config.GeminiImageModel)
	source := gemini.NewImageGenerator(appCtx.aiClient, model)

	interval := appCtx.Config.StepImageInterval
	if appCtx.Options.StepInterval > 0 {
		interval = appCtx.Options.StepInterval
	}

	return runner.NewIllustrationRunner(
		source,
		appCtx.Store,
		interval,
		appCtx.Config.ImagePromptSuffix,
		appCtx.Options.StepLimit,
	)
}

// BuildServer は全Runnerを束ねたHTTPサーバーを構築します。
// baseCtx はバックグラウンドの画像生成ゴルーチンの親になるのだ。
func BuildServer(baseCtx context.Context, appCtx *AppContext) (*server.Server, error) {
	recipes, err := BuildRecipeRunner(appCtx)
	if err != nil {
		return nil, err
	}
	chat, err := BuildChatRunner(appCtx)
	if err != nil {
		return nil, err
	}
	illustrator := BuildIllustrationRunner(appCtx)

	srv, err := server.New(baseCtx, recipes, chat, illustrator, appCtx.Store)
	if err != nil {
		return nil, fmt.Errorf("サーバーの構築に失敗したのだ: %w", err)
	}
	return srv, nil
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (*gemini.Client, error) {
	aiClient, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// pick はフラグ値が空でなければそれを、空なら設定値を返すのだ。
func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
