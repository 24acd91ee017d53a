package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/flyfox666/Coffeemaster-AI/internal/prompt"
	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"
)

// ErrUnparsableRecipe は、モデル応答がレシピの形に解釈できなかったエラーです。
// 形の崩れた応答も空の応答も、通信エラーと同じ「リクエスト致命」クラスとして扱います。
var ErrUnparsableRecipe = errors.New("runner: モデル応答をレシピとして解釈できません")

// RecipeSource は、プロンプトからレシピJSONテキストを生成するケイパビリティです。
type RecipeSource interface {
	GenerateRecipeJSON(ctx context.Context, prompt string) (string, error)
}

// RecipeRunner は、自由文リクエストから構造化レシピを生成する核となる構造体なのだ。
type RecipeRunner struct {
	source        RecipeSource         // Gemini APIと通信するクライアント
	promptBuilder prompt.PromptBuilder // AIに渡すプロンプトを構築するビルダー
}

// NewRecipeRunner は、RecipeRunnerの新しいインスタンスを生成して返すのだ。
func NewRecipeRunner(source RecipeSource, pb prompt.PromptBuilder) *RecipeRunner {
	return &RecipeRunner{
		source:        source,
		promptBuilder: pb,
	}
}

// Run は、プロンプト構築、AIによる生成、結果のパースを一気に行うのだ。
func (rr *RecipeRunner) Run(ctx context.Context, request, language string) (domain.Recipe, error) {
	promptContent, err := rr.promptBuilder.Build(prompt.TemplateData{
		Request:  request,
		Language: language,
	})
	if err != nil {
		return domain.Recipe{}, err
	}

	raw, err := rr.source.GenerateRecipeJSON(ctx, promptContent)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("レシピの生成に失敗したのだ: %w", err)
	}

	recipe, err := parseResponse(raw)
	if err != nil {
		return domain.Recipe{}, err
	}

	return recipe, nil
}

// parseResponse は、AIが返したテキストからMarkdownのコードブロック等を除去してJSONとしてパースするのだ。
func parseResponse(raw string) (domain.Recipe, error) {
	// 余計な空白や、AIが付けがちなMarkdownタグ (```json ... ```) を取り除く処理なのだ
	rawJSON := strings.TrimSpace(raw)
	rawJSON = strings.TrimPrefix(rawJSON, "```json")
	rawJSON = strings.TrimSuffix(rawJSON, "```")
	rawJSON = strings.TrimSpace(rawJSON)

	var recipe domain.Recipe
	if err := json.Unmarshal([]byte(rawJSON), &recipe); err != nil {
		return domain.Recipe{}, fmt.Errorf("%w: %v", ErrUnparsableRecipe, err)
	}
	if recipe.IsEmpty() {
		return domain.Recipe{}, fmt.Errorf("%w: タイトルまたは手順が空です", ErrUnparsableRecipe)
	}
	return recipe, nil
}
