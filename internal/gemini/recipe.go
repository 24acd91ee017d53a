package gemini

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"
)

// ErrEmptyResponse は、モデルが候補もテキストも返さなかった場合のエラーです。
var ErrEmptyResponse = errors.New("gemini: モデルからの応答が空です")

// recipeSchema は Recipe の形を構造化出力として強制するスキーマです。
var recipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":       {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
		"ingredients": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"steps":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"tips":        {Type: genai.TypeString},
	},
	Required: []string{"title", "description", "ingredients", "steps"},
}

// RecipeGenerator は、自由文のプロンプトから構造化レシピのJSONテキストを生成します。
type RecipeGenerator struct {
	cli   *Client
	model string
}

// NewRecipeGenerator は、テキスト生成モデルを束ねたジェネレーターを返します。
func NewRecipeGenerator(cli *Client, model string) *RecipeGenerator {
	return &RecipeGenerator{cli: cli, model: model}
}

// GenerateRecipeJSON は application/json を要求してモデルを呼び出し、
// レシピJSONのテキストをそのまま返すのだ。パースは呼び出し側の仕事なのだよ。
func (g *RecipeGenerator) GenerateRecipeJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   recipeSchema,
		},
	)
	if err != nil {
		return "", fmt.Errorf("レシピの生成リクエストに失敗したのだ: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
