package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/template"
)

const (
	ModeRecipe = "recipe"
	ModeChat   = "chat"
)

//go:embed recipe.md
var RecipePrompt string

//go:embed chat.md
var ChatPrompt string

// modeTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var modeTemplates = map[string]string{
	ModeRecipe: RecipePrompt,
	ModeChat:   ChatPrompt,
}

// TemplateData はテンプレートへ埋め込む実行時の値なのだ。
type TemplateData struct {
	Request  string // ユーザーの自由文リクエスト
	Language string // 出力言語（"ja" や "en" など）
}

// PromptBuilder はAIに渡すプロンプト本文を構築するインターフェースなのだ。
type PromptBuilder interface {
	Build(data TemplateData) (string, error)
}

// GetPromptByMode は、指定されたモードに対応するプロンプト文字列を返すのだ。
func GetPromptByMode(mode string) (string, error) {
	content, ok := modeTemplates[mode]
	if !ok {
		supported := slices.Collect(maps.Keys(modeTemplates))
		slices.Sort(supported)

		return "", fmt.Errorf("サポートされていないモード: '%s'。サポートされているモードは [%s] です",
			mode, strings.Join(supported, ", "))
	}

	if content == "" {
		return "", fmt.Errorf("モード '%s' に対応するプロンプトテンプレートが空なのだ。embed設定を確認してほしいのだ", mode)
	}

	return content, nil
}

// templateBuilder は text/template でプロンプトを組み立てる実体なのだ。
type templateBuilder struct {
	tmpl *template.Template
}

// NewTemplateBuilder は、モードに対応するテンプレートを一度だけパースしてビルダーを返すのだ。
func NewTemplateBuilder(mode string) (PromptBuilder, error) {
	content, err := GetPromptByMode(mode)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(mode).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("プロンプトテンプレートのパースに失敗したのだ: %w", err)
	}

	return &templateBuilder{tmpl: tmpl}, nil
}

// Build はテンプレートへデータを流し込み、完成したプロンプトを返すのだ。
func (b *templateBuilder) Build(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("プロンプトの構築に失敗したのだ: %w", err)
	}
	return buf.String(), nil
}
