package gemini

import (
	"context"
	"fmt"

	genai "google.golang.org/genai"
)

// Client は公式 genai クライアントの薄いラッパーです。
// レシピ・画像・チャットの各ケイパビリティはこの共有クライアントの上に構築します。
type Client struct {
	cli *genai.Client
}

// NewClient は Gemini API バックエンドのクライアントを初期化します。
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return &Client{cli: cli}, nil
}
