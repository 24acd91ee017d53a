package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"

	genai "google.golang.org/genai"
)

// ErrNoImage は、応答のどのパートにも画像データが含まれていなかった場合のエラーです。
var ErrNoImage = errors.New("gemini: 応答に画像データが含まれていません")

// ImageGenerator は、描写テキストから1枚の画像を生成します。
type ImageGenerator struct {
	cli   *Client
	model string
}

// NewImageGenerator は、画像生成対応モデルを束ねたジェネレーターを返します。
func NewImageGenerator(cli *Client, model string) *ImageGenerator {
	return &ImageGenerator{cli: cli, model: model}
}

// Generate は画像モダリティを要求してモデルを呼び出し、最初の画像パートを返すのだ。
func (g *ImageGenerator) Generate(ctx context.Context, req domain.ImageRequest) (*domain.ImageResponse, error) {
	prompt := req.Prompt
	if req.NegativePrompt != "" {
		prompt += "\n\nAvoid: " + req.NegativePrompt
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if req.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}

	resp, err := g.cli.cli.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("画像の生成リクエストに失敗したのだ: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &domain.ImageResponse{
				Data:     part.InlineData.Data,
				MimeType: part.InlineData.MIMEType,
			}, nil
		}
	}
	return nil, ErrNoImage
}
