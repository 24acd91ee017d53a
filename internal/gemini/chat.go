package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"

	genai "google.golang.org/genai"
)

// ChatResponder は、Web検索グラウンディングを有効にした会話応答を生成します。
type ChatResponder struct {
	cli   *Client
	model string
}

// NewChatResponder は、チャット用モデルを束ねたレスポンダーを返します。
func NewChatResponder(cli *Client, model string) *ChatResponder {
	return &ChatResponder{cli: cli, model: model}
}

// Reply は過去のターンと新しいメッセージを送り、返答本文と出典を返すのだ。
func (c *ChatResponder) Reply(ctx context.Context, system string, history []domain.ChatTurn, message string) (domain.ChatReply, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == domain.ChatRoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := c.cli.cli.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("チャット応答の生成に失敗したのだ: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.ChatReply{}, ErrEmptyResponse
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return domain.ChatReply{}, ErrEmptyResponse
	}

	return domain.ChatReply{
		Text:      text,
		Citations: extractCitations(cand.GroundingMetadata),
	}, nil
}

// extractCitations はグラウンディングメタデータから (URI, タイトル) の出典を抽出するのだ。
// URI を持たないエントリはここで破棄するのだよ。
func extractCitations(md *genai.GroundingMetadata) []domain.Citation {
	if md == nil {
		return nil
	}
	citations := make([]domain.Citation, 0, len(md.GroundingChunks))
	for _, chunk := range md.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		citations = append(citations, domain.Citation{
			URI:   chunk.Web.URI,
			Title: chunk.Web.Title,
		})
	}
	if len(citations) == 0 {
		return nil
	}
	return citations
}
