package runner

import (
	"context"
	"fmt"

	"github.com/flyfox666/Coffeemaster-AI/internal/prompt"
	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"
)

// ChatSource は、グラウンディングつきの会話応答を返すケイパビリティです。
type ChatSource interface {
	Reply(ctx context.Context, system string, history []domain.ChatTurn, message string) (domain.ChatReply, error)
}

// ChatRunner は、チャットウィジェットの1ターン分を処理するのだ。
type ChatRunner struct {
	source        ChatSource
	promptBuilder prompt.PromptBuilder
}

// NewChatRunner は、ChatRunnerの新しいインスタンスを生成して返すのだ。
func NewChatRunner(source ChatSource, pb prompt.PromptBuilder) *ChatRunner {
	return &ChatRunner{
		source:        source,
		promptBuilder: pb,
	}
}

// Run は、システムプロンプトを組み立てて過去ターンごとモデルへ転送するのだ。
// 応答の失敗はレシピ生成と同じく「リクエスト致命」で、呼び出し側がユーザーへ伝えるのだ。
func (cr *ChatRunner) Run(ctx context.Context, history []domain.ChatTurn, message, language string) (domain.ChatReply, error) {
	system, err := cr.promptBuilder.Build(prompt.TemplateData{Language: language})
	if err != nil {
		return domain.ChatReply{}, err
	}

	reply, err := cr.source.Reply(ctx, system, history, message)
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("チャット応答に失敗したのだ: %w", err)
	}
	return reply, nil
}
