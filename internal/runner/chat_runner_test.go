package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/flyfox666/Coffeemaster-AI/internal/prompt"
	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"
)

// fakeChatSource は会話モデルの代役なのだ。
type fakeChatSource struct {
	reply   domain.ChatReply
	err     error
	system  string
	history []domain.ChatTurn
	message string
}

func (f *fakeChatSource) Reply(ctx context.Context, system string, history []domain.ChatTurn, message string) (domain.ChatReply, error) {
	f.system = system
	f.history = history
	f.message = message
	if f.err != nil {
		return domain.ChatReply{}, f.err
	}
	return f.reply, nil
}

func newChatRunnerForTest(t *testing.T, src *fakeChatSource) *ChatRunner {
	t.Helper()
	pb, err := prompt.NewTemplateBuilder(prompt.ModeChat)
	if err != nil {
		t.Fatalf("プロンプトビルダーの構築に失敗したのだ: %v", err)
	}
	return NewChatRunner(src, pb)
}

func TestChatRunner_Run(t *testing.T) {
	t.Run("履歴とメッセージがそのまま転送されるのだ", func(t *testing.T) {
		src := &fakeChatSource{reply: domain.ChatReply{
			Text:      "浅煎りは酸味が立つのだ。",
			Citations: []domain.Citation{{URI: "https://example.com", Title: "Roasting"}},
		}}
		cr := newChatRunnerForTest(t, src)

		history := []domain.ChatTurn{
			{Role: domain.ChatRoleUser, Text: "豆の煎り方について教えて"},
			{Role: domain.ChatRoleModel, Text: "焙煎度には浅煎りから深煎りまであるのだ。"},
		}
		reply, err := cr.Run(context.Background(), history, "浅煎りの特徴は？", "ja")
		if err != nil {
			t.Fatalf("Run失敗なのだ: %v", err)
		}

		if reply.Text != "浅煎りは酸味が立つのだ。" {
			t.Errorf("返答本文が違うのだ: %s", reply.Text)
		}
		if len(reply.Citations) != 1 {
			t.Errorf("出典は1件のはずなのだ: %d", len(reply.Citations))
		}
		if len(src.history) != 2 || src.message != "浅煎りの特徴は？" {
			t.Error("履歴またはメッセージが正しく転送されていないのだ")
		}
		if !strings.Contains(src.system, `"ja"`) {
			t.Error("システムプロンプトに言語指定が入っていないのだ")
		}
	})

	t.Run("モデルの失敗はリクエスト致命として伝播するのだ", func(t *testing.T) {
		boom := errors.New("model unavailable")
		src := &fakeChatSource{err: boom}
		cr := newChatRunnerForTest(t, src)

		_, err := cr.Run(context.Background(), nil, "おすすめの豆は？", "ja")
		if !errors.Is(err, boom) {
			t.Errorf("元のエラーが包まれているはずなのだ: %v", err)
		}
	})
}
