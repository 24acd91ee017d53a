package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flyfox666/Coffeemaster-AI/internal/session"
	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"

	"golang.org/x/time/rate"
)

// negativeImagePrompt は、文字入りや崩れた描写を排除する標準セットなのだ。
const negativeImagePrompt = "text, letters, words, watermark, logo, low quality, blurry, distorted, deformed hands"

// ImageSource は、描写テキストから1枚の画像を生成するケイパビリティです。
type ImageSource interface {
	Generate(ctx context.Context, req domain.ImageRequest) (*domain.ImageResponse, error)
}

// SessionSink は、生成結果の適用先となるセッションストアの操作面です。
// すべての書き込みはライブネス確認つきで、適用されたかどうかを返します。
type SessionSink interface {
	Alive(ref session.Ref) bool
	SetMainImage(ref session.Ref, img *domain.ImageResponse) bool
	SetStepImage(ref session.Ref, index int, img *domain.ImageResponse) bool
	MarkDone(ref session.Ref)
}

// IllustrationRunner は、完成したレシピに対してメイン画像と手順画像を
// 直列・レート制限つきで生成していくシーケンサーなのだ。
type IllustrationRunner struct {
	images       ImageSource   // 画像生成AI（Gemini）へのアダプター
	sink         SessionSink   // 部分結果の適用先
	interval     time.Duration // 手順画像リクエスト間の待機時間
	promptSuffix string        // 全画像共通で適用する画風（スタイル）の指示
	limit        int           // 画像を生成する手順数の上限（0は無制限）
}

// NewIllustrationRunner は、IllustrationRunnerの新しいインスタンスを生成して返すのだ。
func NewIllustrationRunner(images ImageSource, sink SessionSink, interval time.Duration, promptSuffix string, limit int) *IllustrationRunner {
	return &IllustrationRunner{
		images:       images,
		sink:         sink,
		interval:     interval,
		promptSuffix: promptSuffix,
		limit:        limit,
	}
}

// Run は、メイン画像1枚と手順画像を手順インデックス順に生成するのだ。
//
// 並列化はしない。画像プロバイダのレート上限を守るため、リクエストは
// 厳密に直列で、各手順の前には必ず一定の待機を挟むのだ。待機はトークン
// バケット（burst 1）で実装していて、メイン画像が初期トークンを消費する
// ので、どの手順リクエストも丸ごと1インターバル待ってから発行されるのだよ。
//
// キャンセルは協調式。セッションのライブネスを待機の前後で確認し、
// 落ちていたら以降のリクエストは発行せず、飛行中の結果も適用しないのだ。
func (r *IllustrationRunner) Run(ctx context.Context, recipe domain.Recipe, ref session.Ref) {
	defer r.sink.MarkDone(ref)

	if !r.sink.Alive(ref) {
		return
	}

	limiter := rate.NewLimiter(rate.Every(r.interval), 1)
	if err := limiter.Wait(ctx); err != nil {
		return
	}

	// メイン画像。失敗してもログだけ残して手順画像へ進むのだ。
	// 画像なしはそのまま表示され続ける正常な終端状態で、再試行はしないのだ。
	img, err := r.images.Generate(ctx, domain.ImageRequest{
		Prompt:         r.buildMainPrompt(recipe),
		NegativePrompt: negativeImagePrompt,
		AspectRatio:    domain.AspectRatioMain,
	})
	if err != nil {
		slog.Warn("メイン画像の生成に失敗したのだ", "session", ref.ID, "error", err)
	} else if !r.sink.SetMainImage(ref, img) {
		slog.Info("セッションが破棄されたのでメイン画像を捨てたのだ", "session", ref.ID)
	}

	steps := recipe.Steps
	if r.limit > 0 && len(steps) > r.limit {
		slog.Info("手順画像の数に制限を適用したのだ", "limit", r.limit, "total", len(steps))
		steps = steps[:r.limit]
	}

	for i, step := range steps {
		if !r.sink.Alive(ref) {
			return
		}
		// 待機は手順ごとに無条件なのだ。最初の手順の前にも入るのだよ。
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		// 待機のあいだにリセットされたかもしれないので、もう一度確認するのだ
		if !r.sink.Alive(ref) {
			return
		}

		img, err := r.images.Generate(ctx, domain.ImageRequest{
			Prompt:         r.buildStepPrompt(recipe.Title, step),
			NegativePrompt: negativeImagePrompt,
			AspectRatio:    domain.AspectRatioStep,
		})
		if err != nil {
			// 手順ごとの失敗は独立なのだ。この手順は空のまま、次へ進むのだ。
			slog.Warn("手順画像の生成に失敗したのだ", "session", ref.ID, "step", i, "error", err)
			continue
		}
		if !r.sink.SetStepImage(ref, i, img) {
			slog.Info("セッションが破棄されたので手順画像を捨てたのだ", "session", ref.ID, "step", i)
		}
	}
}

// buildMainPrompt は、完成した一杯の描写プロンプトを構築するのだ。
func (r *IllustrationRunner) buildMainPrompt(recipe domain.Recipe) string {
	return fmt.Sprintf("A finished cup of coffee: %s. %s", recipe.Summary(), r.promptSuffix)
}

// buildStepPrompt は、抽出手順1コマ分の描写プロンプトを構築するのだ。
func (r *IllustrationRunner) buildStepPrompt(title, step string) string {
	return fmt.Sprintf("One step of preparing %s: %s. Close-up of the action. %s", title, step, r.promptSuffix)
}
