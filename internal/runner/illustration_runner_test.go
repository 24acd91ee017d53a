package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/flyfox666/Coffeemaster-AI/internal/session"
	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"
)

const testInterval = 5 * time.Millisecond

// fakeImageSource は画像生成AIの代役なのだ。呼び出し順に記録して、
// 指定された呼び出しだけ失敗させたり、フックでキャンセルを注入したりできるのだ。
type fakeImageSource struct {
	mu       sync.Mutex
	requests []domain.ImageRequest
	failAt   map[int]bool
	hook     func(call int) // リクエストが飛行中のタイミングで呼ばれるのだ
}

func (f *fakeImageSource) Generate(ctx context.Context, req domain.ImageRequest) (*domain.ImageResponse, error) {
	f.mu.Lock()
	call := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.hook != nil {
		f.hook(call)
	}
	if f.failAt[call] {
		return nil, errors.New("provider error")
	}
	return &domain.ImageResponse{Data: []byte{byte(call + 1)}, MimeType: "image/png"}, nil
}

func (f *fakeImageSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func latteRecipe() domain.Recipe {
	return domain.Recipe{
		Title:       "カフェラテ",
		Description: "やわらかい口当たりの定番",
		Steps:       []string{"Grind beans", "Pull shot", "Pour milk"},
	}
}

func newTestRunner(src *fakeImageSource, store *session.Store, limit int) *IllustrationRunner {
	return NewIllustrationRunner(src, store, testInterval, "test style", limit)
}

func TestIllustrationRunner_FullSequence(t *testing.T) {
	t.Run("キャンセルなしならメイン1枚と手順N枚を順番に要求するのだ", func(t *testing.T) {
		src := &fakeImageSource{}
		store := session.NewStore(time.Minute, time.Minute)
		recipe := latteRecipe()
		ref := store.Create(recipe)

		start := time.Now()
		newTestRunner(src, store, 0).Run(context.Background(), recipe, ref)
		elapsed := time.Since(start)

		if got := src.callCount(); got != 4 {
			t.Fatalf("リクエスト数は 1+3 のはずなのだ: %d", got)
		}
		if src.requests[0].AspectRatio != domain.AspectRatioMain {
			t.Errorf("メイン画像は横長のはずなのだ: %s", src.requests[0].AspectRatio)
		}
		for i := 1; i < 4; i++ {
			if src.requests[i].AspectRatio != domain.AspectRatioStep {
				t.Errorf("手順画像 %d は正方形のはずなのだ: %s", i-1, src.requests[i].AspectRatio)
			}
		}
		// 各手順リクエストの前には丸ごと1インターバルの待機が入るのだ
		if elapsed < 3*testInterval {
			t.Errorf("手順ごとの待機が短すぎるのだ: %v", elapsed)
		}

		snap, err := store.Snapshot(ref.ID)
		if err != nil {
			t.Fatalf("Snapshot失敗なのだ: %v", err)
		}
		if snap.MainImage == nil {
			t.Error("メイン画像が適用されていないのだ")
		}
		if len(snap.StepImages) != 3 {
			t.Errorf("手順画像は3枚のはずなのだ: %d", len(snap.StepImages))
		}
		for i := 0; i < 3; i++ {
			if _, ok := snap.StepImages[i]; !ok {
				t.Errorf("インデックス %d の手順画像が無いのだ", i)
			}
		}
		if !snap.Done {
			t.Error("完了フラグが立っていないのだ")
		}
	})
}

func TestIllustrationRunner_PartialFailures(t *testing.T) {
	t.Run("手順1が失敗しても手順0と2は残るシナリオなのだ", func(t *testing.T) {
		// 呼び出し順: 0=メイン, 1=手順0, 2=手順1, 3=手順2
		src := &fakeImageSource{failAt: map[int]bool{2: true}}
		store := session.NewStore(time.Minute, time.Minute)
		recipe := latteRecipe()
		ref := store.Create(recipe)

		newTestRunner(src, store, 0).Run(context.Background(), recipe, ref)

		if got := src.callCount(); got != 4 {
			t.Fatalf("失敗しても残りの手順は要求されるはずなのだ: %d", got)
		}
		snap, _ := store.Snapshot(ref.ID)
		if snap.MainImage == nil {
			t.Error("メイン画像が無いのだ")
		}
		if _, ok := snap.StepImages[0]; !ok {
			t.Error("手順0の画像が無いのだ")
		}
		if _, ok := snap.StepImages[1]; ok {
			t.Error("失敗した手順1にエントリがあるのだ")
		}
		if _, ok := snap.StepImages[2]; !ok {
			t.Error("手順2の画像が無いのだ")
		}
	})

	t.Run("メイン画像の失敗は手順画像を止めないのだ", func(t *testing.T) {
		src := &fakeImageSource{failAt: map[int]bool{0: true}}
		store := session.NewStore(time.Minute, time.Minute)
		recipe := latteRecipe()
		ref := store.Create(recipe)

		newTestRunner(src, store, 0).Run(context.Background(), recipe, ref)

		if got := src.callCount(); got != 4 {
			t.Fatalf("メイン失敗後も手順は全部要求されるはずなのだ: %d", got)
		}
		snap, _ := store.Snapshot(ref.ID)
		if snap.MainImage != nil {
			t.Error("失敗したメイン画像が適用されているのだ")
		}
		if len(snap.StepImages) != 3 {
			t.Errorf("手順画像は3枚残るはずなのだ: %d", len(snap.StepImages))
		}
	})
}

func TestIllustrationRunner_Cancellation(t *testing.T) {
	t.Run("開始前にリセット済みなら1枚も要求しないのだ", func(t *testing.T) {
		src := &fakeImageSource{}
		store := session.NewStore(time.Minute, time.Minute)
		recipe := latteRecipe()
		ref := store.Create(recipe)
		if err := store.Retire(ref.ID); err != nil {
			t.Fatalf("Retire失敗なのだ: %v", err)
		}

		newTestRunner(src, store, 0).Run(context.Background(), recipe, ref)

		if got := src.callCount(); got != 0 {
			t.Errorf("リクエストは発行されないはずなのだ: %d", got)
		}
		snap, _ := store.Snapshot(ref.ID)
		if snap.MainImage != nil || len(snap.StepImages) != 0 {
			t.Error("リセット後に結果が書き込まれたのだ")
		}
	})

	t.Run("メイン画像の飛行中にリセットすると結果は捨てられ手順にも進まないのだ", func(t *testing.T) {
		store := session.NewStore(time.Minute, time.Minute)
		recipe := latteRecipe()
		ref := store.Create(recipe)

		src := &fakeImageSource{}
		src.hook = func(call int) {
			if call == 0 {
				store.Retire(ref.ID)
			}
		}

		newTestRunner(src, store, 0).Run(context.Background(), recipe, ref)

		if got := src.callCount(); got != 1 {
			t.Fatalf("メイン画像の1回だけのはずなのだ: %d", got)
		}
		snap, _ := store.Snapshot(ref.ID)
		if snap.MainImage != nil {
			t.Error("飛行中だった結果が適用されてしまったのだ")
		}
		if len(snap.StepImages) != 0 {
			t.Error("手順画像が要求されてしまったのだ")
		}
	})

	t.Run("手順0の飛行中にリセットすると以降の手順は要求されないのだ", func(t *testing.T) {
		store := session.NewStore(time.Minute, time.Minute)
		recipe := latteRecipe()
		ref := store.Create(recipe)

		src := &fakeImageSource{}
		src.hook = func(call int) {
			if call == 1 { // 手順0のリクエストが飛行中のタイミングなのだ
				store.Retire(ref.ID)
			}
		}

		newTestRunner(src, store, 0).Run(context.Background(), recipe, ref)

		if got := src.callCount(); got != 2 {
			t.Fatalf("メインと手順0の2回だけのはずなのだ: %d", got)
		}
		snap, _ := store.Snapshot(ref.ID)
		if len(snap.StepImages) != 0 {
			t.Error("破棄済みセッションに手順画像が書き込まれたのだ")
		}
	})

	t.Run("コンテキストのキャンセルでも静かに停止するのだ", func(t *testing.T) {
		src := &fakeImageSource{}
		store := session.NewStore(time.Minute, time.Minute)
		recipe := latteRecipe()
		ref := store.Create(recipe)

		ctx, cancel := context.WithCancel(context.Background())
		src.hook = func(call int) {
			if call == 0 {
				cancel()
			}
		}

		newTestRunner(src, store, 0).Run(ctx, recipe, ref)

		// メイン画像のあと、手順0の待機がコンテキストで中断されるのだ
		if got := src.callCount(); got != 1 {
			t.Errorf("メイン画像の1回だけのはずなのだ: %d", got)
		}
	})
}

func TestIllustrationRunner_StepLimit(t *testing.T) {
	t.Run("上限を超える手順は画像を作らないのだ", func(t *testing.T) {
		src := &fakeImageSource{}
		store := session.NewStore(time.Minute, time.Minute)
		recipe := latteRecipe()
		ref := store.Create(recipe)

		newTestRunner(src, store, 2).Run(context.Background(), recipe, ref)

		if got := src.callCount(); got != 3 {
			t.Errorf("メイン1枚と手順2枚のはずなのだ: %d", got)
		}
	})
}
