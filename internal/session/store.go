package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrNotFound は、存在しない（またはTTLで失効した）セッションIDへの参照エラーです。
var ErrNotFound = errors.New("session: セッションが見つかりません")

// Ref は生成シーケンスへ渡すセッションの参照です。
// ID に加えて世代カウンタを持つことで、破棄後に作り直されたセッションと
// 取り違えることが構造的にできないようにしています。
type Ref struct {
	ID  string
	Gen uint64
}

// Snapshot はポーリング用に切り出したセッションの読み取り専用ビューです。
type Snapshot struct {
	Recipe     domain.Recipe
	MainImage  *domain.ImageResponse
	StepImages map[int]*domain.ImageResponse
	Done       bool
	Live       bool
}

// entry はストア内部のセッション実体なのだ。
// 書き込みはシーケンサーのゴルーチンとHTTPハンドラの両方から来るので、
// エントリ単位のミューテックスで守るのだよ。
type entry struct {
	mu         sync.Mutex
	gen        uint64
	retired    bool
	recipe     domain.Recipe
	mainImage  *domain.ImageResponse
	stepImages map[int]*domain.ImageResponse
	done       bool
}

// Store は GenerationSession を保持するインメモリストアです。
// 永続化はせず、TTL 失効がブラウザ1ビュー分の寿命の代わりになります。
type Store struct {
	sessions *cache.Cache
	nextGen  atomic.Uint64
}

// NewStore は TTL 付きのセッションストアを生成します。
func NewStore(ttl, cleanup time.Duration) *Store {
	return &Store{sessions: cache.New(ttl, cleanup)}
}

// Create は、完成したレシピからライブ状態のセッションを作るのだ。
func (s *Store) Create(recipe domain.Recipe) Ref {
	id := uuid.NewString()
	gen := s.nextGen.Add(1)
	e := &entry{
		gen:        gen,
		recipe:     recipe,
		stepImages: make(map[int]*domain.ImageResponse),
	}
	s.sessions.Set(id, e, cache.DefaultExpiration)
	return Ref{ID: id, Gen: gen}
}

func (s *Store) lookup(ref Ref) (*entry, bool) {
	v, ok := s.sessions.Get(ref.ID)
	if !ok {
		return nil, false
	}
	e, ok := v.(*entry)
	if !ok || e.gen != ref.Gen {
		return nil, false
	}
	return e, true
}

// Alive は、セッションがまだライブかどうかを返すのだ。
// シーケンサーはリクエスト発行の前後で必ずこれを確認するのだよ。
func (s *Store) Alive(ref Ref) bool {
	e, ok := s.lookup(ref)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.retired
}

// Retire はセッションのライブネスを落とすのだ。冪等な操作で、
// 進行中のシーケンスは次のチェックポイントで停止し、未適用の結果は捨てられるのだ。
func (s *Store) Retire(id string) error {
	v, ok := s.sessions.Get(id)
	if !ok {
		return ErrNotFound
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retired = true
	return nil
}

// SetMainImage は、セッションがまだライブな場合に限りメイン画像を記録するのだ。
// 適用されたかどうかを返すのだよ。
func (s *Store) SetMainImage(ref Ref, img *domain.ImageResponse) bool {
	e, ok := s.lookup(ref)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.retired {
		return false
	}
	e.mainImage = img
	return true
}

// SetStepImage は、手順インデックスをキーに画像を記録するのだ。
// キーは到着順ではなく元の手順インデックスで、既存キーを消すことはないのだ。
func (s *Store) SetStepImage(ref Ref, index int, img *domain.ImageResponse) bool {
	e, ok := s.lookup(ref)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.retired {
		return false
	}
	e.stepImages[index] = img
	return true
}

// MarkDone は、シーケンスの完了（またはライブネス喪失による停止）を記録するのだ。
func (s *Store) MarkDone(ref Ref) {
	e, ok := s.lookup(ref)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = true
}

// Snapshot は、ポーリングAPIへ返すためのコピーを取り出します。
func (s *Store) Snapshot(id string) (Snapshot, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()

	steps := make(map[int]*domain.ImageResponse, len(e.stepImages))
	for k, img := range e.stepImages {
		steps[k] = img
	}
	return Snapshot{
		Recipe:     e.recipe,
		MainImage:  e.mainImage,
		StepImages: steps,
		Done:       e.done,
		Live:       !e.retired,
	}, nil
}
