package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/flyfox666/Coffeemaster-AI/internal/session"
	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

// RecipeRunner は、自由文リクエストから構造化レシピを生成する操作面です。
type RecipeRunner interface {
	Run(ctx context.Context, request, language string) (domain.Recipe, error)
}

// ChatRunner は、チャットウィジェットの1ターン分を処理する操作面です。
type ChatRunner interface {
	Run(ctx context.Context, history []domain.ChatTurn, message, language string) (domain.ChatReply, error)
}

// Illustrator は、レシピの画像群をバックグラウンドで生成するシーケンサーの操作面です。
type Illustrator interface {
	Run(ctx context.Context, recipe domain.Recipe, ref session.Ref)
}

// Server は、ブラウザUIとJSON APIを提供するHTTPサーバーなのだ。
type Server struct {
	recipes     RecipeRunner
	chat        ChatRunner
	illustrator Illustrator
	store       *session.Store
	tmpl        *template.Template

	// baseCtx はシーケンサーのゴルーチンの親コンテキストなのだ。
	// リクエストのコンテキストに繋ぐと応答を返した瞬間に生成が死ぬので、
	// サーバー自体の寿命に繋ぐのだよ。
	baseCtx context.Context
}

// New は、依存を注入してサーバーを組み立てるのだ。
func New(baseCtx context.Context, recipes RecipeRunner, chat ChatRunner, illustrator Illustrator, store *session.Store) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("テンプレートのパースに失敗したのだ: %w", err)
	}

	return &Server{
		recipes:     recipes,
		chat:        chat,
		illustrator: illustrator,
		store:       store,
		tmpl:        tmpl,
		baseCtx:     baseCtx,
	}, nil
}

// Routes は、すべてのエンドポイントを束ねたマルチプレクサを返すのだ。
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/recipes", s.handleCreateRecipe)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	return mux
}
