package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/flyfox666/Coffeemaster-AI/internal/config"
	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"
)

// createRecipeRequest は POST /api/recipes のボディなのだ。
// PreviousSessionID を添えると、古いセッションを先に破棄してから新しい生成を始めるのだ。
type createRecipeRequest struct {
	Request           string `json:"request"`
	Language          string `json:"language"`
	PreviousSessionID string `json:"previousSessionId,omitempty"`
}

type createRecipeResponse struct {
	SessionID string        `json:"sessionId"`
	Recipe    domain.Recipe `json:"recipe"`
}

type sessionResponse struct {
	Recipe     domain.Recipe     `json:"recipe"`
	MainImage  string            `json:"mainImage,omitempty"`
	StepImages map[string]string `json:"stepImages"`
	Done       bool              `json:"done"`
	Live       bool              `json:"live"`
}

type chatRequest struct {
	History  []domain.ChatTurn `json:"history"`
	Message  string            `json:"message"`
	Language string            `json:"language"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// localizedErrors は、ユーザーに見せるインラインエラーメッセージの辞書なのだ。
// 画像の失敗はここには出てこない。あれは内部ログ止まりのベストエフォートなのだよ。
var localizedErrors = map[string]map[string]string{
	"ja": {
		"bad_request":   "リクエストの内容を確認してほしいのだ。",
		"recipe_failed": "レシピの生成に失敗したのだ。もう一度試してほしいのだ。",
		"chat_failed":   "返答の生成に失敗したのだ。もう一度試してほしいのだ。",
	},
	"en": {
		"bad_request":   "Please check your request.",
		"recipe_failed": "Failed to generate the recipe. Please try again.",
		"chat_failed":   "Failed to generate a reply. Please try again.",
	},
}

func localizedError(lang, key string) string {
	if msgs, ok := localizedErrors[lang]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	return localizedErrors["en"][key]
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.tmpl.ExecuteTemplate(w, "index.html", nil); err != nil {
		slog.Error("テンプレートの描画に失敗したのだ", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req createRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Request == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: localizedError(normalizeLang(req.Language), "bad_request")})
		return
	}
	lang := normalizeLang(req.Language)

	// 新しい生成は古いセッションを退役させるのだ。
	// ライブなセッションは常にひとつだけなのだよ。
	if req.PreviousSessionID != "" {
		if err := s.store.Retire(req.PreviousSessionID); err != nil {
			slog.Debug("破棄対象のセッションが見つからなかったのだ", "session", req.PreviousSessionID)
		}
	}

	recipe, err := s.recipes.Run(r.Context(), req.Request, lang)
	if err != nil {
		// レシピ生成の失敗はセッション致命なのだ。画像リクエストには一切進まないのだ。
		slog.Error("レシピ生成に失敗したのだ", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: localizedError(lang, "recipe_failed")})
		return
	}

	ref := s.store.Create(recipe)
	go s.illustrator.Run(s.baseCtx, recipe, ref)

	slog.Info("生成セッションを開始したのだ", "session", ref.ID, "title", recipe.Title, "steps", len(recipe.Steps))
	writeJSON(w, http.StatusCreated, createRecipeResponse{SessionID: ref.ID, Recipe: recipe})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := s.store.Snapshot(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}

	resp := sessionResponse{
		Recipe:     snap.Recipe,
		StepImages: make(map[string]string, len(snap.StepImages)),
		Done:       snap.Done,
		Live:       snap.Live,
	}
	if snap.MainImage != nil {
		resp.MainImage = dataURI(snap.MainImage)
	}
	for idx, img := range snap.StepImages {
		resp.StepImages[strconv.Itoa(idx)] = dataURI(img)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// リセットは冪等なのだ。既に消えたセッションでも成功扱いにするのだよ。
	if err := s.store.Retire(id); err != nil {
		slog.Debug("リセット対象のセッションが見つからなかったのだ", "session", id)
	} else {
		slog.Info("セッションをリセットしたのだ", "session", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: localizedError(normalizeLang(req.Language), "bad_request")})
		return
	}
	lang := normalizeLang(req.Language)

	reply, err := s.chat.Run(r.Context(), req.History, req.Message, lang)
	if err != nil {
		slog.Error("チャット応答に失敗したのだ", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: localizedError(lang, "chat_failed")})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// dataURI は、画像ペイロードをブラウザへそのまま埋め込める形にするのだ。
// ファイルは一切持たない。画像の寿命はセッションと同じなのだよ。
func dataURI(img *domain.ImageResponse) string {
	mime := img.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data))
}

func normalizeLang(lang string) string {
	if _, ok := localizedErrors[lang]; ok {
		return lang
	}
	if lang == "" {
		return config.DefaultLanguage
	}
	return "en"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("レスポンスの書き込みに失敗したのだ", "error", err)
	}
}
