package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel             = "gemini-2.5-flash"
	DefaultImageModel        = "gemini-2.5-flash-image-preview"
	DefaultChatModel         = "gemini-2.5-flash"
	DefaultPort              = "8080"
	DefaultLanguage          = "ja"
	DefaultStepImageInterval = 4 * time.Second  // 画像プロバイダのレート上限を超えないための手順間ウェイト
	DefaultSessionTTL        = 30 * time.Minute // セッションはブラウザ1ビュー分の寿命があれば十分なのだ
	DefaultSessionCleanup    = 1 * time.Hour
	DefaultOutputDir         = "output" // brew コマンドで使用するデフォルト保存先なのだ
	DefaultImagePromptSuffix = "warm cafe lighting, shallow depth of field, appetizing beverage photography, high resolution, no text, no watermark"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey      string
	GeminiModel       string
	GeminiImageModel  string
	GeminiChatModel   string
	Port              string
	StepImageInterval time.Duration
	SessionTTL        time.Duration
	ImagePromptSuffix string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		GeminiAPIKey:      envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:       envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel:  envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		GeminiChatModel:   envutil.GetEnv("CHAT_GEMINI_MODEL", DefaultChatModel),
		Port:              envutil.GetEnv("PORT", DefaultPort),
		StepImageInterval: durationEnv("STEP_IMAGE_INTERVAL", DefaultStepImageInterval),
		SessionTTL:        durationEnv("SESSION_TTL", DefaultSessionTTL),
		ImagePromptSuffix: envutil.GetEnv("IMAGE_PROMPT_SUFFIX", DefaultImagePromptSuffix),
	}
	return cfg
}

// durationEnv は "4s" のような表記の環境変数を time.Duration として読むのだ。
// パースできない値はデフォルトに倒すのだよ。
func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// serve 関連
	Port string // --port

	// brew（ワンショット生成）関連
	Request   string // --request: 淹れたい一杯の自由文リクエスト
	Language  string // --language: レシピの対象言語
	OutputDir string // --output-dir: レシピJSONと画像の保存先ディレクトリ
	StepLimit int    // --step-limit: 画像を生成する手順数の上限

	// AI挙動設定
	AIModel    string // --model: テキスト生成用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル
	ChatModel  string // --chat-model: チャット用のGeminiモデル

	// 実行制御
	StepInterval time.Duration // --step-interval: 手順画像リクエスト間の待機時間
}
