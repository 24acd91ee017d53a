package domain

// ImageRequest は単一の画像生成要求です。
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
}

// アスペクト比のポリシー値。メインの一杯は横長、手順ごとのカットは正方形です。
const (
	AspectRatioMain = "16:9"
	AspectRatioStep = "1:1"
)
