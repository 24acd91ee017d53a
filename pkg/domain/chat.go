package domain

// ChatRole は会話ターンの話者区分です。
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatTurn は過去の会話1ターン分を保持します。
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// Citation は、Web検索グラウンディングで得られた出典です。
// URI を欠くエントリはレスポンス整形の段階で破棄されます。
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ChatReply はモデルの返答本文と、付随する出典のリストです。
type ChatReply struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}
