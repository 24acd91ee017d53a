package domain

import "strings"

// Recipe は AI モデルから返されるコーヒーレシピ全体の構造です。
// テキスト生成の一回の呼び出しで不可分に生成され、受領後は不変です。
type Recipe struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Tips        string   `json:"tips"`
}

// IsEmpty は、モデル応答として意味を成さないレシピかどうかを判定します。
// タイトルが空、または手順がひとつも無いレシピは失敗として扱います。
func (r Recipe) IsEmpty() bool {
	return strings.TrimSpace(r.Title) == "" || len(r.Steps) == 0
}

// Summary は、タイトルと説明をひとつの描写テキストへ結合します。
// メイン画像のプロンプト素材として使います。
func (r Recipe) Summary() string {
	if strings.TrimSpace(r.Description) == "" {
		return r.Title
	}
	return r.Title + " — " + r.Description
}
