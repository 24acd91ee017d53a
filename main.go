package main

import (
	"github.com/flyfox666/Coffeemaster-AI/cmd"

	"github.com/joho/godotenv"
)

// main はアプリケーションの唯一のエントリーポイントなのだ！
// コマンドライン引数の解析と実行はすべて cmd パッケージに委ねるのだよ。
func main() {
	// .env があれば読み込む。無くてもエラーにはしないのだ。
	_ = godotenv.Load()

	cmd.Execute()
}
