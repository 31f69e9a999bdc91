package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hitoshi/timetracker/internal/app"
)

func main() {
	// .envファイルがあれば読み込む（ローカル開発用。本番では環境変数を直接設定する）
	_ = godotenv.Load()

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "timetracker: %v\n", err)
		os.Exit(1)
	}
}
