// Package logger はJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// level はグローバルロガーのログレベル。
// 設定読み込み前にロガーを使い始めるため、後からSetLevelで変更できるようにする。
var level = new(slog.LevelVar)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// leveler がnilの場合はInfoレベルを使用する。
func Setup(w io.Writer, leveler slog.Leveler) *slog.Logger {
	if leveler == nil {
		leveler = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: leveler,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	level.Set(slog.LevelInfo)
	slog.SetDefault(Setup(w, level))
}

// SetLevel はグローバルロガーのログレベルを変更する。
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Component はcomponent属性を付与したグローバルロガーを返す。
func Component(name string) *slog.Logger {
	return slog.Default().With(slog.String("component", name))
}
