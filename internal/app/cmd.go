package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は定期同期ワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandSync はNotion同期を1回だけ実行して終了することを示す。
	CommandSync Command = "sync"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandServe, CommandWorker, CommandSync, CommandMigrate, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}
