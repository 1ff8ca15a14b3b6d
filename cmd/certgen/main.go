// Command certgen は修了証の発行サーバーとNotion同期を提供する。
//
//	certgen [serve|worker|sync|migrate|healthcheck]
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/certgen/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("certgen exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
