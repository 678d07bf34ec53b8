// Command minilink はMini LinkedIn APIのサーバー・マイグレーション・シード投入を行う。
//
// 使い方:
//
//	minilink [serve|migrate|seed|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/minilink/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "minilink: %v\n", err)
		os.Exit(1)
	}
}
