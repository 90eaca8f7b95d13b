// hybridrec 是混合商品推荐服务的命令行入口。
package main

import (
	"os"
)

// version 在构建时通过 ldflags 注入
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
