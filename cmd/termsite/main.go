// cmd/termsite/main.go
package main

import (
	"os"

	"github.com/dalemusser/termsite/internal/cli"
)

func main() {
	os.Exit(cli.Run("termsite", os.Args[1:]))
}
