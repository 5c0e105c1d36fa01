package main

import (
	"os"

	"github.com/dshills/commitgen/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
