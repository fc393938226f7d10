package main

import (
	"github.com/LeJamon/goXRPLtrade/internal/cli"
)

func main() {
	cli.Execute()
}
