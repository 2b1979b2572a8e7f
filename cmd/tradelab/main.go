package main

import "github.com/rustyeddy/tradelab/internal/cli"

func main() {
	cli.Execute()
}
