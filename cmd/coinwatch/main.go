package main

import (
	"coinwatch/internal/cli"
)

func main() {
	cli.Execute()
}
