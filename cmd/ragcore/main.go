package main

import "github.com/atrium-labs/ragcore/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
