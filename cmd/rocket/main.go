package main

import "rocket-cli/internal/cli"

func main() {
	cli.Execute()
}
