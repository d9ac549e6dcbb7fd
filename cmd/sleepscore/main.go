package main

import "actigraph-sleep/internal/cli"

func main() {
	cli.Execute()
}
