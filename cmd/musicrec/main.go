package main

import "musicrec/internal/cli"

func main() {
	cli.Execute()
}
