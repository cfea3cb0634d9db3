package main

import "storyglow/internal/cli"

func main() {
	cli.Execute()
}
