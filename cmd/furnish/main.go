package main

import "furnish/internal/cli"

func main() {
	cli.Execute()
}
