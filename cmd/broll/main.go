package main

import "broll/internal/cli"

func main() {
	cli.Execute()
}
