package main

import "github.com/use-go/gopro/internal/cli"

func main() {
	cli.Execute()
}
