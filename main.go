package main

import "github.com/leeduo/marketdeck/internal/cli"

func main() {
	cli.Execute()
}
