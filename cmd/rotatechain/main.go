package main

import "github.com/NMsby/rotatechain-sub000/internal/cli"

func main() {
	cli.Execute()
}
