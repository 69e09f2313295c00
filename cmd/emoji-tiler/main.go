package main

import "github.com/StrongerSoftworks/emoji-tiler/internal/cli"

func main() {
	cli.Execute()
}
