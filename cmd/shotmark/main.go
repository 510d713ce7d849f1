package main

import "github.com/bryanchriswhite/ShotMark/cmd/shotmark/commands"

func main() {
	commands.Execute()
}
