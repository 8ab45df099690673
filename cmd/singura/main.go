package main

import "github.com/singura/singura/cmd/singura/commands"

func main() {
	commands.Execute()
}
