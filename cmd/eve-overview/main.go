package main

import "github.com/AreteDriver/EVE-Overview/cmd/eve-overview/commands"

func main() {
	commands.Execute()
}
