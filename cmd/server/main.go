package main

import "github.com/ButyrinIA/socialgraph/cmd/server/commands"

func main() {
	commands.Execute()
}
