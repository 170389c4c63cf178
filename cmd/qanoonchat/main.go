// Command qanoonchat is a terminal client for the Qanoon legal assistant.
package main

import "github.com/qanoonbot/qanoonchat/internal/commands"

func main() {
	commands.Execute()
}
