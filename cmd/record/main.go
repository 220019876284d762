// Command record inspects and exercises pebble-record entities against a
// MySQL database.
package main

import "github.com/marshallshelly/pebble-record/cmd/record/commands"

func main() {
	commands.Execute()
}
