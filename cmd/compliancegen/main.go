package main

import "github.com/diogo/compliancegen/internal/commands"

func main() {
	commands.Execute()
}
