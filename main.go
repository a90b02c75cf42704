package main

import "github.com/frontendtony/curfew/cmd"

func main() {
	cmd.Execute()
}
