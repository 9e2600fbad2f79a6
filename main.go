package main

import "github.com/sw33tLie/jirascope/cmd"

func main() {
	cmd.Execute()
}
