package main

import "github.com/endorses/watchcat/cmd"

func main() {
	cmd.Execute()
}
