package main

import "codeatlas/cmd"

func main() {
	cmd.Execute()
}
