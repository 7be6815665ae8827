package main

import "github.com/chrisdamba/brewqueue/cmd"

func main() {
	cmd.Execute()
}
