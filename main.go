package main

import "go-melodycards/cmd"

func main() {
	cmd.Execute()
}
