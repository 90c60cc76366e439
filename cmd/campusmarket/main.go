package main

import "github.com/nshah/campusmarket/cmd/campusmarket/cmd"

func main() {
	cmd.Execute()
}
