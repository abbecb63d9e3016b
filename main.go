package main

import "github.com/user/hecvat-adk/cmd"

func main() {
	cmd.Execute()
}
