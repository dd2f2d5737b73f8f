package main

import "github.com/mcg25035/RiceCall-sub002/cmd"

func main() {
	cmd.Execute()
}
