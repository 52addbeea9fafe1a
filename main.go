package main

import "github.com/flowtopdev/nettop/cmd"

func main() {
	cmd.Execute()
}
