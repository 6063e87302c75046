package main

import "taskchat/cmd"

func main() {
	cmd.Execute()
}
