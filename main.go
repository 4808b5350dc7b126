package main

import "botsift/cmd"

func main() {
	cmd.Execute()
}
