package main

import "gitnotifier/cmd"

func main() {
	cmd.Execute()
}
