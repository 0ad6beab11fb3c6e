package main

import "github.com/derickschaefer/hws/cmd"

func main() {
	cmd.Execute()
}
