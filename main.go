package main

import "github.com/sljivkov/dextick/cmd"

func main() {
	cmd.Execute()
}
