package main

import "github.com/notargets/feassemble/cmd"

func main() {
	cmd.Execute()
}
