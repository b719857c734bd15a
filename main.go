package main

import "github.com/stesla/telscript/cmd"

func main() {
	cmd.Execute()
}
