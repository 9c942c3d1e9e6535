package main

import "github.com/simonyos/agentcore/cmd"

func main() {
	cmd.Execute()
}
