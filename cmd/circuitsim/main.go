package main

import "github.com/edp1096/toy-circuit/cmd/circuitsim/cmd"

func main() {
	cmd.Execute()
}
