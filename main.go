package main

import (
	"github.com/margo-build/margo/cmd"
	"github.com/margo-build/margo/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
