package main

import "github.com/threaddump-analysis/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
