package main

import "github.com/mpapenbr/f1telemetry-compare-go/cmd"

func main() {
	cmd.Execute()
}
