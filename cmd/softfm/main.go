package main

import (
	"os"
)

const (
	successExitCode = 0
	errorExitCode   = 1
)

func main() {
	os.Exit(execute(os.Args[1:]))
}
