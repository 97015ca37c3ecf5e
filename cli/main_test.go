package main

import (
	"testing"
)

func TestCLIVersion(t *testing.T) {
	e := newExecutor(t, false)
	e.CLI.Version = "0.1.0-test" // Version flag is hidden for empty versions.
	e.Run(t, "eth-go", "--version")
	e.checkNextLine(t, "^eth-go")
	e.checkNextLine(t, "^Version:")
	e.checkNextLine(t, "^GoVersion:")
	e.checkEOF(t)
}
