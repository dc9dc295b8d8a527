// Package main is the entry point for the capreport CLI tool.
package main

import (
	"github.com/hargabyte/capreport/internal/cmd"
)

func main() {
	cmd.Execute()
}
