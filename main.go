// Package main is the entry point for the asnconform CLI.
package main

import "asnconform.dev/pkg/asnconform/cmd"

func main() {
	cmd.Execute()
}
