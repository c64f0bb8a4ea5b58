// Package main is the Prana CLI entry point.
package main

import "github.com/hyperjump/prana/internal/cli"

func main() {
	cli.Execute()
}
