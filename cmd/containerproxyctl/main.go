package main

import (
	"os"

	"github.com/ericfisherdev/containerproxy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
