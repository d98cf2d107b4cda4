// Command imgctl is the operator CLI for the image search services.
package main

import (
	"os"

	"github.com/timmy/imgsearch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
