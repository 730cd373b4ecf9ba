package main

import (
	"context"
	"fmt"
	"os"

	"github.com/CindyWang1997/makergame/cmd"
)

var version = "v0.1.0"

func main() {
	if err := cmd.Command(version).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
