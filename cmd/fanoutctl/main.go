package main

import (
	"context"
	"fmt"
	"os"

	"github.com/d60-Lab/fanout-debugger/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(nil).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
