package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sandeepkv93/social-trust-core/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "trustcore:", err)
		os.Exit(1)
	}
}
