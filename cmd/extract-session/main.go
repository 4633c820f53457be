package main

import (
	"context"
	"os"

	"github.com/MikeSquared-Agency/sessionsync/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), cli.DefaultDeps(), os.Args[1:], os.Stdout, os.Stderr))
}
