package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bhanuprasadthota/AskDB/internal/cli/askdbctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := askdbctl.Run(ctx, os.Args[1:], askdbctl.Options{
		Lookup: os.LookupEnv,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	stop()
	os.Exit(code)
}
