package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/artchsh/portfolio/internal/probe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := probe.NewCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
