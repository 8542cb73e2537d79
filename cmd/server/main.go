package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gatekeeper/internal/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.RootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
