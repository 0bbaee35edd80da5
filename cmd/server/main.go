package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	config := LoadConfig()

	server, err := NewServer(config)
	if err != nil {
		log.Fatalf("[SERVER] Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Fatalf("[SERVER] Exited with error: %v", err)
	}
}
