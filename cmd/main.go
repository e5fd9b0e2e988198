package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stoalearn/stoa-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	a.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Server listening on :%s\n", a.Cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn("Shutdown did not drain cleanly", "error", err)
		}
		cancel()
	case err := <-errCh:
		if err != nil {
			a.Log.Error("Server exited", "error", err)
		}
	}

	a.Close()
}
