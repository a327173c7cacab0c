package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/tutorstudio-backend/internal/app"
	"github.com/yungbote/tutorstudio-backend/internal/platform/shutdown"
)

func main() {
	a, err := app.New(context.Background())
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := shutdown.NotifyContext(context.Background(), a.Log)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
	}
	a.Shutdown(context.Background())
	if err != nil {
		fmt.Printf("server exited: %v\n", err)
		os.Exit(1)
	}
}
