package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/denchenko/mtng/internal/adapters"
	"github.com/denchenko/mtng/internal/config"
	"github.com/denchenko/mtng/internal/core"
	do "github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func main() {
	injector := do.New(
		config.Package,
		core.Package,
		adapters.SecondaryPackage,
		adapters.PrimaryPackage,
	)

	cmd, err := do.Invoke[*cobra.Command](injector)
	if err != nil {
		log.Fatalf("failed to create CLI command: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = cmd.ExecuteContext(ctx)
	stop()

	if report := injector.Shutdown(); report != nil && len(report.Errors) > 0 {
		log.Printf("shutdown: %v", report)
	}

	if err != nil {
		log.Fatal(err)
	}
}
