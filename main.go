// main is the entry point for the warnbase CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/cmd"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/iocache"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the process exit code.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetStoreManager(iocache.Manager)
	defer iocache.CloseStores()

	err := cmd.Execute(ctx)
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	if err == nil {
		return 0
	}

	// The report of a failed check was already rendered
	var df *contract.DiffFailure
	if !errors.As(err, &df) {
		_, _ = fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	}
	return 1
}
