package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/retry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	if err != nil && code != 0 {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

// exitCode maps a run outcome to the process status. Abandoning the setup is
// a clean exit.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, retry.ErrAbandoned), errors.Is(err, errDeclined):
		return 0
	default:
		return 1
	}
}
