package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benzoXdev/obfuspy/internal/cli"
	"github.com/benzoXdev/obfuspy/internal/engine"
	"github.com/benzoXdev/obfuspy/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, engine.Yellow("Interrupted."))
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", engine.Red("Error:"), errors.UserMessage(err))
		if hint := engine.ErrorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "%s %s\n", engine.Gray("Hint:"), hint)
		}
		os.Exit(1)
	}
}
