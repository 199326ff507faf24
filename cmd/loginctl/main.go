package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pilab-dev/shadow-login/cmd/loginctl/cmd"
	"github.com/pilab-dev/shadow-login/tracing"
)

func main() {
	tp, err := tracing.InitTracerProviderWithWriter("shadow-login-loginctl", os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize tracing:", err)
		os.Exit(1)
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
