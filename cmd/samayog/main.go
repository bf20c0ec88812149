package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"samayog/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printHelp(os.Stdout)
		return nil
	}
	switch args[0] {
	case "help", "--help", "-h":
		printHelp(os.Stdout)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()
	return a.dispatch(ctx, args[0], args[1:])
}
