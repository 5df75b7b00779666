package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := flag.NewFlagSet("parcelpost", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: parcelpost [flags] <%s> [args]\n", commandNames())
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "", "Path to config file")
	envFile := flags.String("env-file", ".env", "Path to a .env file with credentials")
	showVersion := flags.Bool("version", false, "Print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return ExitUsageError
	}

	if *showVersion {
		fmt.Printf("parcelpost %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	if err := LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)
	logger.Debug("starting parcelpost",
		"version", Version,
		"config", *configPath,
		"carrier", cfg.Carrier.ResolvedBaseURL(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, logger, os.Stdout)
	if err := app.Run(ctx, flags.Args()); err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			logger.Error("command failed",
				"error", cmdErr.Err,
				"operation", cmdErr.Op,
			)
			return cmdErr.ExitCode
		}
		logger.Error("command failed", "error", err)
		return ExitCarrierError
	}

	return ExitSuccess
}
