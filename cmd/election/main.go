package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"election-simulator/internal/audit"
	"election-simulator/internal/config"
	"election-simulator/internal/election"
	"election-simulator/internal/logging"
	"election-simulator/internal/machine"
	"election-simulator/internal/metrics"
	"election-simulator/internal/pubsub"

	"github.com/fatih/color"
)

func main() {
	os.Exit(run(os.Args[1:], color.Output, os.Stderr))
}

// run executes one election. The record and the run report go to stdout, diagnostics to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(args, stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, config.ErrNoVariant):
		fmt.Fprintln(stdout, config.ErrNoVariant)
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		NoColor: cfg.NoColor,
		Out:     stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 1
	}

	if cfg.NoColor {
		color.NoColor = true
	}

	// Validated by config.Load
	variant, _ := cfg.ElectionVariant()
	e := election.New(variant, audit.NewConsoleSink(stdout, !color.NoColor))
	log := logging.Component(logger, "main", e.ID().String())
	log.Infof("Starting %s election, reading %s", variant, cfg.InputPath)

	runMetrics := metrics.NewMetrics()
	bus := pubsub.NewBus(1, logger)
	defer bus.Shutdown()

	dispatcher := machine.NewDispatcher(e, machine.WithLogger(logger), machine.WithMetrics(runMetrics))
	intake := machine.NewIntake(dispatcher, cfg.QueueSize,
		machine.WithBus(bus),
		machine.WithQueueMetrics(runMetrics),
		machine.WithIntakeLogger(logger),
	)

	input, err := os.Open(cfg.InputPath)
	if err != nil {
		e.Record().Reject(fmt.Sprintf("Cannot open %s", cfg.InputPath))
		log.WithError(err).Error("Failed to open input")
		return 1
	}
	defer input.Close()

	feedErr := make(chan error, 1)
	go func() {
		err := machine.Feed(ctx, intake, cfg.InputPath, input)
		intake.Close()
		feedErr <- err
	}()

	status := 0
	if err := intake.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Interrupted, stopping")
		} else {
			log.WithError(err).Error("Dispatcher failed")
		}
		status = 1
	}

	if err := <-feedErr; err != nil && !errors.Is(err, context.Canceled) {
		e.Record().Reject("Something Bad Happened")
		log.WithError(err).Error("Failed to read input")
		status = 1
	}

	if cfg.Metrics {
		report := runMetrics.GetReport(e.ID().String(), variant.String())
		if cfg.LogFormat == "json" {
			if err := report.WriteJSON(stdout); err != nil {
				log.WithError(err).Error("Failed to write run report")
				status = 1
			}
		} else {
			report.PrintReport(stdout)
		}
	}

	return status
}
