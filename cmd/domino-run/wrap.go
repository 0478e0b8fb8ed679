package main

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	domino "github.com/dominodatalab/domino-go"
	"github.com/dominodatalab/domino-go/experiment"
	"github.com/dominodatalab/domino-go/internal/logger"
)

var (
	runName        string
	experimentBase string
	runTags        []string
)

var wrapCmd = &cobra.Command{
	Use:   "wrap [flags] -- command [args...]",
	Short: "Wrap a command and track its execution as a run",
	Long: `Wrap a command-line tool and track its execution: a run is started
under the experiment, the platform context is logged as tags, and the run
is marked FINISHED or FAILED from the command's exit code.

Examples:
  # Basic wrapping
  domino-run wrap -- python train.py

  # With a custom run name and experiment
  domino-run wrap --name "training-v1" --experiment my-model -- ./train.sh`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWrap,
}

func init() {
	wrapCmd.Flags().StringVar(&runName, "name", "", "Run name (defaults to the command name)")
	wrapCmd.Flags().StringVar(&experimentBase, "experiment", "experiment", "Experiment base name")
	wrapCmd.Flags().StringSliceVar(&runTags, "tags", nil, "Extra run tags as key=value pairs")
}

func runWrap(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client, err := domino.New(ctx, domino.Config{
		TrackingURI: trackingURI,
		APIKey:      apiKey,
		Logger:      logger.Log,
	})
	if err != nil {
		return err
	}

	name, err := experiment.Setup(ctx, client, experimentBase)
	if err != nil {
		return err
	}

	if runName == "" {
		runName = args[0]
	}

	tags := map[string]string{"command": strings.Join(args, " ")}
	for _, kv := range runTags {
		if k, v, ok := strings.Cut(kv, "="); ok {
			tags[k] = v
		}
	}

	runID, err := client.CreateRun(ctx, runName, tags)
	if err != nil {
		return err
	}
	if err := experiment.LogContext(ctx, client, runID); err != nil {
		return err
	}

	log := logger.WithRunID(runID).With(zap.String("experiment", name))
	log.Info("tracking wrapped command", zap.Strings("command", args))

	// Forward interrupts to the wrapped command via context cancelation.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	execCmd := exec.CommandContext(ctx, args[0], args[1:]...)
	execCmd.Stdin = os.Stdin
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr

	startTime := time.Now()
	runErr := execCmd.Run()
	duration := time.Since(startTime)

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}

	// Endings are best-effort once the command ran: report the exit code
	// even if tracking calls fail.
	endCtx, endCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer endCancel()

	if err := client.LogMetrics(endCtx, runID, map[string]float64{
		"exit_code":   float64(exitCode),
		"duration_ms": float64(duration.Milliseconds()),
	}, 0); err != nil {
		log.Warn("logging run metrics failed", zap.Error(err))
	}

	status := domino.RunStatusFinished
	if exitCode != 0 {
		status = domino.RunStatusFailed
	}
	if err := client.EndRun(endCtx, runID, status); err != nil {
		log.Warn("ending run failed", zap.Error(err))
	}

	log.Info("wrapped command finished",
		zap.Int("exit_code", exitCode),
		zap.Duration("duration", duration))

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}
