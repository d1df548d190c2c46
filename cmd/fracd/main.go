package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fracsim-lab/growth-core/internal/driver"
	"github.com/fracsim-lab/growth-core/internal/report"
	"github.com/fracsim-lab/growth-core/internal/solver"
	"github.com/fracsim-lab/growth-core/pkg/config"
	"github.com/fracsim-lab/growth-core/pkg/logger"
)

func main() {
	var configPath string
	var logLevel string
	var reportPath string

	flag.StringVar(&configPath, "config", "config.yaml", "path to run configuration")
	flag.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flag.StringVar(&reportPath, "report", "", "report output path override (default from config, or stdout)")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger.SetDefault(logger.NewText(logLevel, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, reportPath); err != nil {
		logger.Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, reportPath string) error {
	initial, err := solver.ReadGeometry(cfg.Solver.GeometryFile)
	if err != nil {
		return fmt.Errorf("failed to read geometry: %w", err)
	}
	logger.Info("geometry loaded",
		"file", cfg.Solver.GeometryFile,
		"fractures", len(initial.Fractures),
		"boundaries", len(initial.Boundaries),
		"elements", initial.FractureElementCount())

	var sol solver.Solver
	if cfg.Run.Mode == config.ModeStub {
		sol = solver.AllSlippedStub(1.0, 1.0)
	} else {
		timeout := time.Duration(cfg.Solver.TimeoutSeconds) * time.Second
		sol = solver.NewExecSolver(cfg.Solver.Executable, cfg.Solver.WorkDir, timeout)
	}

	if reportPath == "" {
		reportPath = cfg.Report.Path
	}
	var out io.Writer = os.Stdout
	if reportPath != "" {
		f, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	rep := report.New(out, cfg.Report)

	d, err := driver.New(cfg, initial, sol, rep)
	if err != nil {
		return err
	}

	summary, err := d.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run finished",
		"run_id", summary.RunID,
		"increments", summary.Increments,
		"state", summary.FinalState.String(),
		"work", summary.FinalWork,
		"length", summary.Length,
		"fractures", summary.Fractures)
	return nil
}
