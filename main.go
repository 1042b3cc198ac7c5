// ════════════════════════════════════════════════════════════════════════════════════════════════
// memlab - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: Matrix Orchestration
//
// Description:
//   Runs the comparison matrix: every ordering shape under every memory-order
//   policy, then the false-sharing throughput run under every policy and
//   layout. Reports go to stdout as they complete; diagnostics go to stderr.
//
// Phases:
//   - Phase 0: configuration (defaults → -config file → flags)
//   - Phase 1: optional sinks (sqlite results, JSON export, gops agent)
//   - Phase 2: matrix, stop flag polled between runs
//   - Phase 3: flush sinks
//
// Exit codes:
//   0 success or interrupted between runs, 1 configuration or sink failure,
//   2 harness defect (protocol violation)
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"memlab/config"
	"memlab/control"
	"memlab/debug"
	"memlab/experiment"
	"memlab/outcome"
	"memlab/results"
	"memlab/utils"

	"github.com/google/gops/agent"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run is main without the process exit, so tests can drive it.
func run(args []string, stdout io.Writer) int {
	// PHASE 0: configuration
	cfg, err := loadConfig(args)
	if err != nil {
		debug.DropError("CONFIG", err)
		return 1
	}
	plan, err := cfg.Validate()
	if err != nil {
		debug.DropError("CONFIG", err)
		return 1
	}

	// PHASE 1: sinks
	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			debug.DropError("GOPS", err)
		} else {
			defer agent.Close()
		}
	}

	var store *results.Store
	if cfg.DB != "" {
		if store, err = results.Open(cfg.DB); err != nil {
			debug.DropError("RESULTS", err)
			return 1
		}
		defer store.Close()
	}

	stopSignals := setupSignalHandling()
	defer stopSignals()

	// PHASE 2: matrix
	debug.DropMessage("PLAN", utils.Itoa(plan.Runs())+" runs, "+utils.Utoa(plan.Rounds)+" rounds, "+
		utils.Utoa(plan.Steps)+" steps")

	var reports []outcome.Report
	done := 0
	err = experiment.Run(plan, control.Stopping, func(r outcome.Report) error {
		done++
		debug.DropMessage("RUN", utils.Itoa(done)+"/"+utils.Itoa(plan.Runs())+" "+r.Title()+
			" in "+utils.Seconds(r.Elapsed))
		if err := outcome.WriteText(stdout, r); err != nil {
			return err
		}
		if store != nil {
			if err := control.Flush(func() error {
				_, err := store.Save(r)
				return err
			}); err != nil {
				return err
			}
		}
		reports = append(reports, r)
		return nil
	})

	// PHASE 3: flush whatever completed, even after a failure
	if cfg.JSON != "" && len(reports) > 0 {
		if ferr := control.Flush(func() error { return exportJSON(cfg.JSON, reports) }); ferr != nil {
			debug.DropError("EXPORT", ferr)
			if err == nil {
				return 1
			}
		}
	}

	switch {
	case errors.Is(err, experiment.ErrProtocolViolation):
		debug.DropError("HARNESS DEFECT", err)
		return 2
	case err != nil:
		debug.DropError("MATRIX", err)
		return 1
	case control.Stopping():
		debug.DropMessage("STOP", "interrupted after "+utils.Itoa(done)+" runs")
	default:
		debug.DropError("DONE", nil)
	}
	return 0
}

// loadConfig applies defaults, then the -config file if given, then every
// other flag on top.
func loadConfig(args []string) (config.Config, error) {
	var path string
	probe := config.Default()
	fs := newFlagSet(&probe, &path)
	if err := fs.Parse(args); err != nil {
		return probe, err
	}
	if path == "" {
		return probe, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	fs = newFlagSet(&cfg, &path)
	return cfg, fs.Parse(args)
}

func newFlagSet(cfg *config.Config, path *string) *flag.FlagSet {
	fs := flag.NewFlagSet("memlab", flag.ContinueOnError)
	fs.StringVar(path, "config", *path, "JSON configuration file")
	cfg.Bind(fs)
	return fs
}

func exportJSON(path string, reports []outcome.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := results.WriteJSON(f, reports); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// setupSignalHandling turns the first SIGINT/SIGTERM into a stop request
// honoured between runs. A second signal exits as soon as any sink write in
// flight has finished.
func setupSignalHandling() (stop func()) {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
		case <-quit:
			return
		}
		debug.DropMessage("SIGNAL", "stopping after the current run")
		control.Shutdown()
		select {
		case <-sigChan:
			debug.DropMessage("SIGNAL", "second interrupt, exiting")
			control.ShutdownWG.Wait()
			os.Exit(130)
		case <-quit:
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(quit)
	}
}
