// Command parallely runs several commands in parallel and multiplexes their
// output into live terminal panes. Quitting (q, ctrl-c, or an OS termination
// signal) interrupts every child gracefully, killing the ones whose signal
// delivery fails, then reports each child's final status.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/BppleMan/parallely/internal/app"
	"github.com/BppleMan/parallely/internal/logging"
)

type cliConfig struct {
	commands       []string
	exitOnComplete bool
	debug          bool
}

func parseFlags(args []string) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("parallely", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.BoolVar(&cfg.exitOnComplete, "eoc", false, "exit once every command has completed")
	fs.BoolVar(&cfg.debug, "debug", false, "write a debug log under ./logs")
	fs.BoolVar(&cfg.debug, "d", false, "shorthand for -debug")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: parallely [flags] COMMAND [COMMAND...]\n")
		fmt.Fprintf(fs.Output(), "  e.g. parallely \"echo hello\" \"echo world\"\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.commands = fs.Args()
	if len(cfg.commands) == 0 {
		fs.Usage()
		return cfg, fmt.Errorf("at least one command is required")
	}
	return cfg, nil
}

func main() {
	// Argument parsing fails before any terminal mode is entered.
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closeLog, err := logging.Setup(cfg.debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		_ = closeLog()
	}()

	model := app.New(app.Config{
		Commands:       cfg.commands,
		ExitOnComplete: cfg.exitOnComplete,
	}, logger)

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		// The app owns signal handling; the supervisor must see
		// SIGTERM/SIGQUIT too, not just interrupt.
		tea.WithoutSignalHandler(),
	)
	final, err := program.Run()
	if err != nil {
		logger.Error("program failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "parallely: %v\n", err)
		os.Exit(1)
	}

	result := final.(app.Model).Result()
	if result == nil {
		return
	}
	logger.Debug("exiting", zap.Stringer("reason", result.Reason))
	for _, tr := range result.Tasks {
		if tr.Err != nil {
			fmt.Fprintln(os.Stderr, tr.Err)
			continue
		}
		fmt.Println(tr.Status)
	}
}
