package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/morphocore/internal/app"
	"github.com/vk/morphocore/internal/registry"
)

// Version is set at build time.
var Version = "0.1.0-dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

type flags struct {
	logLevel        string
	logFormat       string
	workers         int
	healthcheckPort int
	progressURL     string
	checkpointDir   string
	runID           string
	resume          bool
}

func (f *flags) config(paths []string) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		ModelPaths:      paths,
		LogLevel:        strings.ToLower(f.logLevel),
		LogFormat:       strings.ToLower(f.logFormat),
		WorkerCount:     f.workers,
		HealthcheckPort: f.healthcheckPort,
		ProgressURL:     f.progressURL,
		CheckpointDir:   f.checkpointDir,
		RunID:           f.runID,
		Resume:          f.resume,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// NewRootCommand builds the morphocore command tree. Output and logs go to
// outW. Extra modules are registered next to the built-in processes.
func NewRootCommand(outW io.Writer, modules ...registry.Module) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "morphocore",
		Short: "Multi-rate simulation engine for cell-based models",
		Long: `morphocore runs simulation models described in HCL or YAML files.

Models declare symbols (constants, variables, cell properties, functions)
and processes that update them at their own time steps. The scheduler
orders the processes by their symbol dependencies and advances time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&f.logLevel, "log-level", "info", "Logging level: debug, info, warn or error")
	pf.StringVar(&f.logFormat, "log-format", "text", "Log output format: text or json")
	pf.IntVar(&f.workers, "workers", 0, "Number of evaluation workers (0 = one per CPU)")

	root.AddCommand(
		newRunCmd(outW, f, modules),
		newCheckCmd(outW, f, modules),
		newVersionCmd(outW),
	)
	return root
}

// modelPaths requires at least one model path argument.
func modelPaths(cmd *cobra.Command, args []string) error {
	if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
		return usageError(err)
	}
	return nil
}

func newApp(outW io.Writer, f *flags, paths []string, modules []registry.Module) (*app.App, error) {
	cfg, err := f.config(paths)
	if err != nil {
		return nil, err
	}
	return app.New(outW, cfg, modules...)
}

func newRunCmd(outW io.Writer, f *flags, modules []registry.Module) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run MODEL_PATH...",
		Short: "Run a simulation",
		Args:  modelPaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(outW, f, args, modules)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.healthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics server (0 = disabled)")
	fl.StringVar(&f.progressURL, "progress-url", "", "socket.io endpoint receiving progress events")
	fl.StringVar(&f.checkpointDir, "checkpoint-dir", "", "Directory of the checkpoint database (empty = disabled)")
	fl.StringVar(&f.runID, "run-id", "", "Run identifier (default: random)")
	fl.BoolVar(&f.resume, "resume", false, "Resume --run-id from its latest checkpoint")
	return cmd
}

func newCheckCmd(outW io.Writer, f *flags, modules []registry.Module) *cobra.Command {
	return &cobra.Command{
		Use:   "check MODEL_PATH...",
		Short: "Validate a model without running it",
		Args:  modelPaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(outW, f, args, modules)
			if err != nil {
				return err
			}
			if err := a.Check(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(outW, "model OK")
			return nil
		},
	}
}

func newVersionCmd(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(outW, "morphocore version %s\n", Version)
		},
	}
}

// Execute runs the command tree with args. Usage errors are returned as an
// *ExitError with code 2.
func Execute(ctx context.Context, outW io.Writer, args []string, modules ...registry.Module) error {
	root := NewRootCommand(outW, modules...)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
