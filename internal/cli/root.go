// Package cli implements the prodmodel command-line interface: a cobra
// command tree over the engine and the SQLite backend.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prodmodel/internal/paths"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by one command tree.
type app struct {
	flags    rootFlags
	settings settings
	logger   *slog.Logger
	out      io.Writer
	errOut   io.Writer
}

// usageError marks an error caused by the invocation rather than by the
// system.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usage(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// checkArgs wraps a cobra positional-argument check so its failures count
// as user errors.
func checkArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// NewRootCmd creates the top-level "prodmodel" command with global flags
// and all subcommands registered. Command output goes to out, logs and
// errors to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "prodmodel",
		Short: "Inspect and arrange the properties of product model types",
		Long: "prodmodel resolves the effective properties of configured types across\n" +
			"their supertype chains, assigns them to display categories and orders them.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newTypesCmd(a),
		newPropsCmd(a),
		newShowCmd(a),
		newMovePropsCmd(a),
		newMoveCategoriesCmd(a),
		newSetCategoryCmd(a),
		newSaveCmd(a),
		newDiscardCmd(a),
		newValidateCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return err
	}
	a.settings = s

	level := s.LogLevel
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	return nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, types.ErrInvalidArgument),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrReadOnly),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, fs.ErrNotExist):
		return exitUserError
	default:
		return exitSysError
	}
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "prodmodel:", err)
		return exitCode(err)
	}
	return exitSuccess
}
