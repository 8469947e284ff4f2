// Package cli implements the nexus command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values shared by every subcommand.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app carries the flags and the logger built from them.
type app struct {
	flags rootFlags
	log   *zap.Logger
}

// NewRootCmd creates the top-level "nexus" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "nexus",
		Short: "Local back-office data shim",
		Long: "Nexus serves the back-office tables, realtime channels, and accounts\n" +
			"from a local store, or forwards them to the hosted backend when\n" +
			"hosted credentials are configured.",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(a.flags.verbose)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir, or $NEXUS_CONFIG_DIR)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.nexus-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		a.newVersionCmd(),
		a.newInitCmd(),
		a.newReseedCmd(),
		a.newTablesCmd(),
		a.newSelectCmd(),
		a.newInsertCmd(),
		a.newUpdateCmd(),
		a.newDeleteCmd(),
		a.newSignUpCmd(),
		a.newSignInCmd(),
		a.newSignOutCmd(),
		a.newWhoAmICmd(),
		a.newAdminCmd(),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps errors the backend reports about the request to
// exitUserError and everything else to exitSysError.
func exitCode(err error) int {
	var typed *types.Error
	if errors.As(err, &typed) && typed.Kind != types.KindRemote && typed.Kind != types.KindClientClosed {
		return exitUserError
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return exitUserError
	}
	return exitSysError
}

// usageError marks a malformed invocation.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
