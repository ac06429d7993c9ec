// Command buzz is the CLI front end for the buzz runtime: it compiles
// and runs scripts, disassembles their bytecode, and runs test files
// discovered under a directory.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"buzz/pkg/bzerror"
)

const version = "0.1.0"

// Exit codes per §6/§7: a compile error never reaches the VM so it can't
// carry a *bzerror.Error, hence the prefix check against run.go's
// "compile: %w" wrapping; a *bzerror.Error is an uncaught runtime
// exception; anything else (an I/O failure, for instance) is an
// internal error. The VM raises every failure it reports, an
// "unimplemented opcode" included, as a *bzerror.Error, so those exit
// with the runtime-error code.
const (
	exitOK           = 0
	exitCompileError = 64
	exitRuntimeError = 65
	exitInternal     = 70
)

func main() {
	_ = godotenv.Load() // optional .env for BUZZ_PATH / cache overrides; silently absent is fine

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a command's returned error to the process exit code
// the spec requires. It checks, in order: an unwrapped *bzerror.Error
// (an uncaught runtime exception), the "compile: " prefix run.go's
// runScript wraps compile failures with, the "runtime error: " prefix it
// wraps VM failures with, and otherwise falls back to an internal error.
func exitCodeFor(err error) int {
	var bzErr *bzerror.Error
	if errors.As(err, &bzErr) {
		return exitRuntimeError
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "compile: "):
		return exitCompileError
	case strings.Contains(msg, "runtime error: "):
		return exitRuntimeError
	default:
		return exitInternal
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "buzz [script]",
		Short: "Run buzz scripts",
		Long:  "buzz compiles and executes scripts for the buzz scripting language.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runScript(args[0])
		},
	}

	root.AddCommand(newRunCmd(), newTestCmd(), newDisasmCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Run a buzz script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(args[0])
		},
	}
}

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <dir>",
		Short: "Discover and run *_test.buzz files under dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(args[0])
		},
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <script>",
		Short: "Print a script's compiled bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disasmScript(args[0])
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the buzz version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("buzz " + version)
		},
	}
}
