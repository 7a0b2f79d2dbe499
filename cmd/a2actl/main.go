// Command a2actl is the operator CLI for the a2a runtime: serving an agent,
// exercising one over HTTP, listing a registry's members, and running a
// saved workflow file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// Exit codes: 0 success, 1 generic error, 2 bad usage, 3 network error,
// 4 remote failure.
const (
	exitOK           = 0
	exitGeneric      = 1
	exitUsage        = 2
	exitNetworkError = 3
	exitRemoteError  = 4
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "a2actl",
		Usage: "operate and exercise a2a agents",
		Commands: []*cli.Command{
			serveCommand(),
			sendCommand(),
			streamCommand(),
			listCommand(),
			callCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// cliError carries an explicit exit code alongside the message urfave/cli
// prints, so each command chooses its own failure class instead of always
// exiting 1.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &cliError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func networkError(err error) error {
	return &cliError{code: exitNetworkError, err: err}
}

func remoteError(err error) error {
	return &cliError{code: exitRemoteError, err: err}
}

func exitCodeFor(err error) int {
	if ce, ok := err.(*cliError); ok {
		return ce.code
	}
	return exitGeneric
}
