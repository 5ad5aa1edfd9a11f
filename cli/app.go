// Package cli implements command-line commands for the blockform tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"

	"github.com/blockform/blockform/logging"
)

var log = logging.Module("blockform/cli")

//nolint:gochecknoglobals
var (
	noticeColor = color.New(color.FgHiCyan)
	errorColor  = color.New(color.FgHiRed)
)

// appServices are the methods of *App that command handlers are allowed to
// call.
type appServices interface {
	baseActionWithContext(act func(ctx context.Context) error) func(ctx *kingpin.ParseContext) error
	openInputStream(path string) (io.ReadCloser, error)
	EnvName(s string) string
	stdin() io.Reader
	stdout() io.Writer
	Stderr() io.Writer
}

type commandParent interface {
	Command(name, help string) *kingpin.CmdClause
}

// App contains per-invocation flags and state of the blockform CLI.
type App struct {
	// global flags
	loggingFlags  loggingFlags
	observability observabilityFlags

	// subcommands
	encode     commandEncode
	decode     commandDecode
	digest     commandDigest
	algorithms commandAlgorithms
	benchmark  commandBenchmark

	// testability hooks
	loggerFactory   logging.LoggerFactory
	simulatedCtrlC  chan bool
	isInProcessTest bool
	exitWithError   func(err error)

	stdinReader  io.Reader
	stdoutWriter io.Writer
	stderrWriter io.Writer
	rootctx      context.Context
}

func (c *App) setup(app *kingpin.Application) {
	c.loggingFlags.setup(c, app)
	c.observability.setup(c, app)

	c.encode.setup(c, app)
	c.decode.setup(c, app)
	c.digest.setup(c, app)
	c.algorithms.setup(c, app)
	c.benchmark.setup(c, app)
}

// NewApp creates a new instance of App.
func NewApp() *App {
	return &App{
		stdinReader:  os.Stdin,
		stdoutWriter: colorable.NewColorableStdout(),
		stderrWriter: colorable.NewColorableStderr(),
		rootctx:      context.Background(),
		exitWithError: func(err error) {
			if err != nil {
				os.Exit(1)
			}
		},
	}
}

// Attach registers the commands and global flags on the provided kingpin
// application.
func (c *App) Attach(app *kingpin.Application) {
	c.setup(app)
}

// SetLoggerFactory overrides the logger factory used by all commands in place
// of the console logger built from command-line flags.
func (c *App) SetLoggerFactory(loggerFactory logging.LoggerFactory) {
	c.loggerFactory = loggerFactory
}

// EnvName prefixes the name of the environment variable associated with a
// given flag when running inside a test, so that tests run isolated from the
// invoking environment.
func (c *App) EnvName(s string) string {
	if c.isInProcessTest {
		return "TESTING_" + s
	}

	return s
}

func (c *App) stdin() io.Reader {
	return c.stdinReader
}

func (c *App) stdout() io.Writer {
	return c.stdoutWriter
}

// Stderr returns the stderr writer.
func (c *App) Stderr() io.Writer {
	return c.stderrWriter
}

func (c *App) rootContext() context.Context {
	return c.rootctx
}

func (c *App) getLoggerFactory() logging.LoggerFactory {
	if c.loggerFactory != nil {
		return c.loggerFactory
	}

	return c.loggingFlags.consoleLoggerFactory(c.Stderr())
}

// openInputStream opens the named file for reading; an empty path or "-"
// selects standard input.
func (c *App) openInputStream(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(c.stdin()), nil
	}

	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, "unable to open input")
	}

	return f, nil
}

func (c *App) baseActionWithContext(act func(ctx context.Context) error) func(ctx *kingpin.ParseContext) error {
	return func(_ *kingpin.ParseContext) error {
		return c.runAppWithContext(act)
	}
}

// onCtrlC invokes the provided function when the process is interrupted. In
// tests the interrupt is delivered through the simulated Ctrl-C channel.
func (c *App) onCtrlC(f func()) {
	if c.isInProcessTest {
		go func() {
			if _, ok := <-c.simulatedCtrlC; ok {
				f()
			}
		}()

		return
	}

	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt)

	go func() {
		<-s
		f()
	}()
}

func (c *App) runAppWithContext(act func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(logging.WithLogger(c.rootContext(), c.getLoggerFactory()))
	defer cancel()

	c.onCtrlC(cancel)

	if err := c.observability.startMetrics(ctx); err != nil {
		c.exitWithError(err)

		return nil
	}

	err := act(ctx)

	c.observability.stopMetrics(ctx)

	if err != nil {
		// print the error in red
		fmt.Fprintf(c.Stderr(), "%v %v\n", errorColor.Sprint("ERROR:"), err.Error()) //nolint:errcheck
		c.exitWithError(err)

		return nil
	}

	return nil
}
